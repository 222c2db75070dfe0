package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KLfungli/workers-sdk/internal/d1"
	"github.com/KLfungli/workers-sdk/internal/telemetry"
)

var (
	d1Command string
	d1File    string
)

// d1Cmd represents the d1 command
var d1Cmd = &cobra.Command{
	Use:   "d1",
	Short: "Work with D1 databases",
}

// d1ExecuteCmd represents the d1 execute command
var d1ExecuteCmd = &cobra.Command{
	Use:   "execute <database>",
	Short: "Execute SQL against a D1 database",
	Long: `Splits the given SQL into statements and runs them as one batch
against the named D1 database via the Cloudflare API. Requires
CLOUDFLARE_ACCOUNT_ID and CLOUDFLARE_API_TOKEN (or config file entries).`,
	Args: cobra.ExactArgs(1),
	RunE: runD1Execute,
}

func init() {
	rootCmd.AddCommand(d1Cmd)
	d1Cmd.AddCommand(d1ExecuteCmd)

	d1ExecuteCmd.Flags().StringVarP(&d1Command, "command", "c", "", "SQL to execute")
	d1ExecuteCmd.Flags().StringVarP(&d1File, "file", "f", "", "file containing SQL to execute")
	d1ExecuteCmd.MarkFlagsMutuallyExclusive("command", "file")
	d1ExecuteCmd.MarkFlagsOneRequired("command", "file")
}

func runD1Execute(cmd *cobra.Command, args []string) error {
	database := args[0]

	sql := d1Command
	if d1File != "" {
		data, err := os.ReadFile(d1File)
		if err != nil {
			return fmt.Errorf("read SQL file: %w", err)
		}
		sql = string(data)
	}

	accountID := viper.GetString("account_id")
	apiToken := viper.GetString("api_token")
	if accountID == "" || apiToken == "" {
		return fmt.Errorf("d1 execute requires CLOUDFLARE_ACCOUNT_ID and CLOUDFLARE_API_TOKEN")
	}

	props := telemetry.Properties{"database": database}

	results, err := telemetry.Run(cmd.Context(), reporter, "d1 execute", props, telemetryDisabled(),
		func(ctx context.Context) ([]d1.QueryResult, error) {
			statements := d1.SplitStatements(sql)
			telemetry.SetProperty(ctx, "statementCount", len(statements))

			client := d1.NewClient(accountID, apiToken)
			return client.Execute(ctx, database, statements)
		})
	if err != nil {
		return err
	}

	renderResults(results)
	return nil
}

// renderResults prints each statement's rows as a table, followed by a
// one-line summary of what the batch did.
func renderResults(results []d1.QueryResult) {
	var rowsRead, rowsWritten int64
	for _, result := range results {
		rowsRead += result.Meta.RowsRead
		rowsWritten += result.Meta.RowsWritten

		if len(result.Results) == 0 {
			continue
		}

		// Column set from the first row; D1 rows share a shape.
		var columns []string
		for column := range result.Results[0] {
			columns = append(columns, column)
		}
		sort.Strings(columns)

		table := tablewriter.NewWriter(os.Stdout)
		table.Header(columns)
		for _, row := range result.Results {
			cells := make([]string, len(columns))
			for i, column := range columns {
				cells[i] = fmt.Sprintf("%v", row[column])
			}
			table.Append(cells)
		}
		table.Render()
	}

	fmt.Printf("%d statement(s) executed: %d row(s) read, %d row(s) written\n",
		len(results), rowsRead, rowsWritten)
}
