package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// telemetryCmd represents the telemetry command
var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Inspect or change telemetry consent",
	Long: `create-cloudflare collects anonymous usage events to improve the tool.
These commands report the current setting or change it. Disabling stops
all event delivery immediately; the setting persists across runs.`,
}

var telemetryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current telemetry setting",
	RunE:  runTelemetryStatus,
}

var telemetryEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTelemetryEnabled(true)
	},
}

var telemetryDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTelemetryEnabled(false)
	},
}

// telemetryMetricsCmd dumps the dispatcher's internal counters. Debug
// surface, hidden from help output.
var telemetryMetricsCmd = &cobra.Command{
	Use:    "metrics",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := reporter.MetricsText()
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(telemetryCmd)
	telemetryCmd.AddCommand(telemetryStatusCmd)
	telemetryCmd.AddCommand(telemetryEnableCmd)
	telemetryCmd.AddCommand(telemetryDisableCmd)
	telemetryCmd.AddCommand(telemetryMetricsCmd)
}

func runTelemetryStatus(cmd *cobra.Command, args []string) error {
	state := "disabled"
	if metricsStore.Enabled() {
		state = "enabled"
	}
	delivery := "configured"
	if !reporter.Enabled() && metricsStore.Enabled() {
		delivery = "absent (events suppressed)"
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Setting", "Value")
	table.Append("Telemetry", state)
	table.Append("Since", metricsStore.PermissionDate().Format("2006-01-02 15:04:05"))
	table.Append("Device ID", metricsStore.DeviceID())
	table.Append("Delivery key", delivery)
	table.Render()
	return nil
}

func setTelemetryEnabled(enabled bool) error {
	already := metricsStore.Enabled() == enabled
	if err := metricsStore.SetEnabled(enabled); err != nil {
		return err
	}

	word := "enabled"
	if !enabled {
		word = "disabled"
	}
	if already {
		fmt.Printf("Telemetry is already %s\n", word)
	} else {
		fmt.Printf("Telemetry %s\n", word)
	}
	return nil
}
