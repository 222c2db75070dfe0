package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KLfungli/workers-sdk/internal/scaffold"
	"github.com/KLfungli/workers-sdk/internal/telemetry"
)

var (
	createTemplate  string
	createNoInstall bool
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create [directory]",
	Short: "Scaffold a new Workers project",
	Long: `Creates a new Cloudflare Workers project in the given directory by
delegating to the chosen template's generator, then installs dependencies
with the detected package manager.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVarP(&createTemplate, "template", "t", "", "template name (see the template catalogue)")
	createCmd.Flags().BoolVar(&createNoInstall, "no-install", false, "skip dependency installation")
}

func runCreate(cmd *cobra.Command, args []string) error {
	directory := "my-worker"
	if len(args) > 0 {
		directory = args[0]
	}

	props := telemetry.Properties{
		"template":  createTemplate,
		"directory": directory,
	}

	_, err := telemetry.Run(cmd.Context(), reporter, "session", props, telemetryDisabled(),
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, scaffoldProject(ctx, directory)
		})
	return err
}

func scaffoldProject(ctx context.Context, directory string) error {
	manifest, err := scaffold.LoadManifest()
	if err != nil {
		return err
	}

	template, err := manifest.Lookup(createTemplate)
	if err != nil {
		return err
	}
	telemetry.SetProperty(ctx, "template", template.Name)
	telemetry.SetProperty(ctx, "isFramework", template.Framework)

	delegator := scaffold.NewDelegator(pkgManager, logger)
	if err := delegator.Generate(ctx, template, directory); err != nil {
		return err
	}

	if !createNoInstall {
		if err := delegator.InstallDependencies(ctx, directory); err != nil {
			telemetry.SetProperty(ctx, "installFailed", true)
			return err
		}
		telemetry.SetProperty(ctx, "dependenciesInstalled", true)
	}

	fmt.Printf("Project created in %s\n", directory)
	return nil
}
