package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KLfungli/workers-sdk/internal/config"
	"github.com/KLfungli/workers-sdk/internal/logging"
	"github.com/KLfungli/workers-sdk/internal/packagemanager"
	"github.com/KLfungli/workers-sdk/internal/telemetry"
)

var (
	cfgFile          string
	metricsPath      string
	logLevel         string
	disableTelemetry bool

	logger       *logging.Logger
	metricsStore *config.Store
	pkgManager   packagemanager.Info
	reporter     *telemetry.Reporter
)

// drainTimeout bounds how long process exit waits for in-flight
// telemetry sends to settle.
const drainTimeout = 2 * time.Second

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "create-cloudflare",
	Short: "Scaffold and manage Cloudflare Workers projects",
	Long: `create-cloudflare sets up new Cloudflare Workers projects from templates,
executes SQL against D1 databases, and manages its own telemetry consent.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

// Execute runs the CLI and drains in-flight telemetry before returning.
func Execute() error {
	err := rootCmd.Execute()
	if reporter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		reporter.Wait(ctx)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wrangler/config/default)")
	rootCmd.PersistentFlags().StringVar(&metricsPath, "metrics-config", "", "metrics config file (default is $HOME/.wrangler/config/metrics.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&disableTelemetry, "disable-telemetry", false, "suppress telemetry for this invocation")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.wrangler/config")
			viper.SetConfigName("default")
			viper.SetConfigType("yaml")
		}
	}

	viper.AutomaticEnv()
	viper.BindEnv("api_token", "CLOUDFLARE_API_TOKEN")
	viper.BindEnv("account_id", "CLOUDFLARE_ACCOUNT_ID")
	viper.BindEnv("telemetry_disabled", "CREATE_CLOUDFLARE_TELEMETRY_DISABLED")

	// Missing config file is fine; env and flags cover everything.
	_ = viper.ReadInConfig()
}

// initServices builds the process-wide services: logger, metrics config
// record, package manager detection, telemetry session and reporter.
func initServices(cmd *cobra.Command, args []string) error {
	logger = logging.NewLogger(logging.ParseLevel(logLevel), false)

	path := metricsPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	var err error
	metricsStore, err = config.Open(path)
	if err != nil {
		return fmt.Errorf("open metrics config: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	pkgManager = packagemanager.Detect(cwd)

	session := telemetry.NewSession(metricsStore.DeviceID(), pkgManager.Name, metricsStore.FirstUsage())
	reporter = telemetry.NewReporter(session, sinkOrNil(), metricsStore.Enabled(), logger)
	return nil
}

// sinkOrNil applies the kill-switch: no delivery credential, no sink.
func sinkOrNil() telemetry.Sink {
	sink := telemetry.NewHTTPSink()
	if sink == nil {
		return nil
	}
	return sink
}

// telemetryDisabled reports whether this invocation should emit events.
func telemetryDisabled() bool {
	return disableTelemetry || viper.GetBool("telemetry_disabled")
}
