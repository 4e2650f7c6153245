package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mareo-monitor/internal/app"
	"mareo-monitor/internal/config"
	"mareo-monitor/internal/logging"
)

const appName = "mareo-monitor"

var (
	cfgFile string
	v       = viper.New()
	build   = app.BuildInfo{Version: "dev", Commit: "unknown", Date: "unknown"}
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Sea level forecasts from FMI mareographs",
	Long: `Polls the Finnish Meteorological Institute open data service for
mareograph sea level forecasts and exposes them as sensor entities over
HTTP, Server-Sent Events and Home Assistant MQTT discovery.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it
func Execute(info app.BuildInfo) {
	build = info
	rootCmd.Version = fmt.Sprintf("%s (%s, %s)", info.Version, info.Commit, info.Date)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./mareo.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	cobra.CheckErr(v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))
}

// initConfig reads .env, the config file and MAREO_* variables
func initConfig() {
	_ = godotenv.Load(".env") // ignore missing file

	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("mareo")
	}

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	} else if cfgFile != "" {
		cobra.CheckErr(fmt.Errorf("reading config file: %w", err))
	}
}

// loadRuntime validates the configuration and builds the logger
func loadRuntime() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.New(os.Stderr, cfg, build.Version, appName)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// withServices runs fn with the shared services and closes them afterwards
func withServices(fn func(cfg config.Config, svc *app.Services, logger *slog.Logger) error) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	svc, err := app.NewServices(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("db close", "error", err)
		}
	}()

	return fn(cfg, svc, logger)
}
