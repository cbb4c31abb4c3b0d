// Package cmd implements the command-line interface for the Utah
// campaign finance disclosure collector. It provides the root command
// and the subcommands that map onto the site's report types.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/utdisclosures/cmd/disclosures"
	"github.com/jonesrussell/utdisclosures/cmd/entities"
	"github.com/jonesrussell/utdisclosures/cmd/registrations"
	"github.com/jonesrussell/utdisclosures/internal/config"
	"github.com/jonesrussell/utdisclosures/internal/site"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands
	Debug bool

	// rootCmd represents the root command for the collector CLI.
	rootCmd = &cobra.Command{
		Use:   "utdisclosures",
		Short: "Collect Utah campaign finance disclosure records",
		Long: `A collector for public campaign finance records from disclosures.utah.gov.
Disclosure reports and entity listings are written as CSV; registration
documents are written as JSON, one file per entity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	// Parse flags early to get debug flag before creating logger
	_ = rootCmd.ParseFlags(os.Args[1:])

	// Initialize configuration
	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	// Interrupt signals cancel the run between items
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

// init initializes the root command and its subcommands.
func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("utdisclosures version %s\n", viper.GetString("app.version"))
		},
	})

	// Add subcommands
	rootCmd.AddCommand(disclosures.Command())
	rootCmd.AddCommand(entities.Command())
	rootCmd.AddCommand(registrations.GetCommand())
	rootCmd.AddCommand(registrations.GetAllCommand())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	// Set config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// Enable automatic environment variable reading BEFORE setting defaults
	// This ensures environment variables take precedence over defaults
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults (only used if environment variables or config file don't provide values)
	setDefaults()

	// Read config file
	// Note: Config file is optional - if not found, we'll use defaults and environment variables
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Config file not found: %v (using defaults and environment variables)\n", err)
	}

	// Bind command-line flags to Viper
	if err := bindCommandLineFlags(); err != nil {
		return err
	}

	// Map environment variables to config keys
	if err := bindAppEnvVars(); err != nil {
		return err
	}

	// Set development logging settings
	setupDevelopmentLogging()

	return nil
}

// bindCommandLineFlags binds command-line flags to Viper.
func bindCommandLineFlags() error {
	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	return nil
}

// bindAppEnvVars binds application environment variables to config keys.
func bindAppEnvVars() error {
	if err := viper.BindEnv("app.environment", "APP_ENV"); err != nil {
		return fmt.Errorf("failed to bind APP_ENV: %w", err)
	}
	if err := viper.BindEnv("app.debug", "APP_DEBUG"); err != nil {
		return fmt.Errorf("failed to bind APP_DEBUG: %w", err)
	}
	if err := viper.BindEnv("logger.level", "LOG_LEVEL"); err != nil {
		return fmt.Errorf("failed to bind LOG_LEVEL: %w", err)
	}
	if err := viper.BindEnv("logger.encoding", "LOG_FORMAT"); err != nil {
		return fmt.Errorf("failed to bind LOG_FORMAT: %w", err)
	}
	if err := viper.BindEnv("source.base_url", "UT_SOURCE_BASE_URL"); err != nil {
		return fmt.Errorf("failed to bind UT_SOURCE_BASE_URL: %w", err)
	}
	if err := viper.BindEnv("output.dir", "UT_OUTPUT_DIR"); err != nil {
		return fmt.Errorf("failed to bind UT_OUTPUT_DIR: %w", err)
	}
	if err := viper.BindEnv("collector.workers", "UT_WORKERS"); err != nil {
		return fmt.Errorf("failed to bind UT_WORKERS: %w", err)
	}
	return nil
}

// setupDevelopmentLogging configures development logging settings based on environment and debug flag.
func setupDevelopmentLogging() {
	debugFlag := Debug || viper.GetBool("app.debug")
	isDev := viper.GetString("app.environment") == "development"

	if debugFlag {
		viper.Set("logger.level", "debug")
	}

	if isDev {
		viper.Set("logger.development", true)
		viper.Set("logger.enable_color", true)
		viper.Set("logger.encoding", "console")
	}

	Debug = debugFlag
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults - production safe
	viper.SetDefault("app", map[string]any{
		"name":        "utdisclosures",
		"version":     "1.0.0",
		"environment": "production",
		"debug":       false,
	})

	// Logger defaults - production safe
	viper.SetDefault("logger", map[string]any{
		"level":        "info",
		"development":  false,
		"encoding":     "console",
		"output_paths": []string{"stdout"},
		"enable_color": false,
	})

	// Source defaults - the production disclosure site
	viper.SetDefault("source", map[string]any{
		"base_url":   site.DefaultBaseURL,
		"user_agent": site.DefaultUserAgent,
		"timeout":    config.DefaultTimeout.String(),
		"delay":      config.DefaultDelay.String(),
	})

	// Retry defaults - per-page budget
	viper.SetDefault("retry", map[string]any{
		"max_attempts":  config.DefaultMaxAttempts,
		"initial_delay": config.DefaultInitialDelay.String(),
		"max_delay":     config.DefaultMaxDelay.String(),
		"multiplier":    config.DefaultMultiplier,
	})

	// Outage defaults - site-wide cooldown gate
	viper.SetDefault("outage", map[string]any{
		"failure_threshold": config.DefaultFailureThreshold,
		"cooldown":          config.DefaultCooldown.String(),
		"window":            config.DefaultWindow.String(),
	})

	// Output defaults
	viper.SetDefault("output", map[string]any{
		"dir": config.DefaultOutputDir,
	})

	// Collector defaults - sequential unless asked otherwise
	viper.SetDefault("collector", map[string]any{
		"workers": config.DefaultWorkers,
	})
}
