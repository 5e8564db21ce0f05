package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mercator-hq/chatrelay/pkg/cli"
	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/credentials"
	"mercator-hq/chatrelay/pkg/telemetry/logging"
)

// defaultConfigFile is read when present; its absence is not an error.
const defaultConfigFile = "chatrelay.yaml"

var (
	// Global flags
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "chatrelay",
	Short: "Chatrelay - streaming relay for LLM chat clients",
	Long: `Chatrelay relays chat requests from a browser client to third-party LLM
HTTP APIs and streams the answer back as Server-Sent Events.

It normalizes OpenAI-compatible, Anthropic-style and Gemini-style responses
into one token stream, inlines uploaded files into the conversation and
keeps an audit log of every request.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle: loadEnvFile refers to rootCmd.
	rootCmd.PersistentPreRunE = loadEnvFile
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadEnvFile loads the dotenv file into the process environment. Variables
// already set are left alone. A missing default file is ignored.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}

	err := godotenv.Load(envFile)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) && !rootCmd.PersistentFlags().Changed("env-file") {
		return nil
	}
	return cli.NewConfigError(envFile, err)
}

// configPath returns the config file to load. The default file is optional;
// an explicitly named one must exist.
func configPath() string {
	if rootCmd.PersistentFlags().Changed("config") {
		return cfgFile
	}
	if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
		return ""
	}
	return cfgFile
}

// loadConfig loads the configuration with environment overrides applied.
func loadConfig() (*config.Config, error) {
	path := configPath()
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError(path, err)
	}

	ctx := context.Background()
	resolver, err := credentials.FromConfig(ctx, cfg.Credentials)
	if err != nil {
		return nil, cli.NewConfigError(path, err)
	}
	if err := resolver.ExpandConfig(ctx, cfg); err != nil {
		return nil, cli.NewConfigError(path, err)
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return nil, cli.NewConfigError(configPath(), err)
	}
	if verbose {
		logger.SetLevel("debug")
	}
	slog.SetDefault(logger.Slog())
	return logger, nil
}
