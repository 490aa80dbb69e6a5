package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medform/internal/config"
	"medform/internal/logging"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for medform
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medform",
		Short: "Dynamic patient questionnaire server",
		Long: `medform serves a declarative patient questionnaire to respondents,
stores completed responses and exposes an admin API to list and export them.

Configuration is read from the environment and an optional .env file.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewTakeCommand())
	cmd.AddCommand(NewExportCommand())
	cmd.AddCommand(NewPublishCommand())
	cmd.AddCommand(NewHashPasswordCommand())

	return cmd
}

// loadConfig reads and checks the configuration and builds the root logger
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.LogLevel, cfg.LogPretty), nil
}
