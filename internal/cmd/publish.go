package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"medform/internal/app"
	"medform/internal/engine"
	"medform/internal/service"
)

// NewPublishCommand creates the 'medform publish' command
func NewPublishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <spec-file>",
		Short: "Store a specification version in MongoDB",
		Long: `Validate a specification file and store it in MongoDB as the newest
version of its questionnaire. Servers running with SPEC_SOURCE=mongo pick it
up on their next start; use PUT /v1/admin/questionnaire to switch a running
server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			raw, err := readSpecJSON(args[0])
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			a := app.New(cfg, logger)
			defer a.Close(context.Background())

			repo, err := a.SpecRepo(ctx)
			if err != nil {
				return err
			}

			specs := service.NewSpecService(service.SpecSourceMongo, "", cfg.ExpectedQuestionnaireID, repo, logger)
			spec, err := specs.Publish(ctx, raw)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "published %s version %s (%d questions)\n", spec.QuestionnaireID, spec.Version, len(spec.Questions))
			return nil
		},
	}
}

// readSpecJSON returns the file as JSON, converting YAML specifications
func readSpecJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specification: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return engine.YAMLToJSON(data)
	}
	return data, nil
}
