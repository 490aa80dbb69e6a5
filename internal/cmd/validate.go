package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"medform/internal/engine"
	"medform/internal/model"
)

// NewValidateCommand creates the 'medform validate' command
func NewValidateCommand() *cobra.Command {
	var expectedID string

	cmd := &cobra.Command{
		Use:   "validate <spec-file>...",
		Short: "Check one or more questionnaire specifications",
		Long: `Parse questionnaire specification files (.json, .yaml, .yml) and report
the questions each one declares, in display order.

Exit code: 0 if every file is valid, 1 otherwise`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateSpecs(cmd.OutOrStdout(), args, expectedID)
		},
	}

	cmd.Flags().StringVar(&expectedID, "expect-id", "", "reject specifications for another questionnaire id")
	return cmd
}

func validateSpecs(out io.Writer, paths []string, expectedID string) error {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	var failed int
	for _, path := range paths {
		spec, err := engine.LoadFile(path, engine.LoadOptions{ExpectedID: expectedID})
		if err != nil {
			failed++
			red.Fprintf(out, "✗ %s: %v\n", path, err)
			continue
		}

		green.Fprintf(out, "✓ %s: %s version %s, %d questions\n", path, spec.QuestionnaireID, spec.Version, len(spec.Questions))
		for _, q := range spec.Questions {
			fmt.Fprintf(out, "  %3d  %-20s %-12s%s\n", q.Order, q.ID, q.Type, describeRules(&q))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d specifications invalid", failed, len(paths))
	}
	return nil
}

func describeRules(q *model.Question) string {
	var s string
	switch {
	case q.RequiredIf != nil:
		s += " required_if:" + q.RequiredIf.ID
	case q.Required:
		s += " required"
	}
	if q.ShowIf != nil {
		s += " show_if:" + q.ShowIf.ID
	}
	return s
}
