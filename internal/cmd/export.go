package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"medform/internal/app"
	"medform/internal/model"
	"medform/internal/service"
)

type exportOptions struct {
	format string
	from   string
	to     string
	out    string
}

// NewExportCommand creates the 'medform export' command
func NewExportCommand() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored responses as CSV or JSON",
		Long: `Export stored responses from the configured store (STORE_DRIVER), newest first.

Dates accept RFC 3339 timestamps or bare dates (midnight UTC).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", service.FormatCSV, "output format: csv, json or xlsx")
	cmd.Flags().StringVar(&opts.from, "from", "", "only responses created at or after this date")
	cmd.Flags().StringVar(&opts.to, "to", "", "only responses created at or before this date")
	cmd.Flags().StringVarP(&opts.out, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func runExport(ctx context.Context, opts *exportOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	filter, err := exportFilter(opts)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	a := app.New(cfg, logger)
	defer a.Close(context.Background())

	specs, err := a.Specs(ctx)
	if err != nil {
		return err
	}
	responses, err := a.Responses(ctx)
	if err != nil {
		return err
	}

	out := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return service.NewReportService(responses, specs).Export(ctx, out, opts.format, filter)
}

func exportFilter(opts *exportOptions) (model.ResponseFilter, error) {
	from, err := service.ParseDate(opts.from)
	if err != nil {
		return model.ResponseFilter{}, fmt.Errorf("invalid --from: %w", err)
	}
	to, err := service.ParseDate(opts.to)
	if err != nil {
		return model.ResponseFilter{}, fmt.Errorf("invalid --to: %w", err)
	}
	return model.ResponseFilter{From: from, To: to}, nil
}
