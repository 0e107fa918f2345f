package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/app"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/client"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/export"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	RemoteOptions

	From         string
	To           string
	Department   string
	EmployeeID   string
	ExportFormat string
	Output       string

	clientOpts []client.Option
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <type>",
		Short: "Generate and export a report",
		Long: fmt.Sprintf(`Generate a report and write it as JSON or XLSX.

Report types: %s

Without --server the report is built from the configured store.

Example:
  hrmsctl report attendance-summary --from 2024-03-01 --to 2024-03-31
  hrmsctl report department --department Engineering --export-format xlsx -o march.xlsx
  hrmsctl report dashboard --server http://localhost:8080 -o -`, strings.Join(report.Types, ", ")),
		Args:      cobra.ExactArgs(1),
		ValidArgs: report.Types,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Department, "department", "", "department filter")
	cmd.Flags().StringVar(&opts.EmployeeID, "employee", "", "employee id filter")
	cmd.Flags().StringVar(&opts.ExportFormat, "export-format", string(export.FormatJSON), "file format (json|xlsx)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", `output file; "-" writes to stdout (default: generated file name)`)
	opts.RemoteOptions.addFlags(cmd)

	return cmd
}

func (o *ReportOptions) params() report.Params {
	return report.Params{
		DateFrom:   o.From,
		DateTo:     o.To,
		Department: o.Department,
		EmployeeID: o.EmployeeID,
	}
}

func runReport(ctx context.Context, opts *ReportOptions, reportType string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := export.ParseFormat(opts.ExportFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --export-format", err)
	}

	var (
		buf      bytes.Buffer
		filename string
	)
	if opts.Server != "" {
		setupLogger(opts.RootOptions, cmd.ErrOrStderr(), defaultLevel, "")
		c, err := opts.connect(ctx, opts.clientOpts...)
		if err != nil {
			return err
		}
		filename, err = c.Export(ctx, reportType, format, opts.params(), &buf)
		if err != nil {
			return WrapExitError(ExitFailure, "export failed", err)
		}
	} else {
		cfg, err := loadConfig(opts.RootOptions, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		a, err := app.New(ctx, cfg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start", err)
		}
		defer a.Close()

		filename, err = renderLocal(ctx, a, reportType, format, opts.params(), &buf)
		if err != nil {
			return err
		}
	}

	return writeReport(opts, cmd, filename, buf.Bytes())
}

func renderLocal(ctx context.Context, a *app.App, reportType string, format export.Format, p report.Params, w io.Writer) (string, error) {
	data, err := report.Generate(ctx, a.Reports, reportType, p)
	if err != nil {
		return "", WrapExitError(ExitFailure, "report failed", err)
	}
	if err := export.Write(w, format, data); err != nil {
		return "", WrapExitError(ExitFailure, "render failed", err)
	}
	return export.FileName(reportType, a.Clock.Now().Format("2006-01-02"), format), nil
}

func writeReport(opts *ReportOptions, cmd *cobra.Command, filename string, body []byte) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.Output == "-" {
		_, err := cmd.OutOrStdout().Write(body)
		return err
	}

	path := opts.Output
	if path == "" {
		path = filename
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return WrapExitError(ExitFailure, "write report", err)
	}
	return out.Success(fmt.Sprintf("wrote %s (%d bytes)", path, len(body)),
		map[string]any{"path": path, "bytes": len(body)})
}
