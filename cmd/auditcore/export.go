package main

import (
	"auditcore/internal/adapters/exports"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const stdoutPath = "-"

func (a *application) exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write audit artifacts from the configured store",
	}
	cmd.AddCommand(
		a.auditExportCommand("h2k", "Write the HOT2000 input file of an audit", exports.FormatH2K),
		a.auditExportCommand("pdf", "Write the customer report of an audit", exports.FormatPDF),
		a.rosterCommand(),
	)
	return cmd
}

func (a *application) auditExportCommand(use, short string, format exports.Format) *cobra.Command {
	var auditID, out string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				var buf bytes.Buffer
				art, err := rt.exports.Write(cmd.Context(), auditID, format, &buf)
				if err != nil {
					return fmt.Errorf("export %s %s: %w", format, auditID, err)
				}
				return a.emit(cmd.OutOrStdout(), out, art, buf.Bytes())
			})
		},
	}
	cmd.Flags().StringVar(&auditID, "audit", "", "Audit id.")
	cmd.Flags().StringVar(&out, "out", "", "Output path, - for stdout. Defaults to the artifact's file name.")
	_ = cmd.MarkFlagRequired("audit")
	return cmd
}

func (a *application) rosterCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Write the program roster workbook of every audit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				var buf bytes.Buffer
				art, err := rt.exports.WriteRoster(cmd.Context(), &buf)
				if err != nil {
					return fmt.Errorf("export roster: %w", err)
				}
				return a.emit(cmd.OutOrStdout(), out, art, buf.Bytes())
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output path, - for stdout. Defaults to "+exports.RosterFilename+".")
	return cmd
}

func (a *application) withRuntime(ctx context.Context, fn func(*runtime) error) error {
	rt, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			a.logger.Warn("store close failed", zap.Error(err))
		}
	}()
	return fn(rt)
}

// emit writes a rendered artifact to path, or to stdout for "-".
func (a *application) emit(stdout io.Writer, path string, art exports.Artifact, data []byte) error {
	if path == stdoutPath {
		_, err := stdout.Write(data)
		return err
	}
	if path == "" {
		path = art.Filename
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", path, len(data))
	return nil
}
