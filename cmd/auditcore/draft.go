package main

import (
	"auditcore/internal/adapters/apiclient"
	"auditcore/internal/lifecycle"
	"auditcore/pkg/domain"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *application) draftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Work with locally edited audit drafts",
	}
	cmd.AddCommand(a.draftSyncCommand())
	return cmd
}

// readDraft returns a DraftFunc re-reading a JSON patch file on every save,
// so edits made between ticks are picked up.
func readDraft(path string) lifecycle.DraftFunc {
	return func() (domain.Patch, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var patch domain.Patch
		if err := json.Unmarshal(data, &patch); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return patch, nil
	}
}

func (a *application) draftSyncCommand() *cobra.Command {
	var (
		server, auditID, file, user string
		interval                    time.Duration
		once                        bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Autosave a draft file to a remote server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := apiclient.New(server, user, apiclient.WithLogger(a.logger.Named("api")))
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = a.cfg.Autosave.Interval
			}
			c := lifecycle.New(client, auditID, readDraft(file),
				lifecycle.WithInterval(interval),
				lifecycle.WithLogger(a.logger.Named("autosave")))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			saved, err := c.SaveNow(ctx)
			if err != nil {
				return fmt.Errorf("save %s: %w", auditID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", saved.ID, saved.Status)
			if once {
				return nil
			}
			a.logger.Info("autosave running",
				zap.String("audit_id", auditID),
				zap.Duration("interval", c.Interval()))
			return c.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Base URL of the auditcore server.")
	cmd.Flags().StringVar(&auditID, "audit", "", "Audit id.")
	cmd.Flags().StringVar(&file, "file", "", "JSON file holding the draft patch.")
	cmd.Flags().StringVar(&user, "user", "", "User id sent as "+"X-User-ID.")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Autosave period. Defaults to autosave.interval.")
	cmd.Flags().BoolVar(&once, "once", false, "Save once and exit.")
	for _, name := range []string{"server", "audit", "file"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
