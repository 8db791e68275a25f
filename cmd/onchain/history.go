package main

import (
	"errors"
	"fmt"

	"github.com/alejandrodnm/onchainsheet/internal/adapters/notify"
	"github.com/alejandrodnm/onchainsheet/internal/adapters/storage"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.noHistory {
				return errors.New("history is disabled by --no-history")
			}
			store, err := storage.NewSQLiteStorage(a.cfg.Storage.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			notify.NewConsoleWriter(cmd.OutOrStdout()).PrintHistory(runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}
