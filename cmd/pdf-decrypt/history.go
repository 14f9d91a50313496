// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kmorita/pdf-decrypt/internal/journal"
	"github.com/kmorita/pdf-decrypt/pkg/types"
)

func newHistoryCmd(v *viper.Viper, d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs recorded in the journal",
		Long: `History reads the SQLite journal written by runs that used --journal and
prints one line per run, newest first. With --files, the per-file outcomes of
each listed run are printed below it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := v.GetString("journal")
			if path == "" {
				return fmt.Errorf("no journal configured: pass --journal or set journal in the config file")
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			files, err := cmd.Flags().GetBool("files")
			if err != nil {
				return err
			}

			// Listing history must not create an empty journal.
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(d.out, "No runs recorded.")
				return nil
			} else if err != nil {
				return fmt.Errorf("checking journal %s: %w", path, err)
			}

			store, err := journal.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(d.out, "No runs recorded.")
				return nil
			}

			for _, r := range runs {
				fmt.Fprintf(d.out, "#%d  %s  %s -> %s  %d decrypted, %d failed (%s)\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.InputDir, r.OutputDir,
					r.Decrypted, r.Failed, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
				if !files {
					continue
				}
				outcomes, err := store.Outcomes(cmd.Context(), r.ID)
				if err != nil {
					return err
				}
				for _, o := range outcomes {
					line := fmt.Sprintf("    %-9s %s", o.Status, o.File)
					if o.Status == types.DecryptionFailed && o.Detail != "" {
						line += "  (" + o.Detail + ")"
					}
					fmt.Fprintln(d.out, line)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "number of runs to show (0 for all)")
	cmd.Flags().Bool("files", false, "show per-file outcomes")
	return cmd
}
