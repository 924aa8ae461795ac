package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the locally cached annotation snapshots as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		keys, err := a.cache.ListSnapshotKeys(ctx)
		if err != nil {
			return err
		}

		out := make(map[string]store.Collection, len(keys))
		for _, key := range keys {
			col, ok, err := a.cache.GetSnapshot(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to read snapshot %s: %w", key, err)
			}
			if ok {
				out[key] = col
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
