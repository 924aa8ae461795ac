package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var batchesCmd = &cobra.Command{
	Use:   "batches [batch-id]",
	Short: "List cached batches, or the images of one batch",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		if len(args) == 0 {
			ids, err := a.cache.ListBatches(ctx)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("no cached batches; run annotate or batches <id> --refresh")
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		}

		batchID := args[0]
		refresh, _ := cmd.Flags().GetBool("refresh")

		images, err := a.cache.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if refresh || images == nil {
			images, err = a.gw.ListBatchImages(ctx, batchID)
			if err != nil {
				return err
			}
			if err := a.cache.SaveBatch(ctx, batchID, images); err != nil {
				return fmt.Errorf("failed to cache batch %s: %w", batchID, err)
			}
		}

		for i, img := range images {
			fmt.Printf("%3d  %s  %s\n", i+1, img.ImageID, img.ImageURL)
		}
		return nil
	},
}

func init() {
	batchesCmd.Flags().Bool("refresh", false, "Re-fetch the batch listing from the backend")
	rootCmd.AddCommand(batchesCmd)
}
