package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tendant/site-content/pkg/sitecontent/media"
)

func (c *cli) compressCmd() *cobra.Command {
	var (
		target int
		maxDim int
	)
	cmd := &cobra.Command{
		Use:   "compress <input> <output>",
		Short: "Recompress an image the way uploads are",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			opts := c.cfg.ImageOptions()
			if cmd.Flags().Changed("target") {
				opts.TargetBytes = target
			}
			if cmd.Flags().Changed("max-dimension") {
				opts.MaxDimension = maxDim
			}

			result, err := media.Compress(data, opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], result.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d quality %d: %d -> %d bytes (%.1f%% smaller)\n",
				result.SourceFormat, result.Width, result.Height, result.Quality,
				result.OriginalSize, len(result.Data),
				media.CompressionRatio(result.OriginalSize, len(result.Data)))
			if !result.WithinBudget(opts.TargetBytes) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: output is above the %d byte target\n", opts.TargetBytes)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&target, "target", 0, "Target size in bytes (defaults to IMAGE_TARGET_BYTES)")
	cmd.Flags().IntVar(&maxDim, "max-dimension", 0, "Longest side in pixels (defaults to IMAGE_MAX_DIMENSION)")
	return cmd
}
