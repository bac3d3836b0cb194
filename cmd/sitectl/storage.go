package main

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/config"
)

func (c *cli) build(cmd *cobra.Command) (*config.Built, error) {
	logger := c.cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)
	return c.cfg.BuildService(cmd.Context(), logger)
}

func (c *cli) uploadCmd() *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image, or a text body with --text",
		Long: `Upload an image under images/, recompressed like browser uploads, or
encode a text file and upload it under blogs/. Prints the public URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			built, err := c.build(cmd)
			if err != nil {
				return err
			}
			defer built.Close()

			out := cmd.OutOrStdout()
			if text {
				url, err := built.Gateway.PutText(cmd.Context(), built.Service.Codec().Encode(string(data)))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, url)
				return nil
			}

			name := filepath.Base(args[0])
			upload, err := built.Service.UploadImage(cmd.Context(), name, mime.TypeByExtension(filepath.Ext(name)), data)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, upload.URL)
			if upload.Compressed {
				fmt.Fprintf(cmd.ErrOrStderr(), "compressed %d -> %d bytes\n", upload.OriginalSize, upload.Size)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "Encode the file and upload it as a blog body")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List stored objects newest first",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if prefix != sitecontent.ImagePrefix && prefix != sitecontent.BlogPrefix {
				return fmt.Errorf("prefix must be %q or %q", sitecontent.ImagePrefix, sitecontent.BlogPrefix)
			}
			built, err := c.build(cmd)
			if err != nil {
				return err
			}
			defer built.Close()

			objects, err := built.Gateway.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "UPDATED\tPATH\tURL")
			for _, o := range objects {
				fmt.Fprintf(w, "%s\t%s\t%s\n", o.UpdatedAt.Format(time.RFC3339), o.Path, o.URL)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", sitecontent.ImagePrefix, "images/ or blogs/")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <url>",
		Short: "Delete an object and the rows that reference it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := c.build(cmd)
			if err != nil {
				return err
			}
			defer built.Close()

			result, err := built.Gateway.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%d rows)\n", result.Path, result.RowsDeleted)
			for _, w := range result.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s.%s: %s\n", w.Table, w.Column, w.Message)
			}
			return nil
		},
	}
}
