package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendant/site-content/pkg/sitecontent/resolver"
)

func (c *cli) encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [text]",
		Short: "Encode text the way it is stored",
		Long: `Encode text with the configured codec. Reads stdin when no text is given.

Examples:
  sitectl encode "Hello donors"
  sitectl encode --codec zstd64 < post.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, err := input(cmd, args)
			if err != nil {
				return err
			}
			cd, err := c.codec()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cd.Encode(plain))
			return nil
		},
	}
}

func (c *cli) decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [encoded]",
		Short: "Decode stored text",
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, err := input(cmd, args)
			if err != nil {
				return err
			}
			cd, err := c.codec()
			if err != nil {
				return err
			}
			plain := cd.Decode(encoded)
			if plain == "" && encoded != "" {
				return fmt.Errorf("input is not valid %s output", cd.Name())
			}
			fmt.Fprintln(cmd.OutOrStdout(), plain)
			return nil
		},
	}
}

func (c *cli) classifyCmd() *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "classify [stored]",
		Short: "Report how a stored value would be read",
		Long: `Classify a stored value as empty, plain, compressed_inline or
blob_pointer and print the readable text. Blob pointers are not fetched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := input(cmd, args)
			if err != nil {
				return err
			}
			cd, err := c.codec()
			if err != nil {
				return err
			}
			f := resolver.Field(field)
			known := false
			for _, candidate := range resolver.Fields() {
				if candidate == f {
					known = true
					break
				}
			}
			if !known {
				return fmt.Errorf("unknown field %q (available: %v)", field, resolver.Fields())
			}

			urls, err := c.cfg.BuildURLStrategy()
			if err != nil {
				return err
			}
			res := resolver.New(cd, resolver.WithBlobPrefix(urls.Prefix()))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "kind: %s\n", res.Classify(f, stored))
			fmt.Fprintf(out, "text: %s\n", res.Text(f, stored))
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", string(resolver.FieldBlogContent), "Stored column, e.g. blogs.content")
	return cmd
}
