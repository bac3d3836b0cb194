package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tendant/site-content/pkg/sitecontent/codec"
	"github.com/tendant/site-content/pkg/sitecontent/config"
)

// cli carries state shared by every subcommand.
type cli struct {
	envFile   string
	codecName string
	cfg       *config.ServerConfig
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "sitectl",
		Short: "Inspect and maintain stored site content",
		Long: `sitectl encodes and decodes stored text, compresses images and manages
objects in the site bucket. Settings come from the same environment
variables as the server, optionally loaded from an env file.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.load,
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Env file to load when present")
	root.PersistentFlags().StringVar(&c.codecName, "codec", "", "Text codec (defaults to TEXT_CODEC)")

	root.AddCommand(
		c.encodeCmd(),
		c.decodeCmd(),
		c.classifyCmd(),
		c.compressCmd(),
		c.uploadCmd(),
		c.listCmd(),
		c.deleteCmd(),
		c.tokenCmd(),
	)
	return root
}

func (c *cli) load(cmd *cobra.Command, args []string) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", c.envFile, err)
		}
	}
	opts := []config.Option{config.WithEnv()}
	if c.codecName != "" {
		opts = append(opts, config.WithTextCodec(c.codecName))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *cli) codec() (codec.Codec, error) {
	return c.cfg.Codec()
}

// input returns the joined args, or stdin when there are none.
func input(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
