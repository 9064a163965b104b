package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mklimuk/hegemone/pkg/config"
)

func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write a default configuration file for deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s exists, use --force to overwrite", output)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			cfg := config.Default()
			if adapter, _ := cmd.Flags().GetString("adapter"); adapter != "" {
				cfg.I2C.Adapter = adapter
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("could not write configuration: %w", err)
			}
			slog.Info("configuration written", "path", output, "adapter", cfg.I2C.Adapter)
			return nil
		},
	}
	cmd.Flags().String("output", "dist/hegemone.yaml", "output file")
	cmd.Flags().String("adapter", "", "i2c adapter written to the file")
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}
