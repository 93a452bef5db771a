package main

import (
	"fmt"
	"os"

	"github.com/raccreative/clawdrop/internal/config"
	"github.com/spf13/cobra"
)

func newWhereisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whereis",
		Short: "Print where clawdrop is installed and where it keeps its config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate executable: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "binary: %s\n", exe)
			fmt.Fprintf(out, "config: %s\n", config.Dir())
			return nil
		},
	}
}
