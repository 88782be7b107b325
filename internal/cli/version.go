package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X".
var Version = "v0.1.0-dev"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printf(cmd.OutOrStdout(), "loraview %s\n", Version)
		},
	}
}
