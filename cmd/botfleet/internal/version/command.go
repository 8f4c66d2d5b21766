package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/botfleet/cmd/botfleet/internal"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the botfleet version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("botfleet %s\n", internal.FormatVersion())
		},
	}
}
