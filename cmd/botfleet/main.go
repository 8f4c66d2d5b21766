package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/botfleet/cmd/botfleet/internal"
	"github.com/tinyland-inc/botfleet/cmd/botfleet/internal/gateway"
	"github.com/tinyland-inc/botfleet/cmd/botfleet/internal/version"
)

func NewBotfleetCommand() *cobra.Command {
	short := fmt.Sprintf("%s botfleet - multi-account chat bot fleet v%s\n\n", internal.Logo, internal.FormatVersion())

	cmd := &cobra.Command{
		Use:     "botfleet",
		Short:   short,
		Example: "botfleet gateway",
	}

	cmd.AddCommand(
		gateway.NewGatewayCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewBotfleetCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
