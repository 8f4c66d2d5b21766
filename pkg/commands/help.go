package commands

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/tinyland-inc/botfleet/pkg/handler"
	"github.com/tinyland-inc/botfleet/pkg/platform"
)

// HelpCommand lists every registered command with its usage line. The
// registry is bound after construction because help itself is part of it.
type HelpCommand struct {
	prefix   string
	registry atomic.Pointer[handler.Registry]
}

func NewHelpCommand(prefix string) *HelpCommand {
	return &HelpCommand{prefix: prefix}
}

// SetRegistry binds the registry once it has been built.
func (c *HelpCommand) SetRegistry(reg *handler.Registry) {
	c.registry.Store(reg)
}

func (c *HelpCommand) Name() string    { return "help" }
func (c *HelpCommand) Version() string { return "1.0" }
func (c *HelpCommand) UsePrefix() bool { return true }
func (c *HelpCommand) Usage() string   { return "help | List available commands" }

func (c *HelpCommand) Execute(ctx context.Context, conn platform.Conn, event platform.Event, args []string) error {
	reg := c.registry.Load()
	if reg == nil {
		return fmt.Errorf("help command has no registry bound")
	}

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cmd := range reg.Commands() {
		b.WriteString("  ")
		if cmd.UsePrefix() {
			b.WriteString(c.prefix)
		}
		b.WriteString(cmd.Usage())
		b.WriteString("\n")
	}

	return conn.SendMessage(ctx, platform.Outgoing{Text: b.String()}, event.ConversationID, event.MessageID)
}

var _ handler.Command = (*HelpCommand)(nil)
