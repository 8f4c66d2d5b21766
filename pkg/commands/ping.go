package commands

import (
	"context"

	"github.com/tinyland-inc/botfleet/pkg/handler"
	"github.com/tinyland-inc/botfleet/pkg/platform"
)

// PingCommand answers "ping" with "pong", prefix or not. Handy for
// checking a bot is alive without remembering the prefix.
type PingCommand struct{}

func NewPingCommand() *PingCommand { return &PingCommand{} }

func (c *PingCommand) Name() string    { return "ping" }
func (c *PingCommand) Version() string { return "1.0" }
func (c *PingCommand) UsePrefix() bool { return false }
func (c *PingCommand) Usage() string   { return "ping | Check that the bot is responding" }

func (c *PingCommand) Execute(ctx context.Context, conn platform.Conn, event platform.Event, args []string) error {
	return conn.SendMessage(ctx, platform.Outgoing{Text: "pong"}, event.ConversationID, event.MessageID)
}

var _ handler.Command = (*PingCommand)(nil)
