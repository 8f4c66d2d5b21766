package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/tinyland-inc/botfleet/pkg/handler"
	"github.com/tinyland-inc/botfleet/pkg/platform"
)

// UptimeCommand reports how long the gateway process has been running.
type UptimeCommand struct {
	started time.Time
}

func NewUptimeCommand(started time.Time) *UptimeCommand {
	return &UptimeCommand{started: started}
}

func (c *UptimeCommand) Name() string    { return "uptime" }
func (c *UptimeCommand) Version() string { return "1.0" }
func (c *UptimeCommand) UsePrefix() bool { return true }
func (c *UptimeCommand) Usage() string   { return "uptime | Show how long the gateway has been up" }

func (c *UptimeCommand) Execute(ctx context.Context, conn platform.Conn, event platform.Event, args []string) error {
	up := time.Since(c.started).Round(time.Second)
	return conn.SendMessage(ctx, platform.Outgoing{
		Text: fmt.Sprintf("Up for %s", up),
	}, event.ConversationID, event.MessageID)
}

var _ handler.Command = (*UptimeCommand)(nil)
