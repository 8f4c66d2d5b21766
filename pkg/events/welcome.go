// Package events holds the built-in event handlers loaded into the
// registry at startup. Each handler's name is the event kind it reacts to.
package events

import (
	"context"
	"fmt"

	"github.com/tinyland-inc/botfleet/pkg/handler"
	"github.com/tinyland-inc/botfleet/pkg/platform"
)

// WelcomeEvent greets a participant when they join a conversation the bot
// is in.
type WelcomeEvent struct{}

func NewWelcomeEvent() *WelcomeEvent { return &WelcomeEvent{} }

func (e *WelcomeEvent) Name() string    { return platform.EventJoin }
func (e *WelcomeEvent) Version() string { return "1.0" }

func (e *WelcomeEvent) Execute(ctx context.Context, conn platform.Conn, event platform.Event) error {
	who := event.Metadata["joined_name"]
	if who == "" {
		who = event.SenderID
	}
	if who == "" || who == conn.UserID() {
		return nil
	}

	return conn.SendMessage(ctx, platform.Outgoing{
		Text: fmt.Sprintf("Welcome, %s!", who),
	}, event.ConversationID, "")
}

var _ handler.EventHandler = (*WelcomeEvent)(nil)
