// Package slack adapts Slack Socket Mode to the platform contract. The
// credential blob is "bot-token|app-token" since Socket Mode needs both.
package slack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/tinyland-inc/botfleet/pkg/logger"
	"github.com/tinyland-inc/botfleet/pkg/platform"
)

type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) Name() string { return "slack" }

func (c *Client) Authenticate(ctx context.Context, credential string) (platform.Conn, error) {
	botToken, appToken, ok := strings.Cut(strings.TrimSpace(credential), "|")
	if !ok {
		return nil, fmt.Errorf("%w: slack credential must be \"bot-token|app-token\"", platform.ErrAuthFailed)
	}

	api := slackapi.New(botToken, slackapi.OptionAppLevelToken(appToken))
	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrAuthFailed, err)
	}

	return &conn{
		api:    api,
		socket: socketmode.New(api),
		selfID: auth.UserID,
	}, nil
}

type conn struct {
	api    *slackapi.Client
	socket *socketmode.Client
	selfID string
}

func (c *conn) UserID() string {
	return c.selfID
}

func (c *conn) UserInfo(ctx context.Context, id string) (platform.UserInfo, error) {
	user, err := c.api.GetUserInfoContext(ctx, id)
	if err != nil {
		return platform.UserInfo{}, err
	}
	name := user.RealName
	if name == "" {
		name = user.Name
	}
	return platform.UserInfo{Name: name}, nil
}

func (c *conn) SendMessage(ctx context.Context, msg platform.Outgoing, conversationID, replyToID string) error {
	for _, path := range msg.Files {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		_, err = c.api.UploadFileV2Context(ctx, slackapi.UploadFileV2Parameters{
			Channel:         conversationID,
			File:            path,
			Filename:        filepath.Base(path),
			FileSize:        int(info.Size()),
			InitialComment:  msg.Text,
			ThreadTimestamp: replyToID,
		})
		if err != nil {
			return fmt.Errorf("uploading %s: %w", filepath.Base(path), err)
		}
	}
	if len(msg.Files) > 0 {
		return nil
	}

	opts := []slackapi.MsgOption{slackapi.MsgOptionText(msg.Text, false)}
	if replyToID != "" {
		opts = append(opts, slackapi.MsgOptionTS(replyToID))
	}
	_, _, err := c.api.PostMessageContext(ctx, conversationID, opts...)
	return err
}

func (c *conn) SetReaction(ctx context.Context, emoji, conversationID, messageID string) error {
	name := strings.Trim(emoji, ":")
	return c.api.AddReactionContext(ctx, name, slackapi.NewRefToMessage(conversationID, messageID))
}

func (c *conn) Listen(ctx context.Context, fn func(platform.Event)) error {
	runErr := make(chan error, 1)
	go func() {
		runErr <- c.socket.RunContext(ctx)
	}()

	logger.InfoCF("slack", "Listening in socket mode", map[string]any{
		"bot_id": c.selfID,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-runErr:
			if ctx.Err() != nil {
				return nil
			}
			if err == nil {
				err = fmt.Errorf("slack socket closed")
			}
			return err
		case evt, ok := <-c.socket.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("slack event stream closed")
			}
			if evt.Type != socketmode.EventTypeEventsAPI {
				continue
			}
			if evt.Request != nil {
				c.socket.Ack(*evt.Request)
			}
			apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
			if !ok || apiEvent.Type != slackevents.CallbackEvent {
				continue
			}
			if ev, ok := c.normalize(apiEvent.InnerEvent); ok {
				fn(ev)
			}
		}
	}
}

func (c *conn) normalize(inner slackevents.EventsAPIInnerEvent) (platform.Event, bool) {
	switch ev := inner.Data.(type) {
	case *slackevents.MessageEvent:
		if ev.User == "" || ev.User == c.selfID || ev.BotID != "" || ev.Text == "" {
			return platform.Event{}, false
		}
		return platform.Event{
			Kind:           platform.EventMessage,
			ConversationID: ev.Channel,
			SenderID:       ev.User,
			Body:           ev.Text,
			MessageID:      ev.TimeStamp,
		}, true

	case *slackevents.ReactionAddedEvent:
		if ev.User == c.selfID {
			return platform.Event{}, false
		}
		return platform.Event{
			Kind:           platform.EventReaction,
			ConversationID: ev.Item.Channel,
			SenderID:       ev.User,
			MessageID:      ev.Item.Timestamp,
			Metadata:       map[string]string{"emoji": ev.Reaction},
		}, true

	case *slackevents.MemberJoinedChannelEvent:
		if ev.User == c.selfID {
			return platform.Event{}, false
		}
		return platform.Event{
			Kind:           platform.EventJoin,
			ConversationID: ev.Channel,
			SenderID:       ev.User,
		}, true
	}

	return platform.Event{}, false
}

func (c *conn) Close() error {
	// The socket goroutine exits with the Listen context.
	return nil
}
