// Package discord adapts the Discord gateway to the platform contract.
// The credential blob is the bot token. Conversations map to channel ids.
package discord

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tinyland-inc/botfleet/pkg/logger"
	"github.com/tinyland-inc/botfleet/pkg/platform"
)

type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) Name() string { return "discord" }

func (c *Client) Authenticate(ctx context.Context, credential string) (platform.Conn, error) {
	session, err := discordgo.New("Bot " + strings.TrimSpace(credential))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrAuthFailed, err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrAuthFailed, err)
	}
	if session.State.User == nil {
		session.Close()
		return nil, fmt.Errorf("%w: gateway ready without user state", platform.ErrAuthFailed)
	}

	return &conn{session: session, selfID: session.State.User.ID}, nil
}

type conn struct {
	session *discordgo.Session
	selfID  string
}

func (c *conn) UserID() string {
	return c.selfID
}

func (c *conn) UserInfo(ctx context.Context, id string) (platform.UserInfo, error) {
	user, err := c.session.User(id)
	if err != nil {
		return platform.UserInfo{}, err
	}
	return platform.UserInfo{Name: user.Username}, nil
}

func (c *conn) SendMessage(ctx context.Context, msg platform.Outgoing, conversationID, replyToID string) error {
	send := &discordgo.MessageSend{Content: msg.Text}
	if replyToID != "" {
		send.Reference = &discordgo.MessageReference{
			MessageID: replyToID,
			ChannelID: conversationID,
		}
	}

	var open []*os.File
	defer func() {
		for _, f := range open {
			f.Close()
		}
	}()
	for _, path := range msg.Files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		open = append(open, f)
		send.Files = append(send.Files, &discordgo.File{
			Name:   filepath.Base(path),
			Reader: f,
		})
	}

	_, err := c.session.ChannelMessageSendComplex(conversationID, send)
	return err
}

func (c *conn) SetReaction(ctx context.Context, emoji, conversationID, messageID string) error {
	return c.session.MessageReactionAdd(conversationID, messageID, emoji)
}

// Listen registers gateway handlers for the duration of the call. The
// discordgo session reconnects internally, so only context cancellation
// ends the stream.
func (c *conn) Listen(ctx context.Context, fn func(platform.Event)) error {
	removeMessage := c.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.ID == c.selfID || m.Content == "" {
			return
		}
		fn(platform.Event{
			Kind:           platform.EventMessage,
			ConversationID: m.ChannelID,
			SenderID:       m.Author.ID,
			Body:           m.Content,
			MessageID:      m.ID,
		})
	})
	defer removeMessage()

	removeReaction := c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.UserID == c.selfID {
			return
		}
		fn(platform.Event{
			Kind:           platform.EventReaction,
			ConversationID: r.ChannelID,
			SenderID:       r.UserID,
			MessageID:      r.MessageID,
			Metadata:       map[string]string{"emoji": r.Emoji.Name},
		})
	})
	defer removeReaction()

	logger.InfoCF("discord", "Listening for gateway events", map[string]any{
		"bot_id": c.selfID,
	})

	<-ctx.Done()
	return nil
}

func (c *conn) Close() error {
	return c.session.Close()
}
