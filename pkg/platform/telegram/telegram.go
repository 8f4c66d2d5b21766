// Package telegram adapts the Telegram Bot API (long polling) to the
// platform contract. The credential blob is the bot token.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/tinyland-inc/botfleet/pkg/logger"
	"github.com/tinyland-inc/botfleet/pkg/platform"
)

type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) Name() string { return "telegram" }

func (c *Client) Authenticate(ctx context.Context, credential string) (platform.Conn, error) {
	bot, err := telego.NewBot(strings.TrimSpace(credential))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrAuthFailed, err)
	}

	me, err := bot.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrAuthFailed, err)
	}

	return &conn{bot: bot, me: me}, nil
}

type conn struct {
	bot *telego.Bot
	me  *telego.User
}

func (c *conn) UserID() string {
	return strconv.FormatInt(c.me.ID, 10)
}

func (c *conn) UserInfo(ctx context.Context, id string) (platform.UserInfo, error) {
	if id == c.UserID() {
		name := c.me.Username
		if name == "" {
			name = c.me.FirstName
		}
		return platform.UserInfo{Name: name}, nil
	}

	chatID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return platform.UserInfo{}, fmt.Errorf("invalid telegram id %q: %w", id, err)
	}
	chat, err := c.bot.GetChat(ctx, &telego.GetChatParams{ChatID: tu.ID(chatID)})
	if err != nil {
		return platform.UserInfo{}, err
	}
	name := chat.Username
	if name == "" {
		name = strings.TrimSpace(chat.FirstName + " " + chat.LastName)
	}
	return platform.UserInfo{Name: name}, nil
}

func (c *conn) SendMessage(ctx context.Context, msg platform.Outgoing, conversationID, replyToID string) error {
	chatID, err := strconv.ParseInt(conversationID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", conversationID, err)
	}

	var replyParams *telego.ReplyParameters
	if replyToID != "" {
		if mid, err := strconv.Atoi(replyToID); err == nil {
			replyParams = &telego.ReplyParameters{MessageID: mid}
		}
	}

	if len(msg.Files) > 0 {
		return c.sendFiles(ctx, chatID, msg, replyParams)
	}

	params := tu.Message(tu.ID(chatID), msg.Text)
	params.ReplyParameters = replyParams
	_, err = c.bot.SendMessage(ctx, params)
	return err
}

// sendFiles picks the upload method by extension, captioning the first
// file with the message text.
func (c *conn) sendFiles(ctx context.Context, chatID int64, msg platform.Outgoing, replyParams *telego.ReplyParameters) error {
	for i, path := range msg.Files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}

		caption := ""
		if i == 0 {
			caption = msg.Text
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg", ".png", ".gif", ".webp":
			params := tu.Photo(tu.ID(chatID), tu.File(f))
			params.Caption = caption
			params.ReplyParameters = replyParams
			_, err = c.bot.SendPhoto(ctx, params)
		case ".mp4", ".mov", ".avi", ".mkv":
			params := tu.Video(tu.ID(chatID), tu.File(f))
			params.Caption = caption
			params.ReplyParameters = replyParams
			_, err = c.bot.SendVideo(ctx, params)
		default:
			params := tu.Document(tu.ID(chatID), tu.File(f))
			params.Caption = caption
			params.ReplyParameters = replyParams
			_, err = c.bot.SendDocument(ctx, params)
		}
		f.Close()

		if err != nil {
			return fmt.Errorf("sending %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func (c *conn) SetReaction(ctx context.Context, emoji, conversationID, messageID string) error {
	chatID, err := strconv.ParseInt(conversationID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", conversationID, err)
	}
	mid, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid telegram message id %q: %w", messageID, err)
	}

	return c.bot.SetMessageReaction(ctx, &telego.SetMessageReactionParams{
		ChatID:    tu.ID(chatID),
		MessageID: mid,
		Reaction: []telego.ReactionType{
			&telego.ReactionTypeEmoji{Type: telego.ReactionEmoji, Emoji: emoji},
		},
	})
}

func (c *conn) Listen(ctx context.Context, fn func(platform.Event)) error {
	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{Timeout: 30})
	if err != nil {
		return fmt.Errorf("starting long polling: %w", err)
	}

	logger.InfoCF("telegram", "Listening for updates", map[string]any{
		"bot": c.me.Username,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram update stream closed")
			}
			for _, ev := range c.normalize(update) {
				fn(ev)
			}
		}
	}
}

// normalize maps one Telegram update to zero or more platform events.
// A message listing new chat members yields a join event per member in
// addition to the message itself.
func (c *conn) normalize(update telego.Update) []platform.Event {
	var events []platform.Event

	if m := update.Message; m != nil {
		convo := strconv.FormatInt(m.Chat.ID, 10)

		for _, member := range m.NewChatMembers {
			if member.ID == c.me.ID {
				continue
			}
			events = append(events, platform.Event{
				Kind:           platform.EventJoin,
				ConversationID: convo,
				SenderID:       strconv.FormatInt(member.ID, 10),
				Metadata:       map[string]string{"joined_name": memberName(member)},
			})
		}

		body := m.Text
		if body == "" {
			body = m.Caption
		}
		if body != "" && m.From != nil && m.From.ID != c.me.ID {
			events = append(events, platform.Event{
				Kind:           platform.EventMessage,
				ConversationID: convo,
				SenderID:       strconv.FormatInt(m.From.ID, 10),
				Body:           body,
				MessageID:      strconv.Itoa(m.MessageID),
			})
		}
	}

	if r := update.MessageReaction; r != nil && r.User != nil && r.User.ID != c.me.ID {
		events = append(events, platform.Event{
			Kind:           platform.EventReaction,
			ConversationID: strconv.FormatInt(r.Chat.ID, 10),
			SenderID:       strconv.FormatInt(r.User.ID, 10),
			MessageID:      strconv.Itoa(r.MessageID),
		})
	}

	return events
}

func memberName(u telego.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

func (c *conn) Close() error {
	// Long polling stops with the Listen context.
	return nil
}
