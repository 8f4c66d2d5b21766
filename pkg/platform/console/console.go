// Package console is a local development adapter: messages are typed on
// stdin and replies printed to stdout. Any non-empty credential passes.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/tinyland-inc/botfleet/pkg/platform"
)

const conversationID = "console"

type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) Name() string { return "console" }

func (c *Client) Authenticate(ctx context.Context, credential string) (platform.Conn, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, fmt.Errorf("%w: empty console credential", platform.ErrAuthFailed)
	}

	rl, err := readline.New("> ")
	if err != nil {
		return nil, fmt.Errorf("initializing readline: %w", err)
	}
	return &conn{rl: rl}, nil
}

type conn struct {
	rl *readline.Instance
}

func (c *conn) UserID() string {
	return "console-bot"
}

func (c *conn) UserInfo(ctx context.Context, id string) (platform.UserInfo, error) {
	return platform.UserInfo{Name: id}, nil
}

func (c *conn) SendMessage(ctx context.Context, msg platform.Outgoing, conversationID, replyToID string) error {
	if msg.Text != "" {
		fmt.Fprintf(c.rl.Stdout(), "[%s] %s\n", conversationID, msg.Text)
	}
	for _, path := range msg.Files {
		fmt.Fprintf(c.rl.Stdout(), "[%s] <file: %s>\n", conversationID, path)
	}
	return nil
}

func (c *conn) SetReaction(ctx context.Context, emoji, conversationID, messageID string) error {
	fmt.Fprintf(c.rl.Stdout(), "[%s] reacted %s to %s\n", conversationID, emoji, messageID)
	return nil
}

func (c *conn) Listen(ctx context.Context, fn func(platform.Event)) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := c.rl.Readline()
			if err != nil {
				// Ctrl-C or EOF ends the console session.
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return
				}
				return
			}
			lines <- line
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			fn(platform.Event{
				Kind:           platform.EventMessage,
				ConversationID: conversationID,
				SenderID:       "operator",
				Body:           line,
				MessageID:      uuid.New().String(),
			})
		}
	}
}

func (c *conn) Close() error {
	return c.rl.Close()
}
