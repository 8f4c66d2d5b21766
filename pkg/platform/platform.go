// Package platform defines the contract between the session core and a
// chat-platform SDK. Adapters live in subpackages; the core never touches
// a platform wire protocol directly.
package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Event kinds delivered by a Conn. Adapters normalize their SDK's update
// types into these.
const (
	EventMessage  = "message"
	EventReaction = "message_reaction"
	EventJoin     = "participant_joined"
)

// ErrAuthFailed wraps any SDK-level login rejection.
var ErrAuthFailed = errors.New("authentication failed")

// Event is a normalized inbound platform occurrence.
type Event struct {
	Kind           string            `json:"kind"`
	ConversationID string            `json:"conversation_id"`
	SenderID       string            `json:"sender_id,omitempty"`
	Body           string            `json:"body,omitempty"`
	MessageID      string            `json:"message_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Outgoing is a message sent back into a conversation. Files are local
// paths uploaded as attachments.
type Outgoing struct {
	Text  string
	Files []string
}

// UserInfo is the resolved profile for a platform user id.
type UserInfo struct {
	Name string
}

// Conn is one live authenticated connection.
type Conn interface {
	// UserID returns the platform id of the authenticated account.
	UserID() string

	// UserInfo resolves the display profile for a user id.
	UserInfo(ctx context.Context, id string) (UserInfo, error)

	// SendMessage delivers msg into a conversation. replyToID may be empty.
	SendMessage(ctx context.Context, msg Outgoing, conversationID, replyToID string) error

	// SetReaction attaches an emoji reaction to a message.
	SetReaction(ctx context.Context, emoji, conversationID, messageID string) error

	// Listen delivers inbound events to fn until the stream ends. It blocks;
	// a nil return means ctx was cancelled, a non-nil return means the
	// stream dropped and the caller should reconnect.
	Listen(ctx context.Context, fn func(Event)) error

	Close() error
}

// Client authenticates credentials for one platform.
type Client interface {
	Name() string
	Authenticate(ctx context.Context, credential string) (Conn, error)
}

// ClientSet maps platform name to its Client.
type ClientSet map[string]Client

// NewClientSet builds a set from clients, keyed by Name.
func NewClientSet(clients ...Client) ClientSet {
	set := make(ClientSet, len(clients))
	for _, c := range clients {
		set[c.Name()] = c
	}
	return set
}

// Lookup returns the client for a platform name.
func (s ClientSet) Lookup(name string) (Client, error) {
	c, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q (have %v)", name, s.Names())
	}
	return c, nil
}

// Names returns the registered platform names, sorted.
func (s ClientSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
