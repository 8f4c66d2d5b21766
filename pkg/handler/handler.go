// Package handler defines the command and event handler contracts and the
// immutable registry the dispatcher reads them from.
package handler

import (
	"context"

	"github.com/tinyland-inc/botfleet/pkg/platform"
)

// Command reacts to user-typed text. UsePrefix commands only fire when the
// message starts with the configured prefix.
type Command interface {
	Name() string
	Version() string
	Usage() string
	UsePrefix() bool
	Execute(ctx context.Context, conn platform.Conn, event platform.Event, args []string) error
}

// EventHandler reacts to a structural platform occurrence, matched by the
// event's kind.
type EventHandler interface {
	Name() string
	Version() string
	Execute(ctx context.Context, conn platform.Conn, event platform.Event) error
}
