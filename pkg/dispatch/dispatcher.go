// Package dispatch routes each inbound event through the fixed pipeline:
// event-kind handler, then URL detection, then command resolution. Stages
// are independent; a failing handler in one stage never blocks the others.
package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/tinyland-inc/botfleet/pkg/dedup"
	"github.com/tinyland-inc/botfleet/pkg/handler"
	"github.com/tinyland-inc/botfleet/pkg/logger"
	"github.com/tinyland-inc/botfleet/pkg/platform"
)

// URLCommandName is the command the URL-detection stage delegates to.
const URLCommandName = "url"

var urlPattern = regexp.MustCompile(`https?://\S+`)

type stage func(ctx context.Context, conn platform.Conn, event platform.Event)

// Dispatcher is stateless across events apart from the shared dedup cache.
// One Dispatcher can serve every session concurrently; the registry is
// swapped atomically on reload.
type Dispatcher struct {
	registry atomic.Pointer[handler.Registry]
	dedup    *dedup.Cache
	prefix   string
	stages   []stage
}

// New builds a dispatcher over a registry, a shared dedup cache, and the
// configured command prefix.
func New(reg *handler.Registry, cache *dedup.Cache, prefix string) *Dispatcher {
	d := &Dispatcher{
		dedup:  cache,
		prefix: prefix,
	}
	d.registry.Store(reg)
	d.stages = []stage{d.eventStage, d.urlStage, d.commandStage}
	return d
}

// SwapRegistry replaces the registry for all subsequent events. In-flight
// events keep the registry they started with.
func (d *Dispatcher) SwapRegistry(reg *handler.Registry) {
	d.registry.Store(reg)
}

// Prefix returns the configured command prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Dispatch runs one event through every stage in order.
func (d *Dispatcher) Dispatch(ctx context.Context, conn platform.Conn, event platform.Event) {
	for _, st := range d.stages {
		st(ctx, conn, event)
	}
}

func (d *Dispatcher) eventStage(ctx context.Context, conn platform.Conn, event platform.Event) {
	ev, ok := d.registry.Load().Event(event.Kind)
	if !ok {
		return
	}
	d.invoke(ctx, "event", ev.Name(), func() error {
		return ev.Execute(ctx, conn, event)
	})
}

func (d *Dispatcher) urlStage(ctx context.Context, conn platform.Conn, event platform.Event) {
	if event.Body == "" {
		return
	}

	url := urlPattern.FindString(event.Body)
	if url == "" {
		return
	}

	cmd, ok := d.registry.Load().Command(URLCommandName)
	if !ok {
		return
	}

	// Add starts the suppression window; expiry is the cache's job, so the
	// key outlives the pipeline run no matter how it ends.
	if !d.dedup.Add(dedup.Key(event.ConversationID, url)) {
		return
	}

	d.invoke(ctx, "url", url, func() error {
		return cmd.Execute(ctx, conn, event, nil)
	})
}

func (d *Dispatcher) commandStage(ctx context.Context, conn platform.Conn, event platform.Event) {
	body := event.Body
	if strings.TrimSpace(body) == "" {
		return
	}

	tokens := strings.Fields(body)
	name := strings.ToLower(tokens[0])
	args := tokens[1:]

	reg := d.registry.Load()
	cmd, ok := reg.Command(name)
	if !ok && d.prefix != "" && strings.HasPrefix(body, d.prefix) {
		stripped := strings.Fields(body[len(d.prefix):])
		if len(stripped) == 0 {
			return
		}
		name = strings.ToLower(stripped[0])
		cmd, ok = reg.Command(name)
	}
	if !ok {
		return
	}

	if cmd.UsePrefix() && !strings.HasPrefix(body, d.prefix) {
		return
	}

	d.invoke(ctx, "command", cmd.Name(), func() error {
		return cmd.Execute(ctx, conn, event, args)
	})
}

// invoke runs a handler behind the isolation boundary: errors and panics
// are logged and contained so the next stage and the next event proceed
// normally.
func (d *Dispatcher) invoke(ctx context.Context, stageName, target string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("dispatch", "Handler panicked", map[string]any{
				"stage":  stageName,
				"target": target,
				"panic":  fmt.Sprintf("%v", r),
			})
		}
	}()

	if err := fn(); err != nil {
		logger.ErrorCF("dispatch", "Handler failed", map[string]any{
			"stage":  stageName,
			"target": target,
			"error":  err.Error(),
		})
	}
}
