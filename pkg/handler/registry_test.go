package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/botfleet/pkg/platform"
)

type stubCommand struct {
	name      string
	usePrefix bool
}

func (c *stubCommand) Name() string    { return c.name }
func (c *stubCommand) Version() string { return "1.0" }
func (c *stubCommand) Usage() string   { return c.name }
func (c *stubCommand) UsePrefix() bool { return c.usePrefix }
func (c *stubCommand) Execute(context.Context, platform.Conn, platform.Event, []string) error {
	return nil
}

type stubEvent struct {
	name string
}

func (e *stubEvent) Name() string    { return e.name }
func (e *stubEvent) Version() string { return "1.0" }
func (e *stubEvent) Execute(context.Context, platform.Conn, platform.Event) error {
	return nil
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(
		[]Command{&stubCommand{name: "ping"}, &stubCommand{name: "url"}},
		[]EventHandler{&stubEvent{name: "message_reaction"}},
	)
	require.NoError(t, err)

	nCmds, nEvents := reg.Size()
	assert.Equal(t, 2, nCmds)
	assert.Equal(t, 1, nEvents)
}

func TestRegistry_RejectsDuplicateCommand(t *testing.T) {
	_, err := NewRegistry(
		[]Command{&stubCommand{name: "ping"}, &stubCommand{name: "Ping"}},
		nil,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate command")
}

func TestRegistry_RejectsDuplicateEvent(t *testing.T) {
	_, err := NewRegistry(nil, []EventHandler{
		&stubEvent{name: "participant_joined"},
		&stubEvent{name: "participant_joined"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate event")
}

func TestRegistry_RejectsEmptyName(t *testing.T) {
	_, err := NewRegistry([]Command{&stubCommand{name: ""}}, nil)
	require.Error(t, err)
}

func TestRegistry_CommandLookupIsCaseInsensitive(t *testing.T) {
	reg, err := NewRegistry([]Command{&stubCommand{name: "Greet"}}, nil)
	require.NoError(t, err)

	cmd, ok := reg.Command("GREET")
	require.True(t, ok)
	assert.Equal(t, "Greet", cmd.Name())

	_, ok = reg.Command("missing")
	assert.False(t, ok)
}

func TestRegistry_CommandsSorted(t *testing.T) {
	reg, err := NewRegistry([]Command{
		&stubCommand{name: "url"},
		&stubCommand{name: "help"},
		&stubCommand{name: "ping"},
	}, nil)
	require.NoError(t, err)

	var names []string
	for _, cmd := range reg.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Equal(t, []string{"help", "ping", "url"}, names)
}
