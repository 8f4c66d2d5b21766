package handler

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is the immutable name-to-handler mapping shared by all
// dispatchers. Rebuilding is "construct a new one, swap the reference";
// there is no in-place mutation after NewRegistry returns.
type Registry struct {
	commands map[string]Command
	events   map[string]EventHandler
}

// NewRegistry indexes commands and events by lowercased name. A duplicate
// name is a configuration bug and is rejected rather than silently
// overwritten.
func NewRegistry(commands []Command, events []EventHandler) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]Command, len(commands)),
		events:   make(map[string]EventHandler, len(events)),
	}

	for _, cmd := range commands {
		name := strings.ToLower(cmd.Name())
		if name == "" {
			return nil, fmt.Errorf("command with empty name")
		}
		if _, exists := r.commands[name]; exists {
			return nil, fmt.Errorf("duplicate command name %q", name)
		}
		r.commands[name] = cmd
	}

	for _, ev := range events {
		name := ev.Name()
		if name == "" {
			return nil, fmt.Errorf("event handler with empty name")
		}
		if _, exists := r.events[name]; exists {
			return nil, fmt.Errorf("duplicate event handler name %q", name)
		}
		r.events[name] = ev
	}

	return r, nil
}

// Command looks up a command by name, case-insensitively.
func (r *Registry) Command(name string) (Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Event looks up an event handler by the event kind it is registered under.
func (r *Registry) Event(kind string) (EventHandler, bool) {
	ev, ok := r.events[kind]
	return ev, ok
}

// Commands returns all registered commands sorted by name.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Size reports (commands, events) counts for startup logging.
func (r *Registry) Size() (int, int) {
	return len(r.commands), len(r.events)
}
