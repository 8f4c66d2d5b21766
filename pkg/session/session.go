package session

import (
	"sync"
	"sync/atomic"

	"github.com/tinyland-inc/botfleet/pkg/accounts"
	"github.com/tinyland-inc/botfleet/pkg/platform"
)

// State is a session's lifecycle phase.
type State int32

const (
	// StateConnecting covers both the first login attempt and every retry.
	StateConnecting State = iota
	// StateOnline means the connection is live and events are flowing.
	StateOnline
	// StateStopped is terminal for this Session object.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOnline:
		return "online"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Session is the runtime side of one Account: the live connection plus its
// lifecycle state. The Manager exclusively owns creation and teardown.
type Session struct {
	mu      sync.Mutex
	account accounts.Account
	conn    platform.Conn

	state   atomic.Int32
	retries atomic.Int32
	cancel  func()
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Retries reports how many consecutive connection attempts have failed.
func (s *Session) Retries() int {
	return int(s.retries.Load())
}

// Account returns a snapshot of the session's account record.
func (s *Session) Account() accounts.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

func (s *Session) setAccount(acc accounts.Account) {
	s.mu.Lock()
	s.account = acc
	s.mu.Unlock()
}

// Conn returns the live connection, or nil while connecting.
func (s *Session) Conn() platform.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Session) setConn(conn platform.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}
