// Package session keeps one live platform connection per account: login,
// identity resolution, owner notification, event stream attachment, and
// the retry loop that brings a dead connection back.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tinyland-inc/botfleet/pkg/accounts"
	"github.com/tinyland-inc/botfleet/pkg/dispatch"
	"github.com/tinyland-inc/botfleet/pkg/logger"
	"github.com/tinyland-inc/botfleet/pkg/platform"
)

// ErrInvalidInput is returned when an operator submits an account without
// a credential or for an unknown platform. It is surfaced to the caller
// and never retried.
var ErrInvalidInput = errors.New("invalid account input")

// Manager owns the Session collection, keyed by credential. It is the only
// writer of the account store and serializes its own persistence.
type Manager struct {
	clients    platform.ClientSet
	store      *accounts.Store
	identities *accounts.IdentityStore
	dispatcher *dispatch.Dispatcher
	ownerConvo string
	retry      RetryPolicy

	// sleep is swapped out in tests so retry timing can be observed
	// without waiting.
	sleep func(ctx context.Context, d time.Duration) bool

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

func NewManager(
	clients platform.ClientSet,
	store *accounts.Store,
	identities *accounts.IdentityStore,
	dispatcher *dispatch.Dispatcher,
	ownerConversationID string,
	retry RetryPolicy,
) *Manager {
	return &Manager{
		clients:    clients,
		store:      store,
		identities: identities,
		dispatcher: dispatcher,
		ownerConvo: ownerConversationID,
		retry:      retry,
		sleep:      sleepCtx,
		sessions:   make(map[string]*Session),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// StartAll starts a session for every persisted account. A failing account
// only affects itself.
func (m *Manager) StartAll(ctx context.Context) {
	for _, acc := range m.store.All() {
		if err := m.Start(ctx, acc); err != nil {
			logger.ErrorCF("session", "Skipping account", map[string]any{
				"platform": acc.Platform,
				"error":    err.Error(),
			})
		}
	}
}

// Start launches the connect-dispatch-reconnect loop for one account.
// Starting an account that already has a session is a no-op, so a retry
// never stacks a second listener on the same account.
func (m *Manager) Start(ctx context.Context, acc accounts.Account) error {
	if strings.TrimSpace(acc.Credential) == "" {
		return fmt.Errorf("%w: missing credential", ErrInvalidInput)
	}
	client, err := m.clients.Lookup(acc.Platform)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	m.mu.Lock()
	if existing, ok := m.sessions[acc.Credential]; ok && existing.State() != StateStopped {
		m.mu.Unlock()
		return nil
	}
	// The session outlives the caller. An account added over the HTTP API
	// must not die when the request context is cancelled; teardown happens
	// only through Stop and StopAll.
	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess := &Session{cancel: cancel}
	sess.setAccount(acc)
	m.sessions[acc.Credential] = sess
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(sessCtx, client, sess)
	return nil
}

// Stop tears down the session for a credential: the connection closes and
// no further events reach the dispatcher. Idempotent.
func (m *Manager) Stop(credential string) {
	m.mu.Lock()
	sess, ok := m.sessions[credential]
	if ok {
		delete(m.sessions, credential)
	}
	m.mu.Unlock()

	if ok {
		sess.cancel()
	}
}

// StopAll stops every session and waits for their loops to exit.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.cancel()
	}
	m.wg.Wait()
}

// RestartAll tears every session down and starts fresh ones from the
// persisted account collection.
func (m *Manager) RestartAll(ctx context.Context) {
	logger.InfoC("session", "Restarting all sessions")
	m.StopAll()
	m.StartAll(ctx)
}

// AddAccount persists a new account submitted by an operator and starts
// it immediately.
func (m *Manager) AddAccount(ctx context.Context, platformName, credential string) error {
	if strings.TrimSpace(credential) == "" {
		return fmt.Errorf("%w: missing credential", ErrInvalidInput)
	}
	if _, err := m.clients.Lookup(platformName); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	acc := accounts.Account{
		Credential: credential,
		Platform:   platformName,
		Notified:   false,
	}
	if err := m.store.Add(acc); err != nil {
		return err
	}
	return m.Start(ctx, acc)
}

// ListAccounts returns id/name summaries for every persisted account.
func (m *Manager) ListAccounts() []accounts.Summary {
	return m.store.List()
}

// BotCount reports the number of resolved identities on record.
func (m *Manager) BotCount() int {
	return m.identities.Count()
}

// Session returns the live session for a credential, if any.
func (m *Manager) Session(credential string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[credential]
	return sess, ok
}

// NotifyOwner sends text to the owner conversation through the first
// online session.
func (m *Manager) NotifyOwner(ctx context.Context, text string) error {
	if m.ownerConvo == "" {
		return errors.New("no owner conversation configured")
	}

	m.mu.Lock()
	var conn platform.Conn
	for _, sess := range m.sessions {
		if sess.State() == StateOnline {
			if c := sess.Conn(); c != nil {
				conn = c
				break
			}
		}
	}
	m.mu.Unlock()

	if conn == nil {
		return errors.New("no session online")
	}
	return conn.SendMessage(ctx, platform.Outgoing{Text: text}, m.ownerConvo, "")
}

// run is the per-session loop: authenticate, come online, feed the
// dispatcher until the stream ends, then back off and try again. Auth
// rejections, startup failures, and mid-stream drops all funnel into the
// same retry path; only context cancellation exits.
func (m *Manager) run(ctx context.Context, client platform.Client, sess *Session) {
	defer m.wg.Done()
	defer sess.setState(StateStopped)

	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		sess.setState(StateConnecting)

		conn, err := client.Authenticate(ctx, sess.Account().Credential)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			attempt++
			sess.retries.Store(int32(attempt))
			delay := m.retry.Delay(attempt)
			logger.ErrorCF("session", "Login failed", map[string]any{
				"platform": client.Name(),
				"attempt":  attempt,
				"retry_in": delay.String(),
				"error":    err.Error(),
			})
			if !m.sleep(ctx, delay) {
				return
			}
			continue
		}

		if err := m.online(ctx, sess, conn); err != nil {
			conn.Close()
			attempt++
			sess.retries.Store(int32(attempt))
			delay := m.retry.Delay(attempt)
			logger.ErrorCF("session", "Startup failed after login", map[string]any{
				"platform": client.Name(),
				"attempt":  attempt,
				"retry_in": delay.String(),
				"error":    err.Error(),
			})
			if !m.sleep(ctx, delay) {
				return
			}
			continue
		}

		attempt = 0
		sess.retries.Store(0)

		err = conn.Listen(ctx, func(ev platform.Event) {
			m.dispatcher.Dispatch(ctx, conn, ev)
		})
		conn.Close()
		sess.setConn(nil)

		if ctx.Err() != nil {
			return
		}

		// A dropped stream after a successful login re-enters the same
		// retry loop instead of leaving the session silently dead.
		attempt++
		sess.retries.Store(int32(attempt))
		delay := m.retry.Delay(attempt)
		fields := map[string]any{
			"platform": client.Name(),
			"bot_id":   sess.Account().ID,
			"retry_in": delay.String(),
		}
		if err != nil {
			fields["error"] = err.Error()
			logger.ErrorCF("session", "Event stream dropped", fields)
		} else {
			logger.WarnCF("session", "Event stream ended", fields)
		}
		if !m.sleep(ctx, delay) {
			return
		}
	}
}

// online resolves the account identity, persists it, and notifies the
// owner the first time this account ever comes up. Partial state is never
// persisted: any failure here returns before a save and funnels back into
// the retry loop.
func (m *Manager) online(ctx context.Context, sess *Session, conn platform.Conn) error {
	acc := sess.Account()

	id := conn.UserID()
	if id == "" {
		return errors.New("connection reported empty user id")
	}
	info, err := conn.UserInfo(ctx, id)
	if err != nil {
		return fmt.Errorf("resolving user info for %s: %w", id, err)
	}
	name := info.Name
	if name == "" {
		name = accounts.Unknown
	}

	if err := m.store.Update(acc.Credential, func(a *accounts.Account) {
		a.ID = id
		a.Name = name
	}); err != nil {
		return fmt.Errorf("persisting identity: %w", err)
	}
	acc.ID = id
	acc.Name = name

	if err := m.identities.Record(id, name); err != nil {
		logger.WarnCF("session", "Failed to record identity", map[string]any{
			"bot_id": id,
			"error":  err.Error(),
		})
	}

	if !acc.Notified && m.ownerConvo != "" {
		text := fmt.Sprintf("New bot online: %s (id %s)", name, id)
		if err := conn.SendMessage(ctx, platform.Outgoing{Text: text}, m.ownerConvo, ""); err != nil {
			// Leave the flag unset so the notification is attempted again
			// on the next successful start.
			logger.WarnCF("session", "Owner notification failed", map[string]any{
				"bot_id": id,
				"error":  err.Error(),
			})
		} else if err := m.store.Update(acc.Credential, func(a *accounts.Account) {
			a.Notified = true
		}); err != nil {
			return fmt.Errorf("persisting notified flag: %w", err)
		} else {
			acc.Notified = true
		}
	}

	sess.setAccount(acc)
	sess.setConn(conn)
	sess.setState(StateOnline)

	logger.InfoCF("session", "Bot online", map[string]any{
		"platform": acc.Platform,
		"bot_id":   id,
		"name":     name,
	})
	return nil
}
