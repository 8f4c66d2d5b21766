package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/botfleet/pkg/accounts"
	"github.com/tinyland-inc/botfleet/pkg/dedup"
	"github.com/tinyland-inc/botfleet/pkg/dispatch"
	"github.com/tinyland-inc/botfleet/pkg/handler"
	"github.com/tinyland-inc/botfleet/pkg/platform"
	"github.com/tinyland-inc/botfleet/pkg/session"
)

type stubConn struct{}

func (stubConn) UserID() string { return "bot-1" }

func (stubConn) UserInfo(context.Context, string) (platform.UserInfo, error) {
	return platform.UserInfo{Name: "Bot"}, nil
}

func (stubConn) SendMessage(context.Context, platform.Outgoing, string, string) error { return nil }

func (stubConn) SetReaction(context.Context, string, string, string) error { return nil }

func (stubConn) Listen(ctx context.Context, _ func(platform.Event)) error {
	<-ctx.Done()
	return nil
}

func (stubConn) Close() error { return nil }

type stubClient struct{}

func (stubClient) Name() string { return "fake" }

func (stubClient) Authenticate(context.Context, string) (platform.Conn, error) {
	return stubConn{}, nil
}

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()

	store, err := accounts.NewStore(filepath.Join(t.TempDir(), "accounts.json"))
	require.NoError(t, err)
	identities := accounts.NewIdentityStore(filepath.Join(t.TempDir(), "identities.json"))

	reg, err := handler.NewRegistry(nil, nil)
	require.NoError(t, err)
	dispatcher := dispatch.New(reg, dedup.New(time.Hour), "!")

	m := session.NewManager(
		platform.NewClientSet(stubClient{}),
		store,
		identities,
		dispatcher,
		"",
		session.RetryPolicy{Initial: time.Second, Max: time.Minute},
	)
	t.Cleanup(m.StopAll)
	return m
}

// An account added over the API must stay online after the request
// context ends: the session's lifetime belongs to the manager, not to
// the HTTP request that created it.
func TestAddAccount_SessionSurvivesRequest(t *testing.T) {
	manager := newTestManager(t)
	srv := NewServer("127.0.0.1:0", manager)

	reqCtx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/add-account",
		strings.NewReader(`{"platform":"fake","credential":"tok-a"}`)).WithContext(reqCtx)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The handler has returned; net/http cancels the request context now.
	cancel()

	var sess *session.Session
	require.Eventually(t, func() bool {
		s, ok := manager.Session("tok-a")
		if !ok || s.State() != session.StateOnline {
			return false
		}
		sess = s
		return true
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, session.StateOnline, sess.State(),
		"session must not be torn down with the request")
}

func TestAddAccount_BackToBackBothOnline(t *testing.T) {
	manager := newTestManager(t)
	srv := NewServer("127.0.0.1:0", manager)

	for _, credential := range []string{"tok-a", "tok-b"} {
		req := httptest.NewRequest(http.MethodPost, "/add-account",
			strings.NewReader(`{"platform":"fake","credential":"`+credential+`"}`))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	for _, credential := range []string{"tok-a", "tok-b"} {
		require.Eventually(t, func() bool {
			s, ok := manager.Session(credential)
			return ok && s.State() == session.StateOnline
		}, 2*time.Second, 5*time.Millisecond, credential)
	}
}
