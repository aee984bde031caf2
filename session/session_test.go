package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/clients"
	authClient "github.com/jeja2023/tp/clients/auth"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/mock"
	"github.com/jeja2023/tp/notify"
	"github.com/jeja2023/tp/state"
)

func storedSession(store *mock.SessionStore) tp.Session {
	s, _ := store.Get()
	return s
}

type mockAuth struct {
	token    string
	tokenErr error
	me       tp.User
	meErr    error

	meCalls     int
	registered  []tp.Registration
	registerErr error
}

func (a *mockAuth) Token(ctx context.Context, username, password string) (string, error) {
	return a.token, a.tokenErr
}

func (a *mockAuth) Register(ctx context.Context, r tp.Registration) (tp.User, error) {
	a.registered = append(a.registered, r)
	return tp.User{Username: r.Username}, a.registerErr
}

func (a *mockAuth) Me(ctx context.Context) (tp.User, error) {
	a.meCalls++
	return a.me, a.meErr
}

func signed(t *testing.T, exp time.Time) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func createManager(store *mock.SessionStore, auth *mockAuth) (*Manager, *state.App) {
	app := state.New()
	return NewManager(store, auth, app, notify.New(nil, nil), nil), app
}

func TestManager_CheckAuthStatus(t *testing.T) {
	now := time.Now()

	tts := map[string]struct {
		session tp.Session
		me      tp.User
		meErr   error

		view    View
		err     bool
		meCalls int
		cleared bool
	}{
		"no token": {
			session: tp.Session{},
			view:    ViewLogin,
		},
		"expired jwt": {
			session: tp.Session{Token: signed(t, now.Add(-time.Hour)), Username: "alice"},
			view:    ViewLogin,
			cleared: true,
		},
		"valid jwt": {
			session: tp.Session{Token: signed(t, now.Add(time.Hour)), Username: "alice"},
			me:      tp.User{ID: 1, Username: "alice"},
			view:    ViewMain,
			meCalls: 1,
		},
		"opaque token": {
			session: tp.Session{Token: "opaque", Username: "alice"},
			me:      tp.User{ID: 1, Username: "alice"},
			view:    ViewMain,
			meCalls: 1,
		},
		"rejected by server": {
			session: tp.Session{Token: "opaque", Username: "alice"},
			meErr:   errors.New("Could not validate credentials", errors.Unauthorized()),
			view:    ViewLogin,
			meCalls: 1,
			cleared: true,
		},
		"server error": {
			session: tp.Session{Token: "opaque", Username: "alice"},
			meErr:   errors.New("boom"),
			view:    ViewLogin,
			meCalls: 1,
			cleared: true,
		},
		"server unreachable": {
			session: tp.Session{Token: "opaque", Username: "alice"},
			meErr: errors.New("could not reach the server",
				errors.WithCode(http.StatusBadGateway),
				errors.WithCause(&clients.UnreachableError{Err: errors.New("connection refused")})),
			view:    ViewLogin,
			err:     true,
			meCalls: 1,
		},
		"bad gateway answered": {
			session: tp.Session{Token: "opaque", Username: "alice"},
			meErr:   errors.New("upstream down", errors.WithCode(http.StatusBadGateway)),
			view:    ViewLogin,
			meCalls: 1,
			cleared: true,
		},
	}

	for name, tt := range tts {
		store := mock.NewSessionStore(tt.session)
		auth := &mockAuth{me: tt.me, meErr: tt.meErr}
		manager, app := createManager(store, auth)

		view, err := manager.CheckAuthStatus(context.Background())
		assert.Equal(t, tt.view, view, name)
		assert.Equal(t, tt.err, err != nil, name)
		assert.Equal(t, tt.meCalls, auth.meCalls, name)
		assert.Equal(t, tt.cleared, store.Cleared > 0, name)

		_, hasUser := app.CurrentUser()
		assert.Equal(t, tt.view == ViewMain, hasUser, name)
	}
}

func TestManager_CheckAuthStatus_Backend(t *testing.T) {
	tts := map[string]struct {
		down    bool
		cleared bool
		err     bool
	}{
		"502 answered": {cleared: true},
		"no response":  {down: true, err: true},
	}

	for name, tt := range tts {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"detail": "upstream down"}`))
		}))
		if tt.down {
			server.Close()
		}

		store := mock.NewSessionStore(tp.Session{Token: "opaque", Username: "alice"})
		client := clients.NewClient(http.DefaultClient, store, nil)
		auth := authClient.NewClient(client, http.DefaultClient, server.URL)
		manager := NewManager(store, auth, state.New(), notify.New(nil, nil), nil)

		view, err := manager.CheckAuthStatus(context.Background())
		if !tt.down {
			server.Close()
		}

		assert.Equal(t, ViewLogin, view, name)
		assert.Equal(t, tt.err, err != nil, name)
		assert.Equal(t, tt.cleared, store.Cleared > 0, name)
		if !tt.cleared {
			assert.Equal(t, "opaque", storedSession(store).Token, name)
		}
	}
}

func TestManager_CheckAuthStatus_UpdatesUsername(t *testing.T) {
	store := mock.NewSessionStore(tp.Session{Token: "opaque", Username: "Alice"})
	manager, _ := createManager(store, &mockAuth{me: tp.User{ID: 1, Username: "alice"}})

	view, err := manager.CheckAuthStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ViewMain, view)
	assert.Equal(t, "alice", manager.Username())
}

func TestManager_Login(t *testing.T) {
	tts := map[string]struct {
		username string
		password string
		token    string
		tokenErr error

		view View
		code int
	}{
		"success": {
			username: " alice ",
			password: "secret",
			token:    "abc",
			view:     ViewMain,
		},
		"missing password": {
			username: "alice",
			view:     ViewLogin,
			code:     400,
		},
		"wrong credentials": {
			username: "alice",
			password: "nope",
			tokenErr: errors.New("Incorrect username or password", errors.Unauthorized()),
			view:     ViewLogin,
			code:     401,
		},
	}

	for name, tt := range tts {
		store := &mock.SessionStore{}
		manager, _ := createManager(store, &mockAuth{token: tt.token, tokenErr: tt.tokenErr})

		view, err := manager.Login(context.Background(), tt.username, tt.password)
		assert.Equal(t, tt.view, view, name)

		if tt.code != 0 {
			require.Error(t, err, name)
			errors.AssertCode(t, err, tt.code)
			assert.False(t, storedSession(store).Authenticated(), name)
			continue
		}

		require.NoError(t, err, name)
		assert.Equal(t, tp.Session{Token: tt.token, Username: "alice"}, storedSession(store), name)
	}
}

func TestManager_LoginFailureMessage(t *testing.T) {
	notifier := notify.New(nil, nil)
	manager := NewManager(&mock.SessionStore{}, &mockAuth{tokenErr: errors.New("bad", errors.Unauthorized())}, state.New(), notifier, nil)

	_, err := manager.Login(context.Background(), "alice", "nope")
	require.Error(t, err)
	assert.Equal(t, loginFailed, errors.Message(err))

	msg, ok := notifier.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, msg.Level)
	assert.Equal(t, loginFailed, msg.Text)
}

func TestManager_Register(t *testing.T) {
	tts := map[string]struct {
		reg     tp.Registration
		confirm string
		err     error

		view View
		code int
		sent int
	}{
		"success": {
			reg:     tp.Registration{Username: "carol", Password: "pw", Email: "c@x.io"},
			confirm: "pw",
			view:    ViewLogin,
			sent:    1,
		},
		"mismatch": {
			reg:     tp.Registration{Username: "carol", Password: "pw"},
			confirm: "other",
			view:    ViewRegister,
			code:    400,
		},
		"missing username": {
			reg:     tp.Registration{Password: "pw"},
			confirm: "pw",
			view:    ViewRegister,
			code:    400,
		},
		"taken": {
			reg:     tp.Registration{Username: "carol", Password: "pw"},
			confirm: "pw",
			err:     errors.New("Username already registered", errors.BadRequest()),
			view:    ViewRegister,
			code:    400,
			sent:    1,
		},
	}

	for name, tt := range tts {
		auth := &mockAuth{registerErr: tt.err}
		manager, _ := createManager(&mock.SessionStore{}, auth)

		view, err := manager.Register(context.Background(), tt.reg, tt.confirm)
		assert.Equal(t, tt.view, view, name)
		assert.Len(t, auth.registered, tt.sent, name)
		if tt.code != 0 {
			errors.AssertCode(t, err, tt.code)
		} else {
			assert.NoError(t, err, name)
		}
	}
}

func TestManager_Logout(t *testing.T) {
	store := mock.NewSessionStore(tp.Session{Token: "abc", Username: "alice"})
	manager, app := createManager(store, &mockAuth{})
	app.SetCurrentUser(tp.User{Username: "alice"})
	app.SetCurrentTask(tp.Task{ID: 1})

	require.NoError(t, manager.Logout())

	assert.False(t, storedSession(store).Authenticated())
	_, ok := app.CurrentTask()
	assert.False(t, ok)

	view, err := manager.CheckAuthStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ViewLogin, view)
}

func TestManager_Invalidate(t *testing.T) {
	store := mock.NewSessionStore(tp.Session{Token: "abc", Username: "alice"})
	manager, app := createManager(store, &mockAuth{})
	app.SetCurrentTask(tp.Task{ID: 1})

	manager.Invalidate()

	assert.Equal(t, 1, store.Cleared)
	_, ok := app.CurrentTask()
	assert.False(t, ok)
}

func TestManager_CheckIsAdmin(t *testing.T) {
	auth := &mockAuth{me: tp.User{ID: 1, Username: "root", IsAdmin: true}}
	manager, _ := createManager(&mock.SessionStore{}, auth)

	admin, err := manager.CheckIsAdmin(context.Background())
	require.NoError(t, err)
	assert.True(t, admin)

	admin, err = manager.CheckIsAdmin(context.Background())
	require.NoError(t, err)
	assert.True(t, admin)
	assert.Equal(t, 1, auth.meCalls, "the current user is reused")
}
