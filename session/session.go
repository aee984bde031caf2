// Package session owns the authentication state and decides which top-level view is
// shown: login, registration or the main view.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/clients"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/log"
	"github.com/jeja2023/tp/notify"
	"github.com/jeja2023/tp/state"
)

type View string

const (
	ViewLogin    View = "login"
	ViewRegister View = "register"
	ViewMain     View = "main"
)

const loginFailed = "login failed, check username and password"

type AuthClient interface {
	Token(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, r tp.Registration) (tp.User, error)
	Me(ctx context.Context) (tp.User, error)
}

type Manager struct {
	store    tp.SessionStore
	auth     AuthClient
	app      *state.App
	notifier *notify.Notifier
	logger   log.Logger

	now func() time.Time
}

func NewManager(store tp.SessionStore, auth AuthClient, app *state.App, notifier *notify.Notifier, logger log.Logger) *Manager {
	if notifier == nil {
		notifier = notify.New(nil, logger)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		store:    store,
		auth:     auth,
		app:      app,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckAuthStatus validates the stored session. A missing or expired token gives the
// login view without calling the backend. A token rejected by /users/me is wiped.
func (m *Manager) CheckAuthStatus(ctx context.Context) (View, error) {
	session, err := m.store.Get()
	if err != nil {
		return ViewLogin, errors.New("could not read session", errors.WithCause(err))
	}

	if !session.Authenticated() {
		return ViewLogin, nil
	}

	if m.expired(session.Token) {
		m.logger.Printf("token of %s expired", session.Username)
		m.clear()
		return ViewLogin, nil
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		if clients.IsUnreachable(err) {
			// The server could not be reached: keep the session for the next try.
			return ViewLogin, err
		}

		m.logger.Printf("session of %s rejected: %v", session.Username, err)
		m.clear()
		return ViewLogin, nil
	}

	if user.Username != "" && user.Username != session.Username {
		session.Username = user.Username
		if err := m.store.Save(session); err != nil {
			m.logger.Errorf("could not save username: %v", err)
		}
	}

	m.app.SetCurrentUser(user)
	return ViewMain, nil
}

// Login runs a single password grant. Nothing is retried.
func (m *Manager) Login(ctx context.Context, username, password string) (View, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		err := errors.New("username and password are required", errors.BadRequest())
		m.notifier.Error("%s", errors.Message(err))
		return ViewLogin, err
	}

	token, err := m.auth.Token(ctx, username, password)
	if err != nil {
		m.logger.Errorf("login of %s failed: %v", username, err)
		m.notifier.Error(loginFailed)
		return ViewLogin, errors.New(loginFailed, errors.WithCode(errors.Code(err)), errors.WithCause(err))
	}

	if err := m.store.Save(tp.Session{Token: token, Username: username}); err != nil {
		return ViewLogin, errors.New("could not save session", errors.WithCause(err))
	}

	m.app.SetCurrentUser(tp.User{Username: username})
	m.notifier.Success("welcome, %s", username)
	return ViewMain, nil
}

// Register creates an account. The user logs in afterwards.
func (m *Manager) Register(ctx context.Context, r tp.Registration, confirm string) (View, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	var invalid string
	switch {
	case r.Username == "" || r.Password == "":
		invalid = "username and password are required"
	case r.Password != confirm:
		invalid = "passwords do not match"
	}
	if invalid != "" {
		m.notifier.Error("%s", invalid)
		return ViewRegister, errors.New(invalid, errors.BadRequest())
	}

	if _, err := m.auth.Register(ctx, r); err != nil {
		m.notifier.Error("registration failed: %s", errors.Message(err))
		return ViewRegister, errors.New("registration failed", errors.WithCode(errors.Code(err)), errors.WithCause(err))
	}

	m.notifier.Success("account %s created, please log in", r.Username)
	return ViewLogin, nil
}

// Logout wipes the credentials and every current reference of the app state.
func (m *Manager) Logout() error {
	if err := m.store.Clear(); err != nil {
		return errors.New("could not clear session", errors.WithCause(err))
	}
	m.app.Reset()
	m.notifier.Info("logged out")
	return nil
}

// Invalidate is called when the backend rejects the token.
func (m *Manager) Invalidate() {
	m.clear()
	m.notifier.Warning("session expired, please log in again")
}

// CheckIsAdmin reports whether the logged in user is an administrator.
func (m *Manager) CheckIsAdmin(ctx context.Context) (bool, error) {
	if user, ok := m.app.CurrentUser(); ok && user.ID != 0 {
		return user.IsAdmin, nil
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		return false, err
	}
	m.app.SetCurrentUser(user)
	return user.IsAdmin, nil
}

// Username returns the name stored with the session.
func (m *Manager) Username() string {
	session, err := m.store.Get()
	if err != nil {
		return ""
	}
	return session.Username
}

func (m *Manager) clear() {
	if err := m.store.Clear(); err != nil {
		m.logger.Errorf("could not clear session: %v", err)
	}
	m.app.Reset()
}

// expired reports whether token is a JWT whose exp claim is in the past. Tokens that
// are not JWTs are left for the backend to judge.
func (m *Manager) expired(token string) bool {
	parsed, _, err := new(jwt.Parser).ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	return !claims.VerifyExpiresAt(m.now().Unix(), false)
}
