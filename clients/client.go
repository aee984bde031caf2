// Package clients holds the typed REST clients of the backend. Client is the shared
// authenticated transport: it injects the bearer token and a request id, and reports
// every 401 to the registered hooks.
package clients

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/log"
)

const RequestIDHeader = "X-Request-ID"

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// SessionGetter gives access to the stored session.
type SessionGetter interface {
	Get() (tp.Session, error)
}

type Client struct {
	client   HTTPClient
	sessions SessionGetter
	logger   log.Logger

	mu             sync.Mutex
	onUnauthorized []func()
}

func NewClient(c HTTPClient, sessions SessionGetter, logger log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		client:   c,
		sessions: sessions,
		logger:   logger,
	}
}

// NewHTTPClient returns the client used for every backend call.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// OnUnauthorized registers f to be called each time the backend answers 401.
func (c *Client) OnUnauthorized(f func()) {
	c.mu.Lock()
	c.onUnauthorized = append(c.onUnauthorized, f)
	c.mu.Unlock()
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" {
		session, err := c.sessions.Get()
		if err != nil {
			return nil, errors.New("could not read session", errors.WithCause(err))
		}
		if !session.Authenticated() {
			return nil, errors.New("not logged in", errors.Unauthorized())
		}

		token := oauth2.Token{AccessToken: session.Token, TokenType: "Bearer"}
		token.SetAuthHeader(req)
	}

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
		req.Header.Set(RequestIDHeader, requestID)
	}

	logger := c.logger.WithField("request_id", requestID)
	logger.Debugf("%s %s", req.Method, req.URL)

	res, err := c.client.Do(req)
	if err != nil {
		logger.Errorf("%s %s: %v", req.Method, req.URL, err)
		return nil, errors.New("could not reach the server", errors.WithCode(http.StatusBadGateway), errors.WithCause(&UnreachableError{Err: err}))
	}

	if res.StatusCode == http.StatusUnauthorized {
		logger.Warnf("%s %s: unauthorized, clearing session", req.Method, req.URL)
		c.unauthorized()
	}

	return res, nil
}

// UnreachableError is the cause of a request that got no response at all. A 502
// answered by the server is not one.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string { return e.Err.Error() }
func (e *UnreachableError) Unwrap() error { return e.Err }

// IsUnreachable reports whether err comes from a request that got no response.
func IsUnreachable(err error) bool {
	var e *UnreachableError
	return errors.As(err, &e)
}

func (c *Client) unauthorized() {
	c.mu.Lock()
	hooks := make([]func(), len(c.onUnauthorized))
	copy(hooks, c.onUnauthorized)
	c.mu.Unlock()

	for _, f := range hooks {
		f()
	}
}
