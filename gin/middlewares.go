package gin

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/log"
)

type HandlerFunc func(*gin.Context) (interface{}, error)

// JSONFormatter writes the result of next as JSON, or its error with the code of
// the error as status.
func JSONFormatter(next HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := next(c)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

type RenderFunc func(*gin.Context, io.Writer) error

// HTMLRenderer buffers the page written by next so that a failure can still be
// reported as a JSON error.
func HTMLRenderer(next RenderFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		buf := bytes.Buffer{}
		if err := next(c, &buf); err != nil {
			writeError(c, err)
			return
		}

		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	}
}

func writeError(c *gin.Context, err error) {
	code := errors.Code(err)
	if code < 400 || code > 599 {
		code = http.StatusInternalServerError
	}

	c.JSON(code, map[string]interface{}{
		"message": errors.Message(err),
	})
}

// Authenticator only lets requests through while a session is stored.
type Authenticator struct {
	Sessions tp.SessionStore
}

func (a *Authenticator) Authenticate(c *gin.Context) {
	session, err := a.Sessions.Get()
	if err != nil {
		writeError(c, errors.New("could not read session", errors.WithCause(err)))
		c.Abort()
		return
	}

	if !session.Authenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, map[string]interface{}{
			"message": "not logged in, run tp login first",
		})
		return
	}

	c.Set("username", session.Username)
	c.Next()
}

// sameOrigin refuses requests sent by pages of another origin, including their
// preflights, and requests addressed to a host other than the served one.
func sameOrigin(hosts []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		allowed[strings.ToLower(h)] = true
	}

	forbid := func(c *gin.Context, msg string) {
		c.AbortWithStatusJSON(http.StatusForbidden, map[string]interface{}{
			"message": msg,
		})
	}

	return func(c *gin.Context) {
		host := strings.ToLower(c.Request.Host)
		if len(allowed) > 0 && !allowed[host] {
			forbid(c, "unknown host")
			return
		}

		switch c.GetHeader("Sec-Fetch-Site") {
		case "cross-site", "same-site":
			forbid(c, "cross origin requests are not allowed")
			return
		}

		if origin := c.GetHeader("Origin"); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || u.Host == "" || strings.ToLower(u.Host) != host {
				forbid(c, "cross origin requests are not allowed")
				return
			}
		}

		c.Next()
	}
}

func requestLogger(logger log.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = log.Discard()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.
			WithField("status", c.Writer.Status()).
			WithField("duration", time.Since(start).String()).
			Debugf("%s %s", c.Request.Method, c.Request.URL.Path)
	}
}
