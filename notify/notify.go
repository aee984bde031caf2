// Package notify surfaces short status messages to the user, the way toasts do in a
// browser.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jeja2023/tp/log"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Message struct {
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

var prefixes = map[Level]string{
	LevelInfo:    "i",
	LevelSuccess: "✓",
	LevelWarning: "!",
	LevelError:   "✗",
}

// Notifier writes every message to out and mirrors it in the logger. It is safe for
// concurrent use.
type Notifier struct {
	out    io.Writer
	logger log.Logger

	mu   sync.Mutex
	last *Message
}

func New(out io.Writer, logger log.Logger) *Notifier {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Notifier{out: out, logger: logger}
}

func (n *Notifier) Info(format string, args ...interface{}) {
	n.notify(LevelInfo, fmt.Sprintf(format, args...))
}

func (n *Notifier) Success(format string, args ...interface{}) {
	n.notify(LevelSuccess, fmt.Sprintf(format, args...))
}

func (n *Notifier) Warning(format string, args ...interface{}) {
	n.notify(LevelWarning, fmt.Sprintf(format, args...))
}

func (n *Notifier) Error(format string, args ...interface{}) {
	n.notify(LevelError, fmt.Sprintf(format, args...))
}

// Last returns the most recent message, if any.
func (n *Notifier) Last() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.last == nil {
		return Message{}, false
	}
	return *n.last, true
}

func (n *Notifier) notify(level Level, text string) {
	msg := Message{Level: level, Text: text, At: time.Now()}

	n.mu.Lock()
	n.last = &msg
	fmt.Fprintf(n.out, "%s %s\n", prefixes[level], text)
	n.mu.Unlock()

	l := n.logger.WithField("notification", string(level))
	switch level {
	case LevelError:
		l.Error(text)
	case LevelWarning:
		l.Warn(text)
	default:
		l.Debugf("%s", text)
	}
}
