// Package state holds the application state shared by the controllers: who is
// logged in, which task is open, and which requests are still current.
package state

import (
	"sync"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
)

// ErrStale is returned by loaders whose result was superseded by a newer request.
var ErrStale = errors.New("superseded by a newer request", errors.Conflict())

// App is safe for concurrent use.
type App struct {
	mu   sync.RWMutex
	user *tp.User
	task *tp.Task

	Seq *Sequencer
}

func New() *App {
	return &App{Seq: NewSequencer()}
}

func (a *App) CurrentUser() (tp.User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.user == nil {
		return tp.User{}, false
	}
	return *a.user, true
}

func (a *App) SetCurrentUser(u tp.User) {
	a.mu.Lock()
	a.user = &u
	a.mu.Unlock()
}

func (a *App) CurrentTask() (tp.Task, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.task == nil {
		return tp.Task{}, false
	}
	return *a.task, true
}

func (a *App) SetCurrentTask(t tp.Task) {
	a.mu.Lock()
	a.task = &t
	a.mu.Unlock()
}

// ClearTask forgets the current task if it is id.
func (a *App) ClearTask(id int) {
	a.mu.Lock()
	if a.task != nil && a.task.ID == id {
		a.task = nil
	}
	a.mu.Unlock()
}

// Reset drops every current reference and invalidates all in-flight requests.
func (a *App) Reset() {
	a.mu.Lock()
	a.user = nil
	a.task = nil
	a.mu.Unlock()

	a.Seq.Reset()
}
