// Package tasks drives the task list: loading with per-row permissions, the task
// mutations and the sharing of a task with other users.
package tasks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/log"
	"github.com/jeja2023/tp/notify"
	"github.com/jeja2023/tp/state"
)

const (
	seqTasks = "tasks"
	seqOpen  = "open"

	permissionWorkers = 8
)

type Client interface {
	List(ctx context.Context) ([]tp.Task, error)
	Get(ctx context.Context, id int) (tp.Task, error)
	Create(ctx context.Context, in tp.TaskInput) (tp.Task, error)
	Update(ctx context.Context, id int, in tp.TaskInput) (tp.Task, error)
	Delete(ctx context.Context, id int) error
	Images(ctx context.Context, id int) ([]tp.Image, error)
	UserPermission(ctx context.Context, id int) (tp.UserPermission, error)
	Permissions(ctx context.Context, id int) ([]tp.Permission, error)
	Share(ctx context.Context, id int, username string, perm tp.PermissionType) error
	Revoke(ctx context.Context, id int, username string) error
}

// Row is one line of the task table.
type Row struct {
	Task       tp.Task
	Permission tp.UserPermission
	Actions    []Action
}

func (r Row) Can(a Action) bool {
	for _, action := range r.Actions {
		if action == a {
			return true
		}
	}
	return false
}

// PermissionEntry is a share of a task as listed to the current user.
type PermissionEntry struct {
	tp.Permission
	Revocable bool
}

type Controller struct {
	client   Client
	repo     tp.TaskRepository
	index    tp.TaskIndex
	app      *state.App
	notifier *notify.Notifier
	logger   log.Logger

	mu   sync.RWMutex
	rows []Row
}

// NewController returns a controller. repo and index may be nil, in which case no
// local cache is kept and Search is unavailable.
func NewController(client Client, repo tp.TaskRepository, index tp.TaskIndex, app *state.App, notifier *notify.Notifier, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.Discard()
	}
	if notifier == nil {
		notifier = notify.New(nil, logger)
	}
	return &Controller{
		client:   client,
		repo:     repo,
		index:    index,
		app:      app,
		notifier: notifier,
		logger:   logger,
	}
}

// LoadTasks fetches the task list, newest first, with the actions allowed on each
// task. A row whose permission cannot be fetched is view-only. The result of a call
// superseded by a newer one is dropped with state.ErrStale.
func (c *Controller) LoadTasks(ctx context.Context) ([]Row, error) {
	ticket := c.app.Seq.Next(seqTasks)

	list, err := c.client.List(ctx)
	if err != nil {
		c.notifier.Error("could not load tasks: %s", errors.Message(err))
		return nil, err
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt.Time)
	})

	rows := make([]Row, len(list))
	for i, task := range list {
		rows[i] = Row{Task: task}
	}
	c.fetchPermissions(ctx, rows)

	if !c.app.Seq.IsLatest(seqTasks, ticket) {
		return nil, state.ErrStale
	}

	c.mu.Lock()
	c.rows = rows
	c.mu.Unlock()

	c.cache(list)
	return rows, nil
}

func (c *Controller) fetchPermissions(ctx context.Context, rows []Row) {
	sem := make(chan struct{}, permissionWorkers)
	var wg sync.WaitGroup

	for i := range rows {
		wg.Add(1)
		go func(row *Row) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			perm, err := c.client.UserPermission(ctx, row.Task.ID)
			if err != nil {
				c.logger.Warnf("permission of task %d unavailable: %v", row.Task.ID, err)
				perm = tp.UserPermission{}
			}
			row.Permission = perm
			row.Actions = ActionsFor(perm)
		}(&rows[i])
	}

	wg.Wait()
}

// cache mirrors the list in the local store and index. Failures only cost offline
// search, so they are logged.
func (c *Controller) cache(list []tp.Task) {
	if c.repo == nil {
		return
	}

	cached, err := c.repo.List()
	if err != nil {
		c.logger.Errorf("could not list cached tasks: %v", err)
	}
	seen := make(map[int]bool, len(list))

	for i := range list {
		task := list[i]
		seen[task.ID] = true
		if err := c.repo.Upsert(&task); err != nil {
			c.logger.Errorf("could not cache task %d: %v", task.ID, err)
		}
		if c.index != nil {
			if err := c.index.Index(&task); err != nil {
				c.logger.Errorf("could not index task %d: %v", task.ID, err)
			}
		}
	}

	for _, task := range cached {
		if !seen[task.ID] {
			c.uncache(task.ID)
		}
	}
}

func (c *Controller) uncache(id int) {
	if c.repo != nil {
		if err := c.repo.Delete(id); err != nil {
			c.logger.Errorf("could not drop cached task %d: %v", id, err)
		}
	}
	if c.index != nil {
		if err := c.index.Delete(id); err != nil {
			c.logger.Errorf("could not unindex task %d: %v", id, err)
		}
	}
}

// Rows returns the rows of the last applied LoadTasks.
func (c *Controller) Rows() []Row {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows := make([]Row, len(c.rows))
	copy(rows, c.rows)
	return rows
}

// Task fetches one task, to prefill an edit form.
func (c *Controller) Task(ctx context.Context, id int) (tp.Task, error) {
	task, err := c.client.Get(ctx, id)
	if err != nil {
		c.notifier.Error("could not load task %d: %s", id, errors.Message(err))
		return tp.Task{}, err
	}
	return task, nil
}

// Open makes id the current task and returns it with its images.
func (c *Controller) Open(ctx context.Context, id int) (tp.Task, []tp.Image, error) {
	ticket := c.app.Seq.Next(seqOpen)

	task, err := c.client.Get(ctx, id)
	if err != nil {
		c.notifier.Error("could not open task %d: %s", id, errors.Message(err))
		return tp.Task{}, nil, err
	}

	images, err := c.client.Images(ctx, id)
	if err != nil {
		c.notifier.Error("could not load images of task %d: %s", id, errors.Message(err))
		return tp.Task{}, nil, err
	}

	if !c.app.Seq.IsLatest(seqOpen, ticket) {
		return tp.Task{}, nil, state.ErrStale
	}

	c.app.SetCurrentTask(task)
	return task, images, nil
}

func (c *Controller) Create(ctx context.Context, in tp.TaskInput) (tp.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		c.notifier.Error("a title is required")
		return tp.Task{}, errors.New("a title is required", errors.BadRequest())
	}

	task, err := c.client.Create(ctx, in)
	if err != nil {
		c.notifier.Error("could not create task: %s", errors.Message(err))
		return tp.Task{}, err
	}

	c.notifier.Success("task %q created", task.Title)
	c.reload(ctx)
	return task, nil
}

func (c *Controller) Update(ctx context.Context, id int, in tp.TaskInput) (tp.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		c.notifier.Error("a title is required")
		return tp.Task{}, errors.New("a title is required", errors.BadRequest())
	}

	task, err := c.client.Update(ctx, id, in)
	if err != nil {
		c.notifier.Error("could not update task %d: %s", id, errors.Message(err))
		return tp.Task{}, err
	}

	if current, ok := c.app.CurrentTask(); ok && current.ID == id {
		c.app.SetCurrentTask(task)
	}

	c.notifier.Success("task %q updated", task.Title)
	c.reload(ctx)
	return task, nil
}

func (c *Controller) Delete(ctx context.Context, id int) error {
	if err := c.client.Delete(ctx, id); err != nil {
		c.notifier.Error("could not delete task %d: %s", id, errors.Message(err))
		return err
	}

	c.uncache(id)
	c.app.ClearTask(id)

	c.notifier.Success("task %d deleted", id)
	c.reload(ctx)
	return nil
}

func (c *Controller) reload(ctx context.Context) {
	if _, err := c.LoadTasks(ctx); err != nil && err != state.ErrStale {
		c.logger.Errorf("could not reload tasks: %v", err)
	}
}

func (c *Controller) Share(ctx context.Context, taskID int, username string, perm tp.PermissionType) error {
	username = strings.TrimSpace(username)

	var invalid string
	switch {
	case username == "":
		invalid = "a username is required"
	case !perm.Valid():
		invalid = "permission must be one of read, edit, admin"
	}
	if invalid != "" {
		c.notifier.Error("%s", invalid)
		return errors.New(invalid, errors.BadRequest())
	}

	if err := c.client.Share(ctx, taskID, username, perm); err != nil {
		c.notifier.Error("could not share task: %s", errors.Message(err))
		return err
	}

	c.notifier.Success("task shared with %s (%s)", username, PermissionLabel(perm))
	return nil
}

func (c *Controller) Revoke(ctx context.Context, taskID int, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		c.notifier.Error("a username is required")
		return errors.New("a username is required", errors.BadRequest())
	}

	if err := c.client.Revoke(ctx, taskID, username); err != nil {
		c.notifier.Error("could not revoke access: %s", errors.Message(err))
		return err
	}

	c.notifier.Success("access of %s revoked", username)
	return nil
}

// Permissions lists who the task is shared with. The current user is never listed. An
// entry is revocable when the current user created the task or shared it with that
// user.
func (c *Controller) Permissions(ctx context.Context, taskID int) ([]PermissionEntry, error) {
	perms, err := c.client.Permissions(ctx, taskID)
	if err != nil {
		c.notifier.Error("could not load permissions: %s", errors.Message(err))
		return nil, err
	}

	var me string
	if user, ok := c.app.CurrentUser(); ok {
		me = user.Username
	}

	creator := false
	for _, p := range perms {
		if p.SharedBy != nil && p.SharedBy.IsCreator && p.SharedBy.Username == me {
			creator = true
			break
		}
	}

	entries := make([]PermissionEntry, 0, len(perms))
	for _, p := range perms {
		if p.Username == me {
			continue
		}
		entries = append(entries, PermissionEntry{
			Permission: p,
			Revocable:  p.SharedBy != nil && (creator || p.SharedBy.Username == me),
		})
	}
	return entries, nil
}

// Search looks the cached tasks up by title and description.
func (c *Controller) Search(q string) ([]*tp.Task, error) {
	if c.repo == nil || c.index == nil {
		return nil, errors.New("local search is not configured")
	}

	ids, err := c.index.Search(q)
	if err != nil {
		return nil, errors.New("could not search tasks", errors.WithCause(err))
	}
	return c.repo.Get(ids...)
}
