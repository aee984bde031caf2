// Package upload submits geotagged images of the current task and renders the live
// preview of the upload form.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/format"
	"github.com/jeja2023/tp/log"
	"github.com/jeja2023/tp/notify"
	"github.com/jeja2023/tp/state"
)

const seqImages = "images"

type ImageClient interface {
	Upload(ctx context.Context, taskID int, body io.Reader, contentType string) (tp.Image, error)
	Get(ctx context.Context, id int) (tp.Image, error)
}

type TaskImages interface {
	Images(ctx context.Context, taskID int) ([]tp.Image, error)
}

type Controller struct {
	client   ImageClient
	tasks    TaskImages
	app      *state.App
	notifier *notify.Notifier
	logger   log.Logger

	now func() time.Time

	mu     sync.RWMutex
	taskID int
	images []tp.Image
}

func NewController(client ImageClient, tasks TaskImages, app *state.App, notifier *notify.Notifier, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.Discard()
	}
	if notifier == nil {
		notifier = notify.New(nil, logger)
	}
	return &Controller{
		client:   client,
		tasks:    tasks,
		app:      app,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// NewForm returns a blank form dated now.
func (c *Controller) NewForm() *Form {
	return NewForm(c.now())
}

// Submit uploads the form to the current task. On success the image list is reloaded
// and the form is reset.
func (c *Controller) Submit(ctx context.Context, form *Form) (tp.Image, error) {
	task, ok := c.app.CurrentTask()
	if !ok {
		err := errors.New("select a task first", errors.BadRequest())
		c.notifier.Error("%s", errors.Message(err))
		return tp.Image{}, err
	}

	return c.SubmitTo(ctx, task, form)
}

// SubmitTo uploads the form to task, whatever the current task is.
func (c *Controller) SubmitTo(ctx context.Context, task tp.Task, form *Form) (tp.Image, error) {
	if err := form.Validate(); err != nil {
		c.notifier.Error("%s", errors.Message(err))
		return tp.Image{}, err
	}

	body, contentType, err := multipartBody(task.ID, form)
	if err != nil {
		return tp.Image{}, errors.New("could not build upload", errors.WithCause(err))
	}

	img, err := c.client.Upload(ctx, task.ID, body, contentType)
	if err != nil {
		code := errors.Code(err)
		msg := fmt.Sprintf("failed to upload image: %d %s", code, errors.Message(err))
		c.notifier.Error("%s", msg)
		return tp.Image{}, errors.New(msg, errors.WithCode(code), errors.WithCause(err))
	}

	c.notifier.Success("image uploaded to %q", task.Title)
	form.Reset(c.now())

	if _, err := c.LoadImages(ctx, task.ID); err != nil && err != state.ErrStale {
		c.logger.Errorf("could not reload images of task %d: %v", task.ID, err)
	}

	return img, nil
}

func multipartBody(taskID int, form *Form) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile("file", form.FileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(form.File); err != nil {
		return nil, "", err
	}

	when := strings.TrimSpace(form.Time)
	if t, err := format.ParseTime(when); err == nil {
		when = t.Format(FormTimeLayout)
	}

	fields := [][2]string{
		{"task_id", strconv.Itoa(taskID)},
		{"time", when},
		{"location", strings.TrimSpace(form.Location)},
		{"transportation", strings.TrimSpace(form.Transportation)},
	}

	lat, lng, err := form.coordinates()
	if err != nil {
		return nil, "", err
	}
	if lat != nil {
		fields = append(fields,
			[2]string{"gps_latitude", strconv.FormatFloat(*lat, 'f', -1, 64)},
			[2]string{"gps_longitude", strconv.FormatFloat(*lng, 'f', -1, 64)},
		)
	}

	if people := form.people(); len(people) > 0 {
		data, err := json.Marshal(people)
		if err != nil {
			return nil, "", err
		}
		fields = append(fields, [2]string{"people_involved", string(data)})
	}

	for _, field := range fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// LoadImages fetches the images of a task. A call superseded by a newer one returns
// state.ErrStale.
func (c *Controller) LoadImages(ctx context.Context, taskID int) ([]tp.Image, error) {
	ticket := c.app.Seq.Next(seqImages)

	images, err := c.tasks.Images(ctx, taskID)
	if err != nil {
		c.notifier.Error("could not load images: %s", errors.Message(err))
		return nil, err
	}

	if !c.app.Seq.IsLatest(seqImages, ticket) {
		return nil, state.ErrStale
	}

	c.mu.Lock()
	c.taskID = taskID
	c.images = images
	c.mu.Unlock()

	return images, nil
}

// Images returns the images of the last load when they belong to taskID.
func (c *Controller) Images(taskID int) []tp.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.taskID != taskID {
		return nil
	}
	images := make([]tp.Image, len(c.images))
	copy(images, c.images)
	return images
}

// Image fetches the detail of one image.
func (c *Controller) Image(ctx context.Context, id int) (tp.Image, error) {
	img, err := c.client.Get(ctx, id)
	if err != nil {
		c.notifier.Error("could not load image %d: %s", id, errors.Message(err))
		return tp.Image{}, err
	}
	return img, nil
}
