// Package trajectory generates the trajectory exports of a task and keeps the links
// to the generated files.
package trajectory

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jeja2023/tp"
	api "github.com/jeja2023/tp/clients/trajectory"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/format"
	"github.com/jeja2023/tp/log"
	"github.com/jeja2023/tp/notify"
)

type Client interface {
	Excel(ctx context.Context, taskID int) (string, error)
	Report(ctx context.Context, taskID int) (string, error)
	URL(path string) string
	Fetch(ctx context.Context, path string) (io.ReadCloser, error)
}

// Opener shows a URL to the user, usually in a browser.
type Opener interface {
	Open(url string) error
}

// Result is a generated file as shown in the list. Highlighted is set when the file
// was already listed.
type Result struct {
	File        tp.GeneratedFile
	Highlighted bool
}

type Controller struct {
	client   Client
	files    tp.FileRepository
	opener   Opener
	notifier *notify.Notifier
	logger   log.Logger

	now func() time.Time
	wg  sync.WaitGroup
}

func NewController(client Client, files tp.FileRepository, opener Opener, notifier *notify.Notifier, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.Discard()
	}
	if notifier == nil {
		notifier = notify.New(nil, logger)
	}
	return &Controller{
		client:   client,
		files:    files,
		opener:   opener,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// GenerateTrack builds the trajectory spreadsheet of a task.
func (c *Controller) GenerateTrack(ctx context.Context, taskID int) (Result, error) {
	return c.generate(ctx, taskID, tp.FileExcel, c.client.Excel)
}

// GenerateReport builds the trajectory report of a task.
func (c *Controller) GenerateReport(ctx context.Context, taskID int) (Result, error) {
	return c.generate(ctx, taskID, tp.FileReport, c.client.Report)
}

func (c *Controller) generate(ctx context.Context, taskID int, typ tp.FileType, call func(context.Context, int) (string, error)) (Result, error) {
	filename, err := call(ctx, taskID)
	if err != nil {
		c.notifier.Error("could not generate the %s: %s", typ, errors.Message(err))
		return Result{}, err
	}

	files, err := c.files.List(taskID)
	if err != nil {
		return Result{}, err
	}
	for _, f := range files {
		if f.Filename == filename {
			c.notifier.Info("%s is already in the list", filename)
			return Result{File: f, Highlighted: true}, nil
		}
	}

	file := tp.GeneratedFile{
		Filename:    filename,
		PreviewURL:  api.PreviewPath(filename),
		DownloadURL: api.DownloadPath(filename),
		Type:        typ,
		CreatedAt:   tp.NewTime(c.now().Truncate(time.Second)),
	}
	if err := c.files.Upsert(taskID, file); err != nil {
		return Result{}, err
	}

	c.logger.WithField("task", taskID).Debugf("generated %s", filename)
	c.notifier.Success("%s generated", filename)
	return Result{File: file}, nil
}

// Files returns the files generated for a task, oldest first.
func (c *Controller) Files(taskID int) ([]tp.GeneratedFile, error) {
	return c.files.List(taskID)
}

func (c *Controller) Remove(taskID int, filename string) error {
	return c.files.Delete(taskID, filename)
}

func (c *Controller) Clear(taskID int) error {
	return c.files.Clear(taskID)
}

// Preview opens the preview of file. When no browser can be opened, the preview is
// fetched in the background to a temporary file; Wait blocks until it is written.
func (c *Controller) Preview(ctx context.Context, file tp.GeneratedFile) error {
	err := c.opener.Open(c.client.URL(file.PreviewURL))
	if err == nil {
		return nil
	}

	c.logger.Warnf("could not open preview: %v", err)
	c.notifier.Warning("could not open the preview, it is fetched in the background")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		path, _, err := c.save(ctx, file.PreviewURL, os.TempDir(), "preview-"+file.Filename)
		if err != nil {
			c.notifier.Error("could not fetch the preview: %s", errors.Message(err))
			return
		}
		c.notifier.Info("preview saved to %s", path)
	}()
	return nil
}

// Wait blocks until the background previews are done.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Download writes the file to dir with the credentials of the session. When that
// fails the download URL is opened directly and the returned path is empty.
func (c *Controller) Download(ctx context.Context, file tp.GeneratedFile, dir string) (string, error) {
	path, size, err := c.save(ctx, file.DownloadURL, dir, file.Filename)
	if err == nil {
		c.notifier.Success("%s downloaded to %s (%s)", file.Filename, path, format.FileSize(size))
		return path, nil
	}
	if errors.IsUnauthorized(err) {
		return "", err
	}

	c.logger.Warnf("could not download %s: %v", file.Filename, err)
	if oerr := c.opener.Open(c.client.URL(file.DownloadURL)); oerr != nil {
		c.notifier.Error("could not download %s: %s", file.Filename, errors.Message(err))
		return "", err
	}
	c.notifier.Warning("download failed, %s was opened in the browser", file.Filename)
	return "", nil
}

// DownloadRaw writes a file served by the generic download endpoint to dir.
func (c *Controller) DownloadRaw(ctx context.Context, filename, dir string) (string, error) {
	path, size, err := c.save(ctx, api.RawPath(filename), dir, filename)
	if err != nil {
		c.notifier.Error("could not download %s: %s", filename, errors.Message(err))
		return "", err
	}
	c.notifier.Success("%s downloaded to %s (%s)", filename, path, format.FileSize(size))
	return path, nil
}

func (c *Controller) save(ctx context.Context, urlPath, dir, filename string) (string, int64, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return "", 0, errors.New(fmt.Sprintf("invalid filename %q", filename), errors.BadRequest())
	}

	body, err := c.client.Fetch(ctx, urlPath)
	if err != nil {
		return "", 0, err
	}
	defer body.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}

	n, err := io.Copy(f, body)
	if err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, errors.New("download interrupted", errors.WithCode(502), errors.WithCause(err))
	}
	if err := f.Close(); err != nil {
		return "", 0, err
	}
	return path, n, nil
}
