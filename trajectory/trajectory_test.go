package trajectory

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/mock"
	"github.com/jeja2023/tp/notify"
)

type mockClient struct {
	filename string
	err      error

	bodies   map[string]string
	fetchErr error
	fetched  []string
}

func (m *mockClient) Excel(ctx context.Context, taskID int) (string, error) {
	return m.filename, m.err
}

func (m *mockClient) Report(ctx context.Context, taskID int) (string, error) {
	return m.filename, m.err
}

func (m *mockClient) URL(path string) string {
	return "http://backend/api" + path
}

func (m *mockClient) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	m.fetched = append(m.fetched, path)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	body, ok := m.bodies[path]
	if !ok {
		return nil, errors.New("not found", errors.WithCode(http.StatusNotFound))
	}
	return io.NopCloser(bytes.NewBufferString(body)), nil
}

type mockOpener struct {
	err    error
	opened []string
}

func (m *mockOpener) Open(url string) error {
	m.opened = append(m.opened, url)
	return m.err
}

func createController(client *mockClient, opener *mockOpener) (*Controller, *mock.FileRepository, *notify.Notifier) {
	files := &mock.FileRepository{}
	notifier := notify.New(nil, nil)
	c := NewController(client, files, opener, notifier, nil)
	c.now = func() time.Time { return time.Date(2023, 5, 1, 8, 30, 0, 0, time.UTC) }
	return c, files, notifier
}

func TestController_Generate(t *testing.T) {
	client := &mockClient{filename: "track 1.xlsx"}
	c, files, _ := createController(client, &mockOpener{})

	res, err := c.GenerateTrack(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, res.Highlighted)
	assert.Equal(t, tp.GeneratedFile{
		Filename:    "track 1.xlsx",
		PreviewURL:  "/trajectory/preview/track%201.xlsx",
		DownloadURL: "/trajectory/download-file/track%201.xlsx",
		Type:        tp.FileExcel,
		CreatedAt:   tp.NewTime(time.Date(2023, 5, 1, 8, 30, 0, 0, time.UTC)),
	}, res.File)

	res, err = c.GenerateTrack(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, res.Highlighted, "a repeated filename highlights the existing entry")
	listed, _ := files.List(3)
	assert.Len(t, listed, 1)

	client.filename = "report.docx"
	res, err = c.GenerateReport(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, tp.FileReport, res.File.Type)

	list, err := c.Files(3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "track 1.xlsx", list[0].Filename)
	assert.Equal(t, "report.docx", list[1].Filename)

	require.NoError(t, c.Remove(3, "track 1.xlsx"))
	list, _ = c.Files(3)
	assert.Len(t, list, 1)

	require.NoError(t, c.Clear(3))
	list, _ = c.Files(3)
	assert.Empty(t, list)
}

func TestController_Generate_Error(t *testing.T) {
	client := &mockClient{err: errors.New("Task not found", errors.WithCode(http.StatusNotFound))}
	c, files, notifier := createController(client, &mockOpener{})

	_, err := c.GenerateReport(context.Background(), 3)
	errors.AssertCode(t, err, http.StatusNotFound)
	listed, _ := files.List(3)
	assert.Empty(t, listed)

	msg, ok := notifier.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, msg.Level)
	assert.Contains(t, msg.Text, "Task not found")
}

func TestController_Preview(t *testing.T) {
	file := tp.GeneratedFile{Filename: "t.xlsx", PreviewURL: "/trajectory/preview/t.xlsx"}

	client := &mockClient{bodies: map[string]string{"/trajectory/preview/t.xlsx": "<html>preview</html>"}}
	opener := &mockOpener{}
	c, _, _ := createController(client, opener)

	require.NoError(t, c.Preview(context.Background(), file))
	c.Wait()
	assert.Equal(t, []string{"http://backend/api/trajectory/preview/t.xlsx"}, opener.opened)
	assert.Empty(t, client.fetched)

	opener.err = errors.New("no browser")
	c, _, notifier := createController(client, opener)
	require.NoError(t, c.Preview(context.Background(), file))
	c.Wait()

	assert.Equal(t, []string{"/trajectory/preview/t.xlsx"}, client.fetched)
	path := filepath.Join(os.TempDir(), "preview-t.xlsx")
	defer os.Remove(path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html>preview</html>", string(data))

	msg, _ := notifier.Last()
	assert.Equal(t, notify.LevelInfo, msg.Level)
}

func TestController_Download(t *testing.T) {
	file := tp.GeneratedFile{Filename: "t.xlsx", DownloadURL: "/trajectory/download-file/t.xlsx"}

	testCases := map[string]struct {
		fetchErr  error
		openerErr error

		path   bool
		opened bool
		code   int
	}{
		"downloaded": {
			path: true,
		},
		"falls back to the browser": {
			fetchErr: errors.New("bad gateway", errors.WithCode(http.StatusBadGateway)),
			opened:   true,
		},
		"browser unavailable": {
			fetchErr:  errors.New("bad gateway", errors.WithCode(http.StatusBadGateway)),
			openerErr: errors.New("no browser"),
			opened:    true,
			code:      http.StatusBadGateway,
		},
		"session expired": {
			fetchErr: errors.New("unauthorized", errors.Unauthorized()),
			code:     http.StatusUnauthorized,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			client := &mockClient{
				bodies:   map[string]string{"/trajectory/download-file/t.xlsx": "xlsx"},
				fetchErr: tc.fetchErr,
			}
			opener := &mockOpener{err: tc.openerErr}
			c, _, _ := createController(client, opener)

			path, err := c.Download(context.Background(), file, filepath.Join(dir, "out"))
			if tc.code != 0 {
				errors.AssertCode(t, err, tc.code)
			} else {
				require.NoError(t, err)
			}

			if tc.path {
				assert.Equal(t, filepath.Join(dir, "out", "t.xlsx"), path)
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, "xlsx", string(data))
			} else {
				assert.Empty(t, path)
			}

			if tc.opened {
				assert.Equal(t, []string{"http://backend/api/trajectory/download-file/t.xlsx"}, opener.opened)
			} else {
				assert.Empty(t, opener.opened)
			}
		})
	}
}

func TestController_DownloadRaw(t *testing.T) {
	dir := t.TempDir()
	client := &mockClient{bodies: map[string]string{"/download/a%20b.png": "png"}}
	c, _, notifier := createController(client, &mockOpener{})

	path, err := c.DownloadRaw(context.Background(), "a b.png", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a b.png"), path)
	msg, _ := notifier.Last()
	assert.Equal(t, "a b.png downloaded to "+path+" (3 B)", msg.Text)

	path, err = c.DownloadRaw(context.Background(), "../../etc/passwd", dir)
	errors.AssertCode(t, err, http.StatusNotFound)
	assert.Empty(t, path)

	_, err = c.DownloadRaw(context.Background(), "..", dir)
	errors.AssertCode(t, err, http.StatusBadRequest)
}
