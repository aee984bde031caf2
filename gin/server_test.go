package gin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/mapview"
	"github.com/jeja2023/tp/mock"
	"github.com/jeja2023/tp/state"
	"github.com/jeja2023/tp/tasks"
	"github.com/jeja2023/tp/upload"
)

type mockTasks struct {
	rows    []tasks.Row
	task    tp.Task
	images  []tp.Image
	entries []tasks.PermissionEntry
	err     error

	deleted []int
	shared  []string
	revoked []string
	opened  []int
	onTask  func(id int)
}

func (m *mockTasks) LoadTasks(ctx context.Context) ([]tasks.Row, error) { return m.rows, m.err }

func (m *mockTasks) Task(ctx context.Context, id int) (tp.Task, error) {
	if m.onTask != nil {
		m.onTask(id)
	}
	return m.task, m.err
}

func (m *mockTasks) Open(ctx context.Context, id int) (tp.Task, []tp.Image, error) {
	m.opened = append(m.opened, id)
	return m.task, m.images, m.err
}

func (m *mockTasks) Delete(ctx context.Context, id int) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockTasks) Permissions(ctx context.Context, taskID int) ([]tasks.PermissionEntry, error) {
	return m.entries, m.err
}

func (m *mockTasks) Share(ctx context.Context, taskID int, username string, perm tp.PermissionType) error {
	m.shared = append(m.shared, username+":"+string(perm))
	return m.err
}

func (m *mockTasks) Revoke(ctx context.Context, taskID int, username string) error {
	m.revoked = append(m.revoked, username)
	return m.err
}

func (m *mockTasks) Search(q string) ([]*tp.Task, error) {
	if q == "" {
		return nil, nil
	}
	return []*tp.Task{&m.task}, m.err
}

type mockFiles map[int][]tp.GeneratedFile

func (m mockFiles) Files(taskID int) ([]tp.GeneratedFile, error) { return m[taskID], nil }

type mockImages struct {
	images []tp.Image
}

func (m *mockImages) Images(ctx context.Context, taskID int) ([]tp.Image, error) {
	return m.images, nil
}

type mockUploader struct {
	submitted *upload.Form
	task      tp.Task
}

func (m *mockUploader) NewForm() *upload.Form {
	return upload.NewForm(time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC))
}

func (m *mockUploader) SubmitTo(ctx context.Context, task tp.Task, form *upload.Form) (tp.Image, error) {
	m.task = task
	m.submitted = form
	return tp.Image{ID: 9, Location: form.Location}, nil
}

type fixture struct {
	router   http.Handler
	sessions *mock.SessionStore
	tasks    *mockTasks
	images   *mockImages
	overlay  *mapview.Overlay
	uploader *mockUploader
}

func createRouter(t *testing.T) *fixture {
	gin.SetMode(gin.ReleaseMode) // avoid unnecessary log

	f := &fixture{
		sessions: mock.NewSessionStore(tp.Session{Token: "token", Username: "alice"}),
		tasks:    &mockTasks{task: tp.Task{ID: 1, Title: "Route", Description: "**bold**"}},
		images:   &mockImages{},
		uploader: &mockUploader{},
	}
	f.overlay = mapview.New(mapview.DefaultConfig(), f.images, state.New(), nil, nil)
	f.router = New(Dependencies{
		Sessions: f.sessions,
		Tasks:    f.tasks,
		Files: mockFiles{1: {
			{Filename: "track.xlsx", Type: tp.FileExcel},
		}},
		Map:      f.overlay,
		Uploader: f.uploader,
		Hosts:    []string{"example.com"},
	})
	return f
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func decode(t *testing.T, res *httptest.ResponseRecorder) map[string]interface{} {
	r := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &r), res.Body.String())
	return r
}

func float(v float64) *float64 { return &v }

func TestServer_Routing(t *testing.T) {
	f := createRouter(t)

	res := serve(f.router, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusOK, res.Code)

	res = serve(f.router, httptest.NewRequest("GET", "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Page not found", decode(t, res)["message"])

	require.NoError(t, f.sessions.Clear())
	res = serve(f.router, httptest.NewRequest("GET", "/tasks", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestServer_SameOrigin(t *testing.T) {
	tts := map[string]struct {
		method string
		path   string
		body   string
		host   string
		header map[string]string
		code   int
	}{
		"cross origin preflight": {
			method: "OPTIONS", path: "/tasks/1",
			header: map[string]string{"Origin": "https://evil.example", "Access-Control-Request-Method": "DELETE"},
			code:   http.StatusForbidden,
		},
		"cross origin delete": {
			method: "DELETE", path: "/tasks/1",
			header: map[string]string{"Origin": "https://evil.example"},
			code:   http.StatusForbidden,
		},
		"cross origin share": {
			method: "POST", path: "/tasks/1/permissions",
			body:   `{"username": "mallory", "permission_type": "admin"}`,
			header: map[string]string{"Origin": "https://evil.example", "Content-Type": "application/json"},
			code:   http.StatusForbidden,
		},
		"opaque origin": {
			method: "DELETE", path: "/tasks/1",
			header: map[string]string{"Origin": "null"},
			code:   http.StatusForbidden,
		},
		"cross site fetch": {
			method: "DELETE", path: "/tasks/1",
			header: map[string]string{"Sec-Fetch-Site": "cross-site"},
			code:   http.StatusForbidden,
		},
		"rebound host": {
			method: "DELETE", path: "/tasks/1",
			host:   "evil.example:8787",
			header: map[string]string{"Origin": "http://evil.example:8787"},
			code:   http.StatusForbidden,
		},
		"same origin": {
			method: "DELETE", path: "/tasks/1",
			header: map[string]string{"Origin": "http://example.com", "Sec-Fetch-Site": "same-origin"},
			code:   http.StatusOK,
		},
		"no origin": {
			method: "DELETE", path: "/tasks/1",
			code: http.StatusOK,
		},
	}

	for name, tt := range tts {
		f := createRouter(t)

		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		if tt.host != "" {
			req.Host = tt.host
		}
		for k, v := range tt.header {
			req.Header.Set(k, v)
		}
		res := serve(f.router, req)

		assert.Equal(t, tt.code, res.Code, name)
		assert.Empty(t, res.Header().Get("Access-Control-Allow-Origin"), name)
		if tt.code == http.StatusForbidden {
			assert.Empty(t, f.tasks.deleted, name)
			assert.Empty(t, f.tasks.shared, name)
		}
	}
}

func TestLocalHosts(t *testing.T) {
	assert.Equal(t, []string{"localhost:8787", "127.0.0.1:8787", "[::1]:8787"}, LocalHosts(":8787"))
	assert.Equal(t, []string{"localhost:8787", "127.0.0.1:8787", "[::1]:8787"}, LocalHosts("127.0.0.1:8787"))
	assert.Equal(t, []string{"tp.lan:80"}, LocalHosts("tp.lan:80"))
}

func TestTaskHandler(t *testing.T) {
	f := createRouter(t)
	f.tasks.rows = []tasks.Row{
		{Task: tp.Task{ID: 2, Title: "Newer"}, Actions: []tasks.Action{tasks.ActionView}},
		{Task: tp.Task{ID: 1, Title: "Older"}, Actions: []tasks.Action{tasks.ActionView, tasks.ActionDelete}},
	}
	f.tasks.images = []tp.Image{
		{ID: 5, SequenceNumber: 1, Location: "Station", GPSLatitude: float(39.9), GPSLongitude: float(116.4)},
	}

	res := serve(f.router, httptest.NewRequest("GET", "/tasks", nil))
	require.Equal(t, http.StatusOK, res.Code)
	doc, err := goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Find("tr.task").Length())
	assert.Equal(t, "Newer", doc.Find("tr.task .title").First().Text())

	res = serve(f.router, httptest.NewRequest("GET", "/tasks/1/view", nil))
	require.Equal(t, http.StatusOK, res.Code)
	doc, err = goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "Route", doc.Find("h1").Text())
	assert.Equal(t, "bold", doc.Find(".description strong").Text())
	assert.Equal(t, "39.9, 116.4", doc.Find("tr.image .gps").Text())
	assert.Equal(t, 1, doc.Find("li.file-excel").Length())
	assert.Equal(t, []int{1}, f.tasks.opened)

	res = serve(f.router, httptest.NewRequest("GET", "/tasks/abc", nil))
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = serve(f.router, httptest.NewRequest("GET", "/tasks/1/files", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, decode(t, res)["data"], 1)

	res = serve(f.router, httptest.NewRequest("GET", "/tasks/2/files", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []interface{}{}, decode(t, res)["data"])

	res = serve(f.router, httptest.NewRequest("GET", "/tasks/search?q=rou", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, decode(t, res)["data"], 1)

	res = serve(f.router, httptest.NewRequest("DELETE", "/tasks/1", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []int{1}, f.tasks.deleted)
}

func TestTaskHandler_Errors(t *testing.T) {
	testCases := map[string]struct {
		err  error
		code int
	}{
		"backend error keeps its status": {
			err:  errors.New("You do not have permission", errors.WithCode(http.StatusForbidden)),
			code: http.StatusForbidden,
		},
		"plain error": {
			err:  errors.New("boom"),
			code: http.StatusInternalServerError,
		},
		"stale load": {
			err:  state.ErrStale,
			code: http.StatusConflict,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			f := createRouter(t)
			f.tasks.err = tc.err

			res := serve(f.router, httptest.NewRequest("GET", "/tasks", nil))
			assert.Equal(t, tc.code, res.Code)
			assert.Equal(t, errors.Message(tc.err), decode(t, res)["message"])
		})
	}
}

func TestTaskHandler_Permissions(t *testing.T) {
	f := createRouter(t)
	f.tasks.entries = []tasks.PermissionEntry{
		{Permission: tp.Permission{Username: "bob", PermissionType: tp.PermissionEdit}, Revocable: true},
	}

	res := serve(f.router, httptest.NewRequest("GET", "/tasks/1/manage", nil))
	require.Equal(t, http.StatusOK, res.Code)
	doc, err := goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("li.permission button.revoke").Length())

	body := strings.NewReader(`{"username": "carol", "permission_type": "read"}`)
	req := httptest.NewRequest("POST", "/tasks/1/permissions", body)
	req.Header.Set("Content-Type", "application/json")
	res = serve(f.router, req)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []string{"carol:read"}, f.tasks.shared)

	req = httptest.NewRequest("POST", "/tasks/1/permissions", strings.NewReader("{"))
	res = serve(f.router, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = serve(f.router, httptest.NewRequest("DELETE", "/tasks/1/permissions/bob", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []string{"bob"}, f.tasks.revoked)
}

func TestMapHandler(t *testing.T) {
	f := createRouter(t)
	f.images.images = []tp.Image{
		{ID: 1, Location: "A", GPSLatitude: float(39.9), GPSLongitude: float(116.4)},
		{ID: 2, Location: "B"},
	}

	res := serve(f.router, httptest.NewRequest("GET", "/tasks/1/map", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<title>Task 1</title>")
	assert.Len(t, f.overlay.Map().Markers, 1)

	res = serve(f.router, httptest.NewRequest("POST", "/map/layers/satellite", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, mapview.LayerSatellite, f.overlay.Map().Base)

	res = serve(f.router, httptest.NewRequest("POST", "/map/layers/traffic?on=true", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, true, decode(t, res)["data"].(map[string]interface{})["changed"])

	res = serve(f.router, httptest.NewRequest("POST", "/map/layers/traffic", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, false, decode(t, res)["data"].(map[string]interface{})["changed"])

	res = serve(f.router, httptest.NewRequest("POST", "/map/layers/traffic?on=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = serve(f.router, httptest.NewRequest("POST", "/map/layers/weather", nil))
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = serve(f.router, httptest.NewRequest("POST", "/map/reset", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, f.overlay.Map().Overlays)
	assert.Equal(t, mapview.LayerStandard, f.overlay.Map().Base)
}

func TestMapHandler_Import(t *testing.T) {
	f := createRouter(t)

	form := url.Values{"text": {"39.9,116.4\n40.0,116.5,2023-01-01 10:00,Spot"}}
	req := httptest.NewRequest("POST", "/gps/import", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := serve(f.router, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Len(t, decode(t, res)["data"], 2)
	assert.Len(t, f.overlay.Map().Markers, 2)

	form = url.Values{"text": {"39.9"}}
	req = httptest.NewRequest("POST", "/gps/import", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res = serve(f.router, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Len(t, f.overlay.Map().Markers, 2, "a failed import keeps the map")

	req = httptest.NewRequest("POST", "/gps/import", nil)
	res = serve(f.router, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestUploadHandler(t *testing.T) {
	f := createRouter(t)

	body := bytes.Buffer{}
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("location", "Station"))
	require.NoError(t, w.WriteField("transportation", "train"))
	require.NoError(t, w.WriteField("person_name", "Li"))
	require.NoError(t, w.WriteField("person_name", ""))
	require.NoError(t, w.WriteField("person_id_number", "110"))
	part, err := w.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not an image"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/preview", bytes.NewReader(body.Bytes()))
	req.Header.Set("Content-Type", w.FormDataContentType())
	res := serve(f.router, req)
	require.Equal(t, http.StatusOK, res.Code)

	doc, err := goquery.NewDocumentFromReader(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "Station", doc.Find(".location").Text())
	assert.Equal(t, "2023-01-01 10:00:00", doc.Find(".time").Text())
	assert.Equal(t, "photo.jpg", doc.Find(".file").Text())
	assert.Equal(t, 1, doc.Find("li.person").Length())

	req = httptest.NewRequest("POST", "/tasks/1/images", bytes.NewReader(body.Bytes()))
	req.Header.Set("Content-Type", w.FormDataContentType())
	res = serve(f.router, req)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, 1, f.uploader.task.ID)
	require.NotNil(t, f.uploader.submitted)
	assert.Equal(t, []byte("not an image"), f.uploader.submitted.File)
	assert.Equal(t, []tp.Person{{Name: "Li", IDNumber: "110"}, {}}, f.uploader.submitted.People)

	res = serve(f.router, httptest.NewRequest("POST", "/preview", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "upload-preview empty")
}

type recordingImageClient struct {
	taskIDs []int
}

func (m *recordingImageClient) Upload(ctx context.Context, taskID int, body io.Reader, contentType string) (tp.Image, error) {
	m.taskIDs = append(m.taskIDs, taskID)
	return tp.Image{ID: 3, TaskID: taskID}, nil
}

func (m *recordingImageClient) Get(ctx context.Context, id int) (tp.Image, error) {
	return tp.Image{ID: id}, nil
}

func TestUploadHandler_ConcurrentOpen(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)

	app := state.New()
	images := &recordingImageClient{}
	uploader := upload.NewController(images, &mockImages{}, app, nil, nil)
	taskList := &mockTasks{task: tp.Task{ID: 1, Title: "Route"}}
	// Another request opens task 2 while the upload is handled.
	taskList.onTask = func(id int) { app.SetCurrentTask(tp.Task{ID: 2}) }

	router := New(Dependencies{
		Sessions: mock.NewSessionStore(tp.Session{Token: "token", Username: "alice"}),
		Tasks:    taskList,
		Files:    mockFiles{},
		Map:      mapview.New(mapview.DefaultConfig(), &mockImages{}, app, nil, nil),
		Uploader: uploader,
		Hosts:    []string{"example.com"},
	})

	body := bytes.Buffer{}
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("time", "2023-01-01 10:00"))
	require.NoError(t, w.WriteField("location", "Station"))
	require.NoError(t, w.WriteField("transportation", "train"))
	part, err := w.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/tasks/1/images", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	res := serve(router, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, []int{1}, images.taskIDs)
}
