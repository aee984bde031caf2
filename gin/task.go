package gin

import (
	"context"
	"html/template"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/format"
	"github.com/jeja2023/tp/tasks"
)

type TaskController interface {
	LoadTasks(ctx context.Context) ([]tasks.Row, error)
	Task(ctx context.Context, id int) (tp.Task, error)
	Open(ctx context.Context, id int) (tp.Task, []tp.Image, error)
	Delete(ctx context.Context, id int) error
	Permissions(ctx context.Context, taskID int) ([]tasks.PermissionEntry, error)
	Share(ctx context.Context, taskID int, username string, perm tp.PermissionType) error
	Revoke(ctx context.Context, taskID int, username string) error
	Search(q string) ([]*tp.Task, error)
}

type FileLister interface {
	Files(taskID int) ([]tp.GeneratedFile, error)
}

type TaskHandler struct {
	Tasks TaskController
	Files FileLister
}

func (h *TaskHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/tasks", HTMLRenderer(h.List))
	router.GET("/tasks/search", JSONFormatter(h.Search))
	router.GET("/tasks/:id", HTMLRenderer(h.Show))
	router.GET("/tasks/:id/view", HTMLRenderer(h.Show))
	router.GET("/tasks/:id/edit", JSONFormatter(h.Edit))
	router.DELETE("/tasks/:id", JSONFormatter(h.Delete))
	router.GET("/tasks/:id/files", JSONFormatter(h.ListFiles))
	router.GET("/tasks/:id/share", HTMLRenderer(h.Permissions))
	router.GET("/tasks/:id/manage", HTMLRenderer(h.Permissions))
	router.POST("/tasks/:id/permissions", JSONFormatter(h.Share))
	router.DELETE("/tasks/:id/permissions/:username", JSONFormatter(h.Revoke))
}

func (h *TaskHandler) List(c *gin.Context, w io.Writer) error {
	rows, err := h.Tasks.LoadTasks(c.Request.Context())
	if err != nil {
		return err
	}
	return tasks.RenderTable(w, rows)
}

func (h *TaskHandler) Search(c *gin.Context) (interface{}, error) {
	found, err := h.Tasks.Search(c.Query("q"))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": found,
	}, nil
}

var detailTemplate = template.Must(template.New("detail").Funcs(template.FuncMap{
	"description": tasks.Description,
	"datetime":    func(t tp.Time) string { return format.DateTime(t.Time) },
	"coordinate":  func(v *float64) float64 { return *v },
}).Parse(`<article class="task" data-id="{{.Task.ID}}">
<h1>{{.Task.Title}}</h1>
<div class="description">{{description .Task.Description}}</div>
<p class="created">{{datetime .Task.CreatedAt}}</p>
<a class="map" href="/tasks/{{.Task.ID}}/map">Map</a>
<table class="images">
<thead><tr><th>#</th><th>Time</th><th>Location</th><th>Transportation</th><th>GPS</th></tr></thead>
<tbody>
{{- range .Images}}
<tr class="image" data-id="{{.ID}}">
<td>{{.SequenceNumber}}</td>
<td>{{datetime .Time}}</td>
<td>{{.Location}}</td>
<td>{{.Transportation}}</td>
<td class="gps">{{if .HasGPS}}{{coordinate .GPSLatitude}}, {{coordinate .GPSLongitude}}{{end}}</td>
</tr>
{{- else}}
<tr class="empty"><td colspan="5">No image yet</td></tr>
{{- end}}
</tbody>
</table>
<ul class="files">
{{- range .Files}}
<li class="file file-{{.Type}}">{{.Filename}} <span class="created">{{datetime .CreatedAt}}</span></li>
{{- end}}
</ul>
</article>
`))

func (h *TaskHandler) Show(c *gin.Context, w io.Writer) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	task, images, err := h.Tasks.Open(c.Request.Context(), id)
	if err != nil {
		return err
	}

	files, err := h.Files.Files(id)
	if err != nil {
		return err
	}

	return detailTemplate.Execute(w, map[string]interface{}{
		"Task":   task,
		"Images": images,
		"Files":  files,
	})
}

func (h *TaskHandler) Edit(c *gin.Context) (interface{}, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}

	task, err := h.Tasks.Task(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": task,
	}, nil
}

func (h *TaskHandler) Delete(c *gin.Context) (interface{}, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}

	if err := h.Tasks.Delete(c.Request.Context(), id); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": "ok",
	}, nil
}

func (h *TaskHandler) ListFiles(c *gin.Context) (interface{}, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}

	files, err := h.Files.Files(id)
	if err != nil {
		return nil, err
	}

	if files == nil {
		files = []tp.GeneratedFile{}
	}
	return map[string]interface{}{
		"data": files,
	}, nil
}

func (h *TaskHandler) Permissions(c *gin.Context, w io.Writer) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	entries, err := h.Tasks.Permissions(c.Request.Context(), id)
	if err != nil {
		return err
	}
	return tasks.RenderPermissions(w, entries)
}

func (h *TaskHandler) Share(c *gin.Context) (interface{}, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}

	var body struct {
		Username       string            `json:"username"`
		PermissionType tp.PermissionType `json:"permission_type"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, errors.New("invalid body", errors.BadRequest(), errors.WithCause(err))
	}

	if err := h.Tasks.Share(c.Request.Context(), id, body.Username, body.PermissionType); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": "ok",
	}, nil
}

func (h *TaskHandler) Revoke(c *gin.Context) (interface{}, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}

	if err := h.Tasks.Revoke(c.Request.Context(), id, c.Param("username")); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": "ok",
	}, nil
}
