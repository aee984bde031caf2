package gin

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/upload"
)

type Uploader interface {
	NewForm() *upload.Form
	SubmitTo(ctx context.Context, task tp.Task, form *upload.Form) (tp.Image, error)
}

type TaskGetter interface {
	Task(ctx context.Context, id int) (tp.Task, error)
}

type UploadHandler struct {
	Tasks    TaskGetter
	Uploader Uploader
}

func (h *UploadHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/preview", HTMLRenderer(h.Preview))
	router.POST("/tasks/:id/images", JSONFormatter(h.Upload))
}

func (h *UploadHandler) Preview(c *gin.Context, w io.Writer) error {
	form, err := h.form(c)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, string(upload.Preview(form)))
	return err
}

func (h *UploadHandler) Upload(c *gin.Context) (interface{}, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}

	form, err := h.form(c)
	if err != nil {
		return nil, err
	}

	// The image goes to the task of the route, never to the current task, which
	// concurrent requests may change.
	task, err := h.Tasks.Task(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	img, err := h.Uploader.SubmitTo(c.Request.Context(), task, form)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": img,
	}, nil
}

// form reads an upload form. People are sent as parallel person_name,
// person_id_number and person_household_registration fields.
func (h *UploadHandler) form(c *gin.Context) (*upload.Form, error) {
	form := h.Uploader.NewForm()

	if t := c.PostForm("time"); t != "" {
		form.Time = t
	}
	form.Location = c.PostForm("location")
	form.Transportation = c.PostForm("transportation")
	form.Latitude = c.PostForm("latitude")
	form.Longitude = c.PostForm("longitude")

	names := c.PostFormArray("person_name")
	ids := c.PostFormArray("person_id_number")
	households := c.PostFormArray("person_household_registration")
	n := max(len(names), len(ids), len(households))
	if n > 0 {
		form.People = make([]tp.Person, n)
	}
	for i := 0; i < n; i++ {
		form.People[i] = tp.Person{
			Name:                  at(names, i),
			IDNumber:              at(ids, i),
			HouseholdRegistration: at(households, i),
		}
	}

	fh, err := c.FormFile("file")
	if err == nil {
		data, err := readFile(fh)
		if err != nil {
			return nil, errors.New("could not read file", errors.BadRequest(), errors.WithCause(err))
		}
		form.FileName = fh.Filename
		form.File = data
	}

	return form, nil
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
