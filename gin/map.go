package gin

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/gps"
	"github.com/jeja2023/tp/mapview"
)

type MapController interface {
	PlotImages(ctx context.Context, taskID int) (int, error)
	PlotPoints(points []tp.Point) error
	Render(w io.Writer, title string) error
	SetBaseLayer(name string) error
	ToggleOverlay(name string, on bool) (bool, error)
	ResetLayers()
}

type MapHandler struct {
	Map MapController
}

func (h *MapHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/map", HTMLRenderer(h.Show))
	router.GET("/tasks/:id/map", HTMLRenderer(h.PlotTask))
	router.POST("/map/layers/:name", JSONFormatter(h.Layer))
	router.POST("/map/reset", JSONFormatter(h.Reset))
	router.POST("/gps/import", JSONFormatter(h.Import))
	router.POST("/gps/preview", HTMLRenderer(h.PreviewSheet))
}

func (h *MapHandler) Show(c *gin.Context, w io.Writer) error {
	return h.Map.Render(w, "Map")
}

func (h *MapHandler) PlotTask(c *gin.Context, w io.Writer) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	if _, err := h.Map.PlotImages(c.Request.Context(), id); err != nil {
		return err
	}
	return h.Map.Render(w, fmt.Sprintf("Task %d", id))
}

// Layer selects a base layer, or shows or hides an overlay with ?on=true|false.
func (h *MapHandler) Layer(c *gin.Context) (interface{}, error) {
	name := c.Param("name")

	switch name {
	case mapview.LayerStandard, mapview.LayerSatellite:
		if err := h.Map.SetBaseLayer(name); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"data": map[string]interface{}{"base": name},
		}, nil
	}

	on, ok, err := queryBool("on", c)
	if err != nil {
		return nil, errors.New("on should be a boolean", errors.BadRequest(), errors.WithCause(err))
	} else if !ok {
		on = true
	}

	changed, err := h.Map.ToggleOverlay(name, on)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": map[string]interface{}{"overlay": name, "on": on, "changed": changed},
	}, nil
}

func (h *MapHandler) Reset(c *gin.Context) (interface{}, error) {
	h.Map.ResetLayers()
	return map[string]interface{}{
		"data": "ok",
	}, nil
}

// Import plots the points of an uploaded .xlsx file, or of the text field when no
// file is sent.
func (h *MapHandler) Import(c *gin.Context) (interface{}, error) {
	var (
		points []tp.Point
		err    error
	)

	fh, ferr := c.FormFile("file")
	switch {
	case ferr == nil:
		points, err = parseSheetFile(fh)
	case c.PostForm("text") != "":
		points, err = gps.ParseText(c.PostForm("text"))
	default:
		return nil, errors.New("a file or some text is required", errors.BadRequest())
	}
	if err != nil {
		return nil, err
	}

	if err := h.Map.PlotPoints(points); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": points,
	}, nil
}

func (h *MapHandler) PreviewSheet(c *gin.Context, w io.Writer) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return errors.New("a file is required", errors.BadRequest(), errors.WithCause(err))
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := gps.ReadSheet(f)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, string(gps.PreviewTable(rows, gps.DefaultPreviewRows)))
	return err
}

func parseSheetFile(fh *multipart.FileHeader) ([]tp.Point, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return gps.ParseSpreadsheet(f)
}
