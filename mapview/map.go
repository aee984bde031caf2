// Package mapview keeps the state of the task map: a location marker, the plotted
// track and the layer toggles, and renders it as a Leaflet page.
package mapview

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
	"github.com/jeja2023/tp/format"
	"github.com/jeja2023/tp/log"
	"github.com/jeja2023/tp/notify"
	"github.com/jeja2023/tp/state"
)

const seqPlot = "plot"

const (
	KindTile    = "tile"
	KindGeoJSON = "geojson"
)

type Layer struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

type Marker struct {
	Position LatLng `json:"position"`
	Label    string `json:"label"`
	Title    string `json:"title"`
}

// Map is the state drawn on the page.
type Map struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`

	Location *Marker  `json:"location,omitempty"`
	Markers  []Marker `json:"markers"`
	Path     []LatLng `json:"path"`

	Base      string            `json:"base"`
	Satellite *Layer            `json:"satellite,omitempty"`
	Overlays  map[string]*Layer `json:"overlays"`
}

type ImageLister interface {
	Images(ctx context.Context, taskID int) ([]tp.Image, error)
}

// Overlay owns the single map of the application. It is safe for concurrent use.
type Overlay struct {
	cfg      Config
	images   ImageLister
	app      *state.App
	notifier *notify.Notifier
	logger   log.Logger

	mu sync.Mutex
	m  *Map

	plotting atomic.Bool
}

func New(cfg Config, images ImageLister, app *state.App, notifier *notify.Notifier, logger log.Logger) *Overlay {
	if logger == nil {
		logger = log.Discard()
	}
	if notifier == nil {
		notifier = notify.New(nil, logger)
	}
	return &Overlay{
		cfg:      cfg,
		images:   images,
		app:      app,
		notifier: notifier,
		logger:   logger,
	}
}

// Map returns the map, creating it on first use.
func (o *Overlay) Map() *Map {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lazyMap()
}

func (o *Overlay) lazyMap() *Map {
	if o.m == nil {
		o.m = &Map{
			Center:   o.cfg.Center,
			Zoom:     o.cfg.Zoom,
			Base:     LayerStandard,
			Overlays: map[string]*Layer{},
		}
	}
	return o.m
}

// Snapshot returns a copy of the map state safe to render.
func (o *Overlay) Snapshot() Map {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := *o.lazyMap()
	m.Markers = append([]Marker(nil), m.Markers...)
	m.Path = append([]LatLng(nil), m.Path...)
	m.Overlays = make(map[string]*Layer, len(o.m.Overlays))
	for name, l := range o.m.Overlays {
		m.Overlays[name] = l
	}
	return m
}

// MarkLocation moves the single location marker and centers the map on it.
func (o *Overlay) MarkLocation(lng, lat float64, title string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := o.lazyMap()
	pos := LatLng{Lat: lat, Lng: lng}
	m.Location = &Marker{Position: pos, Title: title}
	m.Center = pos
}

// PlotPoints replaces the plotted track with points, numbered in input order, and
// centers the map on their centroid.
func (o *Overlay) PlotPoints(points []tp.Point) error {
	if len(points) == 0 {
		return errors.New("no point to plot", errors.BadRequest())
	}

	markers := make([]Marker, len(points))
	path := make([]LatLng, len(points))
	var sumLat, sumLng float64
	for i, p := range points {
		pos := LatLng{Lat: p.Latitude, Lng: p.Longitude}
		markers[i] = Marker{Position: pos, Label: fmt.Sprint(i + 1), Title: title(p)}
		path[i] = pos
		sumLat += p.Latitude
		sumLng += p.Longitude
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	m := o.lazyMap()
	m.Markers = markers
	m.Path = path
	m.Center = LatLng{Lat: sumLat / float64(len(points)), Lng: sumLng / float64(len(points))}
	return nil
}

func title(p tp.Point) string {
	s := format.DisplayTime(p.Time)
	for _, part := range []string{p.Location, p.Description} {
		if part == "" {
			continue
		}
		if s != "" {
			s += " "
		}
		s += part
	}
	return s
}

// Clear removes the plotted track and the location marker.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := o.lazyMap()
	m.Markers = nil
	m.Path = nil
	m.Location = nil
}

// PlotImages plots the GPS-tagged images of a task in time order and returns how many
// were plotted. Only one plot runs at a time; a plot superseded by a newer one, or by
// a logout, is dropped with state.ErrStale.
func (o *Overlay) PlotImages(ctx context.Context, taskID int) (int, error) {
	if !o.plotting.CompareAndSwap(false, true) {
		return 0, errors.New("images are already being plotted", errors.Conflict())
	}
	defer o.plotting.Store(false)

	ticket := o.app.Seq.Next(seqPlot)

	images, err := o.images.Images(ctx, taskID)
	if err != nil {
		o.notifier.Error("could not load images: %s", errors.Message(err))
		return 0, err
	}

	if !o.app.Seq.IsLatest(seqPlot, ticket) {
		return 0, state.ErrStale
	}

	points := ImagePoints(images)
	if len(points) == 0 {
		o.notifier.Warning("no image of this task has GPS coordinates")
		return 0, nil
	}

	if err := o.PlotPoints(points); err != nil {
		return 0, err
	}
	o.notifier.Success("%d images plotted", len(points))
	return len(points), nil
}

// ImagePoints keeps the images with GPS coordinates and orders them by time.
func ImagePoints(images []tp.Image) []tp.Point {
	tagged := make([]tp.Image, 0, len(images))
	for _, img := range images {
		if img.HasGPS() {
			tagged = append(tagged, img)
		}
	}

	sort.SliceStable(tagged, func(i, j int) bool {
		return tagged[i].Time.Before(tagged[j].Time.Time)
	})

	points := make([]tp.Point, len(tagged))
	for i, img := range tagged {
		points[i] = tp.Point{
			Latitude:    *img.GPSLatitude,
			Longitude:   *img.GPSLongitude,
			Time:        img.Time.String(),
			Location:    img.Location,
			Description: img.Transportation,
			Index:       i + 1,
		}
	}
	return points
}

// SetBaseLayer switches between the standard and the satellite base layer.
func (o *Overlay) SetBaseLayer(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := o.lazyMap()
	switch name {
	case LayerStandard:
		m.Satellite = nil
	case LayerSatellite:
		if m.Satellite == nil {
			m.Satellite = o.cfg.layer(LayerSatellite)
		}
	default:
		return errors.New(fmt.Sprintf("unknown base layer %q", name), errors.BadRequest())
	}
	m.Base = name
	return nil
}

// ToggleOverlay shows or hides an overlay layer and reports whether anything
// changed. A hidden layer is dropped and recreated when shown again.
func (o *Overlay) ToggleOverlay(name string, on bool) (bool, error) {
	switch name {
	case LayerRoadNet, LayerTraffic, LayerDistrict:
	default:
		return false, errors.New(fmt.Sprintf("unknown overlay %q", name), errors.BadRequest())
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	m := o.lazyMap()
	_, shown := m.Overlays[name]
	switch {
	case on && !shown:
		m.Overlays[name] = o.cfg.layer(name)
		return true, nil
	case !on && shown:
		delete(m.Overlays, name)
		return true, nil
	}
	return false, nil
}

// ResetLayers restores the standard base layer without any overlay.
func (o *Overlay) ResetLayers() {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := o.lazyMap()
	m.Base = LayerStandard
	m.Satellite = nil
	m.Overlays = map[string]*Layer{}
}
