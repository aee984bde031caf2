package mapview

import (
	"html/template"
	"io"
)

type page struct {
	Title      string
	Standard   string
	Subdomains string
	State      Map
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; } .num { background: #1677ff; color: #fff; border-radius: 50%; text-align: center; line-height: 24px; }</style>
</head>
<body>
<div id="map"></div>
<script>
var state = {{.State}};
// Labels come from uploads and imports: they are only ever set as text.
function text(s) {
	var el = document.createElement("span");
	el.textContent = s;
	return el;
}
var tileOptions = {subdomains: {{.Subdomains}}, maxZoom: 18};
var map = L.map("map").setView([state.center.lat, state.center.lng], state.zoom);
L.tileLayer({{.Standard}}, tileOptions).addTo(map);
if (state.satellite) {
	L.tileLayer(state.satellite.url, tileOptions).addTo(map);
}
Object.keys(state.overlays).forEach(function (name) {
	var layer = state.overlays[name];
	if (layer.kind === "geojson") {
		fetch(layer.url).then(function (res) { return res.json(); }).then(function (data) {
			L.geoJSON(data, {style: {color: "#3366ff", weight: 1, fillOpacity: 0.05}}).addTo(map);
		});
		return;
	}
	L.tileLayer(layer.url, tileOptions).addTo(map);
});
if (state.location) {
	L.marker([state.location.position.lat, state.location.position.lng]).bindPopup(text(state.location.title)).addTo(map);
}
(state.markers || []).forEach(function (m) {
	var icon = L.divIcon({className: "num", html: text(m.label), iconSize: [24, 24]});
	L.marker([m.position.lat, m.position.lng], {icon: icon, title: m.title}).bindPopup(text(m.label + ". " + m.title)).addTo(map);
});
if (state.path && state.path.length > 1) {
	var line = L.polyline(state.path.map(function (p) { return [p.lat, p.lng]; }), {color: "#1677ff"}).addTo(map);
	map.fitBounds(line.getBounds(), {padding: [40, 40]});
}
</script>
</body>
</html>
`))

// Render writes a standalone Leaflet page showing the current state of the map.
func (o *Overlay) Render(w io.Writer, title string) error {
	return pageTemplate.Execute(w, page{
		Title:      title,
		Standard:   o.cfg.Standard,
		Subdomains: o.cfg.Subdomains,
		State:      o.Snapshot(),
	})
}
