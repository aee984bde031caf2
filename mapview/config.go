package mapview

// LatLng is a position on the map.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

const (
	LayerStandard  = "standard"
	LayerSatellite = "satellite"
	LayerRoadNet   = "roadnet"
	LayerTraffic   = "traffic"
	LayerDistrict  = "district"
)

// Config holds the initial view and the sources of every layer. Tile URLs use the
// Leaflet {s}/{x}/{y}/{z} placeholders. The district layer is a GeoJSON document.
type Config struct {
	Center LatLng
	Zoom   int

	Subdomains string
	Standard   string
	Satellite  string
	RoadNet    string
	Traffic    string
	District   string
}

func DefaultConfig() Config {
	return Config{
		Center:     LatLng{Lat: 39.90923, Lng: 116.397428},
		Zoom:       12,
		Subdomains: "1234",
		Standard:   "https://webrd0{s}.is.autonavi.com/appmaptile?lang=zh_cn&size=1&scale=1&style=8&x={x}&y={y}&z={z}",
		Satellite:  "https://webst0{s}.is.autonavi.com/appmaptile?style=6&x={x}&y={y}&z={z}",
		RoadNet:    "https://webst0{s}.is.autonavi.com/appmaptile?style=8&x={x}&y={y}&z={z}",
		Traffic:    "https://tm.amap.com/trafficengine/mapabc/traffictile?v=1.0&t=1&x={x}&y={y}&z={z}",
		District:   "https://geo.datav.aliyun.com/areas_v3/bound/100000_full.json",
	}
}

func (c Config) layer(name string) *Layer {
	switch name {
	case LayerSatellite:
		return &Layer{Name: name, Kind: KindTile, URL: c.Satellite}
	case LayerRoadNet:
		return &Layer{Name: name, Kind: KindTile, URL: c.RoadNet}
	case LayerTraffic:
		return &Layer{Name: name, Kind: KindTile, URL: c.Traffic}
	case LayerDistrict:
		return &Layer{Name: name, Kind: KindGeoJSON, URL: c.District}
	}
	return nil
}
