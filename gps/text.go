// Package gps imports bulk GPS points from pasted text or spreadsheets.
package gps

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
)

// ParseText reads one point per line as lat,lng[,time[,location]]. Blank lines are
// skipped. Any malformed line rejects the whole input.
func ParseText(s string) ([]tp.Point, error) {
	s = strings.NewReplacer("\r\n", "\n", "，", ",").Replace(s)

	var points []tp.Point
	for i, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return nil, errors.New(fmt.Sprintf("line %d: expected latitude,longitude[,time[,location]]", i+1), errors.BadRequest())
		}

		lat, lng, err := coordinates(parts[0], parts[1])
		if err != nil {
			return nil, errors.New(fmt.Sprintf("line %d: %s", i+1, err), errors.BadRequest())
		}

		p := tp.Point{Latitude: lat, Longitude: lng, Index: i + 1}
		if len(parts) > 2 {
			p.Time = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			p.Location = strings.TrimSpace(strings.Join(parts[3:], ","))
		}
		points = append(points, p)
	}

	if len(points) == 0 {
		return nil, errors.New("no GPS point found", errors.BadRequest())
	}
	return points, nil
}

// coordinates parses a latitude and a longitude and checks their range.
func coordinates(rawLat, rawLng string) (float64, float64, error) {
	rawLat, rawLng = strings.TrimSpace(rawLat), strings.TrimSpace(rawLng)

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil || math.IsNaN(lat) {
		return 0, 0, fmt.Errorf("invalid latitude %q", rawLat)
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil || math.IsNaN(lng) {
		return 0, 0, fmt.Errorf("invalid longitude %q", rawLng)
	}

	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return lat, lng, nil
}
