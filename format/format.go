// Package format holds the display helpers shared by every view.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const DateTimeLayout = "2006-01-02 15:04:05"

// DateTime formats t as YYYY-MM-DD HH:mm:ss. The zero time gives an empty string.
func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLayout)
}

// zoned layouts carry their own offset, the others are read in the local zone.
var (
	zoned = []string{
		time.RFC3339Nano,
		time.RFC3339,
	}
	naive = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		DateTimeLayout,
		"2006-01-02 15:04",
		"2006/01/02 15:04:05",
		"2006/01/02 15:04",
		"2006-01-02",
		"2006/01/02",
	}
)

// ParseTime reads the timestamps found in backend payloads, upload forms and GPS
// files.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range zoned {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naive {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// DisplayTime reformats s with DateTime when it can be parsed and returns it as is
// otherwise.
func DisplayTime(s string) string {
	t, err := ParseTime(s)
	if err != nil {
		return s
	}
	return DateTime(t)
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FileSize renders n bytes with binary units and at most two decimals.
func FileSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}

	i := 0
	for div := int64(1024); n >= div && i < len(sizeUnits)-1; div *= 1024 {
		i++
	}

	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
