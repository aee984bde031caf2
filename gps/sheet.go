package gps

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/errors"
)

// Column names accepted in the header row, compared lower-cased.
var (
	latitudeColumns    = []string{"latitude", "lat", "纬度"}
	longitudeColumns   = []string{"longitude", "lng", "lon", "经度"}
	timeColumns        = []string{"time", "时间"}
	locationColumns    = []string{"location", "地点"}
	descriptionColumns = []string{"description", "描述"}
)

// ReadSheet returns the rows of the first sheet of an xlsx workbook.
func ReadSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.New("could not read spreadsheet", errors.BadRequest(), errors.WithCause(err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("spreadsheet has no sheet", errors.BadRequest())
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.New("could not read spreadsheet", errors.BadRequest(), errors.WithCause(err))
	}
	return rows, nil
}

// ParseSpreadsheet reads the points of the first sheet of an xlsx workbook. Every
// invalid row is reported and any of them rejects the whole import.
func ParseSpreadsheet(r io.Reader) ([]tp.Point, error) {
	rows, err := ReadSheet(r)
	if err != nil {
		return nil, err
	}
	return ParseRows(rows)
}

// ParseRows reads points from a header row followed by data rows.
func ParseRows(rows [][]string) ([]tp.Point, error) {
	if len(rows) < 2 {
		return nil, errors.New("spreadsheet has no data", errors.BadRequest())
	}

	header := rows[0]
	latCol, lngCol := column(header, latitudeColumns), column(header, longitudeColumns)
	if latCol < 0 || lngCol < 0 {
		return nil, errors.New("spreadsheet needs a latitude and a longitude column", errors.BadRequest())
	}
	timeCol, locationCol, descriptionCol := column(header, timeColumns), column(header, locationColumns), column(header, descriptionColumns)

	var (
		points  []tp.Point
		invalid []string
	)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}

		// i+2: rows are numbered from 1 and the header is row 1.
		lat, lng, err := coordinates(cell(row, latCol), cell(row, lngCol))
		if err != nil {
			invalid = append(invalid, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}

		points = append(points, tp.Point{
			Latitude:    lat,
			Longitude:   lng,
			Time:        cell(row, timeCol),
			Location:    cell(row, locationCol),
			Description: cell(row, descriptionCol),
			Index:       len(points) + 1,
		})
	}

	if len(invalid) > 0 {
		return nil, errors.New("invalid GPS rows:\n"+strings.Join(invalid, "\n"), errors.BadRequest())
	}
	if len(points) == 0 {
		return nil, errors.New("spreadsheet has no data", errors.BadRequest())
	}
	return points, nil
}

func column(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if h == name {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// HasGPSColumns reports whether the header row names a latitude or longitude column.
func HasGPSColumns(header []string) bool {
	return column(header, latitudeColumns) >= 0 || column(header, longitudeColumns) >= 0
}

type previewTable struct {
	Header  []string
	Rows    [][]string
	Total   int
	Warning bool
}

var previewTemplate = template.Must(template.New("sheet").Parse(`<div class="sheet-preview">
{{- if .Warning}}
<p class="warning">No latitude/longitude column found (纬度/latitude/lat, 经度/longitude/lng)</p>
{{- end}}
<table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
<p class="count">{{len .Rows}} of {{.Total}} rows</p>
</div>`))

// DefaultPreviewRows is the number of data rows shown when no positive count is given.
const DefaultPreviewRows = 10

// PreviewTable renders the header and the first max data rows of a sheet, warning
// when no GPS column is present.
func PreviewTable(rows [][]string, max int) template.HTML {
	if max <= 0 {
		max = DefaultPreviewRows
	}
	if len(rows) == 0 {
		return template.HTML(`<div class="sheet-preview empty">Empty spreadsheet</div>`)
	}

	data := previewTable{
		Header:  rows[0],
		Total:   len(rows) - 1,
		Warning: !HasGPSColumns(rows[0]),
	}
	for _, row := range rows[1:] {
		if len(data.Rows) == max {
			break
		}
		// pad short rows so cells stay under their header
		padded := make([]string, len(data.Header))
		copy(padded, row)
		data.Rows = append(data.Rows, padded)
	}

	buf := strings.Builder{}
	if err := previewTemplate.Execute(&buf, data); err != nil {
		return template.HTML(`<div class="sheet-preview empty">Unreadable spreadsheet</div>`)
	}
	return template.HTML(buf.String())
}
