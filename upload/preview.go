package upload

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/format"
)

const thumbnailSize = 240

type previewData struct {
	Thumbnail template.URL
	FileName  string
	Size      string
	Time      string
	Location  string

	Transportation string
	HasGPS         bool
	Latitude       string
	Longitude      string
	People         []tp.Person
}

var previewTemplate = template.Must(template.New("preview").Parse(`<div class="upload-preview">
{{- if .Thumbnail}}
<img class="thumbnail" src="{{.Thumbnail}}" alt="{{.FileName}}">
{{- else if .FileName}}
<div class="file">{{.FileName}}</div>
{{- end}}
{{- if .FileName}}
<div class="size">{{.Size}}</div>
{{- end}}
<dl>
<dt>Time</dt><dd class="time">{{.Time}}</dd>
<dt>Location</dt><dd class="location">{{.Location}}</dd>
<dt>Transportation</dt><dd class="transportation">{{.Transportation}}</dd>
{{- if .HasGPS}}
<dt>GPS</dt><dd class="gps">{{.Latitude}}, {{.Longitude}}</dd>
{{- end}}
</dl>
{{- if .People}}
<ul class="people">
{{- range .People}}
<li class="person"><span class="name">{{.Name}}</span> <span class="id-number">{{.IDNumber}}</span> <span class="household">{{.HouseholdRegistration}}</span></li>
{{- end}}
</ul>
{{- end}}
</div>`))

const placeholder = `<div class="upload-preview empty">Fill in the form to see a preview</div>`

// Preview renders the form as it will be uploaded. It does no I/O and never fails: an
// undecodable image only loses its thumbnail.
func Preview(f *Form) template.HTML {
	if f == nil || f.Blank() {
		return template.HTML(placeholder)
	}

	data := previewData{
		Thumbnail:      thumbnail(f.File),
		FileName:       f.FileName,
		Size:           format.FileSize(int64(len(f.File))),
		Time:           format.DisplayTime(f.Time),
		Location:       f.Location,
		Transportation: f.Transportation,
		People:         f.people(),
	}
	if lat, lng, err := f.coordinates(); err == nil && lat != nil {
		data.HasGPS = true
		data.Latitude = formatCoordinate(*lat)
		data.Longitude = formatCoordinate(*lng)
	}

	buf := bytes.Buffer{}
	if err := previewTemplate.Execute(&buf, data); err != nil {
		return template.HTML(placeholder)
	}
	return template.HTML(buf.String())
}

// thumbnail returns a JPEG data URI of the image scaled to fit the preview.
func thumbnail(data []byte) template.URL {
	if len(data) == 0 {
		return ""
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	thumb := resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.Lanczos3)

	buf := bytes.Buffer{}
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return ""
	}
	return template.URL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
}
