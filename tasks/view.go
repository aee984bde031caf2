package tasks

import (
	"html/template"
	"io"

	"github.com/russross/blackfriday"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/format"
)

const (
	markdownFlags = blackfriday.HTML_SKIP_HTML | blackfriday.HTML_SKIP_STYLE | blackfriday.HTML_SAFELINK |
		blackfriday.HTML_NOFOLLOW_LINKS | blackfriday.HTML_HREF_TARGET_BLANK
	markdownExtensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS | blackfriday.EXTENSION_AUTOLINK |
		blackfriday.EXTENSION_STRIKETHROUGH | blackfriday.EXTENSION_HARD_LINE_BREAK
)

// Description renders a task description written in markdown. Raw HTML is dropped.
func Description(md string) template.HTML {
	renderer := blackfriday.HtmlRenderer(markdownFlags, "", "")
	return template.HTML(blackfriday.Markdown([]byte(md), renderer, markdownExtensions))
}

var funcs = template.FuncMap{
	"description": Description,
	"datetime":    func(t tp.Time) string { return format.DateTime(t.Time) },
	"label":       PermissionLabel,
}

var tableTemplate = template.Must(template.New("table").Funcs(funcs).Parse(`<table class="tasks">
<thead><tr><th>#</th><th>Title</th><th>Description</th><th>Created</th><th>Actions</th></tr></thead>
<tbody>
{{- range .}}
{{- $id := .Task.ID}}
<tr class="task" data-id="{{$id}}">
<td>{{.Task.ID}}</td>
<td class="title">{{.Task.Title}}</td>
<td class="description">{{description .Task.Description}}</td>
<td class="created">{{datetime .Task.CreatedAt}}</td>
<td class="actions">{{range .Actions}}<a class="action action-{{.}}" href="/tasks/{{$id}}/{{.}}">{{.}}</a> {{end}}</td>
</tr>
{{- else}}
<tr class="empty"><td colspan="5">No task yet</td></tr>
{{- end}}
</tbody>
</table>
`))

// RenderTable writes rows as an HTML table with one link per allowed action.
func RenderTable(w io.Writer, rows []Row) error {
	return tableTemplate.Execute(w, rows)
}

var permissionsTemplate = template.Must(template.New("permissions").Funcs(funcs).Parse(`<ul class="permissions">
{{- range .}}
<li class="permission" data-username="{{.Username}}">{{.Username}} <span class="type">{{label .PermissionType}}</span>
{{- if .SharedBy}} <span class="shared-by">shared by {{.SharedBy.Username}}</span>{{end}}
{{- if .Revocable}} <button class="revoke" data-username="{{.Username}}">revoke</button>{{end}}</li>
{{- else}}
<li class="empty">Not shared with anyone</li>
{{- end}}
</ul>
`))

// RenderPermissions writes the share list of a task.
func RenderPermissions(w io.Writer, entries []PermissionEntry) error {
	return permissionsTemplate.Execute(w, entries)
}
