// Package render draws a form.State as the contact form HTML page.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/kjstillabower/contact-form-service/internal/form"
	"github.com/kjstillabower/contact-form-service/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrorPrefix precedes every rendered validation message.
const ErrorPrefix = "Error: "

// FieldView is one labeled input as the template sees it.
type FieldView struct {
	Name      string
	Label     string
	Required  bool
	Multiline bool
	Value     string
	Error     string
}

// DisplayView is one read-only region of the submitted summary.
type DisplayView struct {
	TestID string
	Label  string
	Value  string
}

// PageView is everything the contact page template needs.
type PageView struct {
	Title    string
	Phase    string
	Fields   []FieldView
	Displays []DisplayView
}

var labels = map[models.Field]string{
	models.FieldFirstName: "First Name",
	models.FieldLastName:  "Last Name",
	models.FieldEmail:     "Email",
	models.FieldMessage:   "Message",
}

// Label returns the human label for f.
func Label(f models.Field) string {
	return labels[f]
}

// DisplayTestID returns the test identifier of the summary region for f.
func DisplayTestID(f models.Field) string {
	return string(f) + "Display"
}

// NewPageView derives the page model from s. Only visible errors are shown.
// The message region is omitted when the submitted message is empty.
func NewPageView(s form.State) PageView {
	visible := s.VisibleErrors()
	view := PageView{
		Title: "Contact Form",
		Phase: s.Phase().String(),
	}
	for _, f := range models.Fields {
		fv := FieldView{
			Name:      string(f),
			Label:     Label(f),
			Required:  f != models.FieldMessage,
			Multiline: f == models.FieldMessage,
			Value:     s.Values.Get(f),
		}
		if msg := visible.Message(f); msg != "" {
			fv.Error = ErrorPrefix + msg
		}
		view.Fields = append(view.Fields, fv)
	}
	if snap, ok := s.Snapshot(); ok {
		for _, f := range models.Fields {
			v := snap.Get(f)
			if f == models.FieldMessage && v == "" {
				continue
			}
			view.Displays = append(view.Displays, DisplayView{
				TestID: DisplayTestID(f),
				Label:  Label(f),
				Value:  v,
			})
		}
	}
	return view
}

// Renderer executes the embedded page template.
type Renderer struct {
	page *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	page, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{page: page}, nil
}

// Render writes the full contact page for s to w. Output is buffered; nothing
// reaches w when the template fails.
func (r *Renderer) Render(w io.Writer, s form.State) error {
	var buf bytes.Buffer
	if err := r.page.ExecuteTemplate(&buf, "page.html", NewPageView(s)); err != nil {
		return fmt.Errorf("render contact page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
