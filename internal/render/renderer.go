// Package render turns session state into HTML pages.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/spec-kit/ticket-generator/internal/domain"
	"github.com/spec-kit/ticket-generator/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData contains fields shared by every page.
type PageData struct {
	Title   string
	Version string
}

// FieldView is how one input and its error slot are displayed.
type FieldView struct {
	Value      string
	Message    string
	ErrorClass string
}

// FormPage is the template data for the form screen.
type FormPage struct {
	PageData
	FullName FieldView
	Email    FieldView
	GitHub   FieldView
	Avatar   FieldView
	// ShowPreview swaps the upload prompt for the preview affordance.
	ShowPreview bool
	PreviewURL  template.URL
	MaxSize     string
}

// TicketPage is the template data for the ticket screen.
type TicketPage struct {
	PageData
	Ticket        domain.TicketView
	AvatarURL     template.URL
	Phase         domain.ViewPhase
	FadeOutMillis int64
	SwapMillis    int64
	FadeInMillis  int64
}

// ErrorPage is the template data for the error page.
type ErrorPage struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer parses the embedded templates.
func NewRenderer(version string) (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	return newRenderer(sub, version)
}

func newRenderer(templates fs.FS, version string) (*Renderer, error) {
	funcMap := template.FuncMap{
		"ticketNumber": func(n int) string { return fmt.Sprintf("#%d", n) },
	}

	layout, err := template.New("layout").Funcs(funcMap).ParseFS(templates, "layout.html")
	if err != nil {
		return nil, err
	}

	pages := map[string]string{
		"form":   "form.html",
		"ticket": "ticket.html",
		"error":  "error.html",
	}

	parsed := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templates, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		parsed[name] = t
	}
	return &Renderer{templates: parsed, version: version}, nil
}

// Form renders the form screen for sess.
func (r *Renderer) Form(sess *domain.Session, maxSize string) ([]byte, error) {
	page := FormPageFor(sess, maxSize)
	page.PageData = r.pageData("Generate your conference ticket")
	return r.execute("form", page)
}

// Ticket renders the ticket screen with the cross-fade timings.
func (r *Renderer) Ticket(ticket domain.TicketView, phase domain.ViewPhase, transition service.Transition) ([]byte, error) {
	return r.execute("ticket", TicketPage{
		PageData:      r.pageData("Your ticket"),
		Ticket:        ticket,
		AvatarURL:     trustedDataURL(ticket.AvatarDataURL),
		Phase:         phase,
		FadeOutMillis: transition.FadeOut.Milliseconds(),
		SwapMillis:    transition.SwapDelay.Milliseconds(),
		FadeInMillis:  transition.FadeIn.Milliseconds(),
	})
}

// Error renders an error page.
func (r *Renderer) Error(status int, message string) ([]byte, error) {
	return r.execute("error", ErrorPage{
		PageData:   r.pageData(fmt.Sprintf("Error %d", status)),
		StatusCode: status,
		Message:    message,
	})
}

func (r *Renderer) pageData(title string) PageData {
	return PageData{Title: title, Version: r.version}
}

func (r *Renderer) execute(name string, data any) ([]byte, error) {
	t, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormPageFor maps validation verdicts and upload state onto the display
// slots. Passing fields get an empty slot; failing ones get the message
// and the error marker. An upload rejection occupies the avatar slot.
func FormPageFor(sess *domain.Session, maxSize string) FormPage {
	page := FormPage{
		FullName: FieldView{Value: sess.Form.FullName},
		Email:    FieldView{Value: sess.Form.Email},
		GitHub:   FieldView{Value: sess.Form.GitHub},
		MaxSize:  maxSize,
	}
	for _, f := range sess.Validation.Fields {
		if f.Valid {
			continue
		}
		view := FieldView{Message: f.Message, ErrorClass: "error"}
		switch f.Field {
		case domain.FieldAvatar:
			page.Avatar = view
		case domain.FieldFullName:
			view.Value = page.FullName.Value
			page.FullName = view
		case domain.FieldEmail:
			view.Value = page.Email.Value
			page.Email = view
		case domain.FieldGitHub:
			view.Value = page.GitHub.Value
			page.GitHub = view
		}
	}
	if sess.UploadError != "" {
		page.Avatar = FieldView{Message: sess.UploadError, ErrorClass: "error"}
	}
	if sess.Form.HasAvatar() && sess.Preview.Ready && sess.Preview.Generation == sess.Form.Avatar.Generation {
		page.ShowPreview = true
		page.PreviewURL = trustedDataURL(sess.Preview.DataURL)
	}
	return page
}

// Only image data URLs produced by the upload package are passed through;
// html/template would otherwise rewrite them to a placeholder.
func trustedDataURL(raw string) template.URL {
	if !strings.HasPrefix(raw, "data:image/png;base64,") && !strings.HasPrefix(raw, "data:image/jpeg;base64,") {
		return ""
	}
	return template.URL(raw)
}
