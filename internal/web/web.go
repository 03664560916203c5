// Package web serves the browser UI: template selection with field and
// dataset preview, PDF preview and download, and the management page for
// templates and datasets.
//
// Views are pongo2 templates embedded in the binary. CSV cells and field
// names come from uploaded files and are passed through a bluemonday strict
// policy (the "clean" filter) before rendering.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"go-formfill/internal/formfill"
	"go-formfill/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	cookieName = "formfill_session"

	panelTemplates = "templates"
	panelData      = "data"
)

var views = []string{"home.html", "preview.html", "manage.html"}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func strictPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// filterClean strips markup from untrusted text. The policy output is
// already escaped, so it is marked safe to avoid double escaping.
func filterClean(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in == nil || in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsSafeValue(strictPolicy().Sanitize(in.String())), nil
}

func registerFilters() {
	if !pongo2.FilterExists("clean") {
		_ = pongo2.RegisterFilter("clean", filterClean)
	}
}

type UI struct {
	Service       *formfill.Service
	Sessions      *session.SessionManager
	MaxUploadSize int64

	templates map[string]*pongo2.Template
}

// New parses the embedded views.
func New(svc *formfill.Service, sessions *session.SessionManager, maxUploadSize int64) (*UI, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	registerFilters()
	set := pongo2.NewSet("formfill", pongo2.NewFSLoader(sub))

	ui := &UI{
		Service:       svc,
		Sessions:      sessions,
		MaxUploadSize: maxUploadSize,
		templates:     make(map[string]*pongo2.Template, len(views)),
	}
	for _, name := range views {
		tpl, err := set.FromFile(name)
		if err != nil {
			return nil, fmt.Errorf("load view %s: %w", name, err)
		}
		ui.templates[name] = tpl
	}
	return ui, nil
}

// Routes mounts the UI on r.
func (u *UI) Routes(r chi.Router) {
	r.Get("/", u.Home)
	r.Get("/preview", u.Preview)
	r.Get("/ui/fill", u.Fill)
	r.Get("/manage", u.Manage)
	r.Post("/manage/templates", u.UploadTemplate)
	r.Post("/manage/templates/delete", u.DeleteTemplate)
	r.Post("/manage/data", u.UploadData)
	r.Post("/manage/data/delete", u.DeleteData)
}

func (u *UI) render(w http.ResponseWriter, status int, name string, ctx pongo2.Context) {
	tpl, ok := u.templates[name]
	if !ok {
		http.Error(w, "Unknown view", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteWriter(ctx, &buf); err != nil {
		log.Printf("[ERROR] render %s: %v", name, err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// session returns the caller's UI session, starting one if the cookie is
// missing or stale.
func (u *UI) session(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(cookieName); err == nil {
		if s, ok := u.Sessions.GetSession(c.Value); ok {
			s.Touch()
			return s
		}
	}
	s := u.Sessions.CreateSession()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}
