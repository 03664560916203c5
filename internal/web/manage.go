package web

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/flosch/pongo2/v6"

	"go-formfill/internal/formfill"
	"go-formfill/internal/session"
	"go-formfill/internal/utils"
)

type logLine struct {
	Time    string
	Message string
	Failed  bool
}

func logLines(entries []session.Entry) []logLine {
	lines := make([]logLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, logLine{
			Time:    e.Time.Format(time.TimeOnly),
			Message: e.Message,
			Failed:  e.Failed,
		})
	}
	return lines
}

func lastFailed(s *session.Session, panel string) bool {
	entries := s.Entries(panel)
	return len(entries) > 0 && entries[0].Failed
}

// Manage renders the template and dataset panels.
func (u *UI) Manage(w http.ResponseWriter, r *http.Request) {
	s := u.session(w, r)
	ctx := pongo2.Context{}

	templates, err := u.Service.ListTemplates()
	if err != nil {
		log.Printf("[ERROR] list templates: %v", err)
		ctx["error"] = "Failed to list templates"
	}
	datasets, err := u.Service.ListDatasets()
	if err != nil {
		log.Printf("[ERROR] list datasets: %v", err)
		ctx["error"] = "Failed to list datasets"
	}

	ctx["templates"] = templates
	ctx["datasets"] = datasets
	ctx["templates_flash"] = s.TakeFlash(panelTemplates)
	ctx["data_flash"] = s.TakeFlash(panelData)
	ctx["templates_log"] = logLines(s.Entries(panelTemplates))
	ctx["data_log"] = logLines(s.Entries(panelData))
	ctx["templates_failed"] = lastFailed(s, panelTemplates)
	ctx["data_failed"] = lastFailed(s, panelData)
	ctx["status"] = fmt.Sprintf("%d templates, %d CSV files", len(templates), len(datasets))
	u.render(w, http.StatusOK, "manage.html", ctx)
}

// report flashes msg on the panel, logs it and redirects back to /manage.
func (u *UI) report(w http.ResponseWriter, r *http.Request, s *session.Session, panel, msg string, failed bool) {
	s.Flash(panel, msg)
	s.Log(panel, msg, failed)
	http.Redirect(w, r, "/manage", http.StatusSeeOther)
}

// formFile reads the "file" part of a management upload form.
func (u *UI) formFile(w http.ResponseWriter, r *http.Request, ext, wrongType string) (multipart.File, string, string) {
	r.Body = http.MaxBytesReader(w, r.Body, u.MaxUploadSize)
	if err := r.ParseMultipartForm(u.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", "File too large"
		}
		return nil, "", "No file part"
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", "No selected file"
	}
	if !utils.HasExt(header.Filename, ext) {
		file.Close()
		return nil, "", wrongType
	}
	return file, header.Filename, ""
}

func (u *UI) UploadTemplate(w http.ResponseWriter, r *http.Request) {
	s := u.session(w, r)
	file, filename, problem := u.formFile(w, r, ".pdf", "Only PDF files allowed")
	if problem != "" {
		u.report(w, r, s, panelTemplates, problem, true)
		return
	}
	defer file.Close()

	name, err := u.Service.SaveTemplate(r.Context(), filename, file)
	switch {
	case errors.Is(err, formfill.ErrInvalidName):
		u.report(w, r, s, panelTemplates, "Invalid template name", true)
	case errors.Is(err, formfill.ErrInvalidPDF):
		u.report(w, r, s, panelTemplates, "Uploaded file is not a valid PDF", true)
	case err != nil:
		log.Printf("[ERROR] save template: %v", err)
		u.report(w, r, s, panelTemplates, "Failed to save template", true)
	default:
		u.report(w, r, s, panelTemplates, fmt.Sprintf("Template %s uploaded successfully.", name), false)
	}
}

func (u *UI) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	s := u.session(w, r)
	name := r.FormValue("name")
	err := u.Service.DeleteTemplate(r.Context(), name)
	switch {
	case errors.Is(err, formfill.ErrInvalidName):
		u.report(w, r, s, panelTemplates, "Invalid template name", true)
	case errors.Is(err, formfill.ErrNotFound):
		u.report(w, r, s, panelTemplates, "Template not found", true)
	case err != nil:
		log.Printf("[ERROR] delete template %s: %v", name, err)
		u.report(w, r, s, panelTemplates, "Failed to delete template", true)
	default:
		u.report(w, r, s, panelTemplates, fmt.Sprintf("Template %s deleted successfully.", name), false)
	}
}

func (u *UI) UploadData(w http.ResponseWriter, r *http.Request) {
	s := u.session(w, r)
	file, filename, problem := u.formFile(w, r, ".csv", "Only CSV files allowed")
	if problem != "" {
		u.report(w, r, s, panelData, problem, true)
		return
	}
	defer file.Close()

	name, err := u.Service.SaveDataset(filename, file)
	switch {
	case errors.Is(err, formfill.ErrInvalidName):
		u.report(w, r, s, panelData, "Invalid CSV name", true)
	case errors.Is(err, formfill.ErrInvalidDataset):
		u.report(w, r, s, panelData, "Uploaded file is not a valid CSV", true)
	case err != nil:
		log.Printf("[ERROR] save dataset: %v", err)
		u.report(w, r, s, panelData, "Failed to save CSV", true)
	default:
		u.report(w, r, s, panelData, fmt.Sprintf("CSV %s uploaded successfully.", name), false)
	}
}

func (u *UI) DeleteData(w http.ResponseWriter, r *http.Request) {
	s := u.session(w, r)
	name := r.FormValue("name")
	err := u.Service.DeleteDataset(name)
	switch {
	case errors.Is(err, formfill.ErrInvalidName):
		u.report(w, r, s, panelData, "Invalid CSV name", true)
	case errors.Is(err, formfill.ErrNotFound):
		u.report(w, r, s, panelData, "CSV not found", true)
	case err != nil:
		log.Printf("[ERROR] delete dataset %s: %v", name, err)
		u.report(w, r, s, panelData, "Failed to delete CSV", true)
	default:
		u.report(w, r, s, panelData, fmt.Sprintf("CSV %s deleted successfully.", name), false)
	}
}
