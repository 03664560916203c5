package web

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/flosch/pongo2/v6"

	"go-formfill/internal/dataset"
	"go-formfill/internal/formfill"
	"go-formfill/internal/handlers"
)

// selectedRow parses the row query parameter; -1 means none.
func selectedRow(r *http.Request) int {
	row, err := strconv.Atoi(r.URL.Query().Get("row"))
	if err != nil || row < 0 {
		return -1
	}
	return row
}

// homeContext gathers everything the main view shows for template.
func (u *UI) homeContext(r *http.Request, template string, row int) pongo2.Context {
	ctx := pongo2.Context{
		"template":     template,
		"selected_row": row,
		"columns":      []string{},
		"rows":         [][]string{},
	}

	templates, err := u.Service.ListTemplates()
	if err != nil {
		log.Printf("[ERROR] list templates: %v", err)
		ctx["error"] = "Failed to list templates"
	}
	ctx["templates"] = templates
	if template == "" {
		return ctx
	}

	fields, err := u.Service.Fields(r.Context(), template)
	switch {
	case errors.Is(err, formfill.ErrNotFound), errors.Is(err, formfill.ErrInvalidName):
		ctx["error"] = "Template not found"
		return ctx
	case err != nil:
		log.Printf("[ERROR] read fields of %s: %v", template, err)
		ctx["error"] = "Failed to read template fields"
		return ctx
	}
	ctx["fields"] = fields

	csvName := dataset.CompanionName(template)
	ctx["csv"] = csvName
	ds, err := u.Service.Dataset(csvName)
	switch {
	case errors.Is(err, formfill.ErrNotFound), errors.Is(err, formfill.ErrEmptyDataset):
		return ctx
	case err != nil:
		ctx["error"] = err.Error()
		return ctx
	}
	ctx["columns"] = ds.Columns
	ctx["rows"] = ds.Rows
	if row >= ds.Len() {
		ctx["selected_row"] = -1
	}
	return ctx
}

// Home renders the main view: template picker, field list and the
// template's companion dataset with row selection.
func (u *UI) Home(w http.ResponseWriter, r *http.Request) {
	template := r.URL.Query().Get("template")
	u.render(w, http.StatusOK, "home.html", u.homeContext(r, template, selectedRow(r)))
}

// Preview renders the overlay with either the template itself or, when a
// row is selected, the filled PDF.
func (u *UI) Preview(w http.ResponseWriter, r *http.Request) {
	template := r.URL.Query().Get("template")
	if template == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	row := selectedRow(r)

	q := url.Values{"template": {template}}
	src := "/templates/" + url.PathEscape(template)
	download := src
	back := "/?" + q.Encode()
	if row >= 0 {
		q.Set("row", strconv.Itoa(row))
		src = "/ui/fill?" + q.Encode()
		back = "/?" + q.Encode()
		q.Set("download", "1")
		download = "/ui/fill?" + q.Encode()
	}

	u.render(w, http.StatusOK, "preview.html", pongo2.Context{
		"template": template,
		"row":      row,
		"src":      src,
		"download": download,
		"back":     back,
	})
}

// Fill fills the selected row of the template's companion dataset and
// returns the PDF inline, or as an attachment with download=1. Errors are
// reported on the main view.
func (u *UI) Fill(w http.ResponseWriter, r *http.Request) {
	template := r.URL.Query().Get("template")
	row := selectedRow(r)
	req := formfill.FillRequest{Template: template, CSV: dataset.CompanionName(template)}
	if template == "" {
		req.CSV = ""
	}
	if row >= 0 {
		req.Rows = []int{row}
	}

	res, err := u.Service.Fill(r.Context(), req)
	if err != nil {
		status, msg := handlers.FillStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("[ERROR] fill %s: %v", template, err)
		}
		ctx := u.homeContext(r, template, row)
		ctx["error"] = msg
		u.render(w, status, "home.html", ctx)
		return
	}

	disposition := "inline"
	if r.URL.Query().Get("download") == "1" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, res.Name))
	w.Write(res.Data)
}
