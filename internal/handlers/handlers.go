// Package handlers provides the HTTP handlers for the form filling JSON API.
//
// This package contains the endpoints for template and dataset management,
// field inspection, form filling and download of stored outputs. Responses
// are JSON objects with either a "success" or an "error" message, except for
// endpoints that return files.
//
// Example usage:
//
//	h := handlers.NewAPIHandler(service, signer, maxUploadSize)
//	r := chi.NewRouter()
//	r.Get("/templates", h.ListTemplates)
//
// All handlers are designed to be used with the chi router.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"

	"go-formfill/internal/formfill"
	"go-formfill/internal/links"
	"go-formfill/internal/utils"

	"github.com/go-chi/chi/v5"
)

type APIHandler struct {
	Service       *formfill.Service
	Signer        *links.Signer
	MaxUploadSize int64
}

func NewAPIHandler(svc *formfill.Service, signer *links.Signer, maxUploadSize int64) *APIHandler {
	return &APIHandler{Service: svc, Signer: signer, MaxUploadSize: maxUploadSize}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeSuccess(w http.ResponseWriter, msg string, extra map[string]any) {
	body := map[string]any{"success": msg}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// internalError logs err and answers 500 without leaking details.
func internalError(w http.ResponseWriter, what string, err error) {
	log.Printf("[ERROR] %s: %v", what, err)
	writeError(w, http.StatusInternalServerError, "Failed to "+what)
}

// receiveUpload reads the multipart "file" part. On failure the response has
// been written and ok is false.
func (h *APIHandler) receiveUpload(w http.ResponseWriter, r *http.Request, ext, wrongType string) (multipart.File, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadSize)
	if err := r.ParseMultipartForm(h.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "No file part")
		return nil, "", false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part")
		return nil, "", false
	}
	if header.Filename == "" {
		file.Close()
		writeError(w, http.StatusBadRequest, "No selected file")
		return nil, "", false
	}
	if !utils.HasExt(header.Filename, ext) {
		file.Close()
		writeError(w, http.StatusBadRequest, wrongType)
		return nil, "", false
	}
	return file, header.Filename, true
}

// ListTemplates godoc
// @Summary      List templates
// @Description  Lists the stored PDF templates
// @Tags         templates
// @Produce      json
// @Success      200  {object}  map[string][]string  "{ templates: [string] }"
// @Router       /templates [get]
func (h *APIHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	names, err := h.Service.ListTemplates()
	if err != nil {
		internalError(w, "list templates", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"templates": names})
}

// ServeTemplate godoc
// @Summary      Get a template
// @Description  Returns the template PDF inline for preview
// @Tags         templates
// @Produce      application/pdf
// @Param        name  path  string  true  "Template file name"
// @Success      200  {file}  file  "PDF file"
// @Failure      400  {object}  map[string]string  "Only PDF files allowed"
// @Failure      404  {object}  map[string]string  "File not found"
// @Router       /templates/{name} [get]
func (h *APIHandler) ServeTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !utils.HasExt(name, ".pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF files allowed")
		return
	}
	path, err := h.Service.TemplatePath(name)
	switch {
	case errors.Is(err, formfill.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Invalid template name")
		return
	case errors.Is(err, formfill.ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
		return
	case err != nil:
		internalError(w, "read template", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	http.ServeFile(w, r, path)
}

// UploadTemplate godoc
// @Summary      Upload a template
// @Description  Stores a PDF template, replacing one with the same name
// @Tags         templates
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PDF file"
// @Success      200  {object}  map[string]string  "{ success: string, name: string }"
// @Failure      400  {object}  map[string]string  "Bad request"
// @Failure      413  {object}  map[string]string  "File too large"
// @Router       /upload_template [post]
func (h *APIHandler) UploadTemplate(w http.ResponseWriter, r *http.Request) {
	file, filename, ok := h.receiveUpload(w, r, ".pdf", "Only PDF files allowed")
	if !ok {
		return
	}
	defer file.Close()

	name, err := h.Service.SaveTemplate(r.Context(), filename, file)
	switch {
	case errors.Is(err, formfill.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Invalid template name")
		return
	case errors.Is(err, formfill.ErrInvalidPDF):
		writeError(w, http.StatusBadRequest, "Uploaded file is not a valid PDF")
		return
	case err != nil:
		internalError(w, "save template", err)
		return
	}
	writeSuccess(w, fmt.Sprintf("Template %s uploaded successfully.", name), map[string]any{"name": name})
}

// DeleteTemplate godoc
// @Summary      Delete a template
// @Tags         templates
// @Produce      json
// @Param        name  query  string  true  "Template file name"
// @Success      200  {object}  map[string]string  "{ success: string }"
// @Failure      400  {object}  map[string]string  "Invalid template name"
// @Failure      404  {object}  map[string]string  "Template not found"
// @Router       /delete_template [delete]
func (h *APIHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	err := h.Service.DeleteTemplate(r.Context(), name)
	switch {
	case errors.Is(err, formfill.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Invalid template name")
		return
	case errors.Is(err, formfill.ErrNotFound):
		writeError(w, http.StatusNotFound, "Template not found")
		return
	case err != nil:
		internalError(w, "delete template", err)
		return
	}
	writeSuccess(w, fmt.Sprintf("Template %s deleted successfully.", name), nil)
}

// ListAllData godoc
// @Summary      List datasets
// @Description  Lists every stored CSV dataset
// @Tags         data
// @Produce      json
// @Success      200  {object}  map[string][]string  "{ csvs: [string] }"
// @Router       /data_list [get]
func (h *APIHandler) ListAllData(w http.ResponseWriter, r *http.Request) {
	names, err := h.Service.ListDatasets()
	if err != nil {
		internalError(w, "list datasets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"csvs": names})
}

// ListData godoc
// @Summary      List datasets for a template
// @Description  Lists CSV datasets whose name starts with the template's base name
// @Tags         data
// @Produce      json
// @Param        template  query  string  true  "Template file name"
// @Success      200  {object}  map[string][]string  "{ csvs: [string] }"
// @Failure      400  {object}  map[string]string  "template parameter required"
// @Router       /data [get]
func (h *APIHandler) ListData(w http.ResponseWriter, r *http.Request) {
	template := r.URL.Query().Get("template")
	if template == "" {
		writeError(w, http.StatusBadRequest, "template parameter required")
		return
	}
	names, err := h.Service.MatchingDatasets(template)
	if err != nil {
		internalError(w, "list datasets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"csvs": names})
}

// UploadData godoc
// @Summary      Upload a dataset
// @Description  Stores a CSV dataset, replacing one with the same name
// @Tags         data
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV file"
// @Success      200  {object}  map[string]string  "{ success: string, name: string }"
// @Failure      400  {object}  map[string]string  "Bad request"
// @Failure      413  {object}  map[string]string  "File too large"
// @Router       /upload_data [post]
func (h *APIHandler) UploadData(w http.ResponseWriter, r *http.Request) {
	file, filename, ok := h.receiveUpload(w, r, ".csv", "Only CSV files allowed")
	if !ok {
		return
	}
	defer file.Close()

	name, err := h.Service.SaveDataset(filename, file)
	switch {
	case errors.Is(err, formfill.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Invalid CSV name")
		return
	case errors.Is(err, formfill.ErrInvalidDataset):
		writeError(w, http.StatusBadRequest, "Uploaded file is not a valid CSV")
		return
	case err != nil:
		internalError(w, "save dataset", err)
		return
	}
	writeSuccess(w, fmt.Sprintf("CSV %s uploaded successfully.", name), map[string]any{"name": name})
}

// DeleteData godoc
// @Summary      Delete a dataset
// @Tags         data
// @Produce      json
// @Param        name  query  string  true  "CSV file name"
// @Success      200  {object}  map[string]string  "{ success: string }"
// @Failure      400  {object}  map[string]string  "Invalid CSV name"
// @Failure      404  {object}  map[string]string  "CSV not found"
// @Router       /delete_data [delete]
func (h *APIHandler) DeleteData(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	err := h.Service.DeleteDataset(name)
	switch {
	case errors.Is(err, formfill.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Invalid CSV name")
		return
	case errors.Is(err, formfill.ErrNotFound):
		writeError(w, http.StatusNotFound, "CSV not found")
		return
	case err != nil:
		internalError(w, "delete dataset", err)
		return
	}
	writeSuccess(w, fmt.Sprintf("CSV %s deleted successfully.", name), nil)
}

// ServeData godoc
// @Summary      Get a dataset
// @Description  Returns the raw CSV content inline
// @Tags         data
// @Produce      text/csv
// @Param        name  path  string  true  "CSV file name"
// @Success      200  {string}  string  "CSV content"
// @Failure      400  {object}  map[string]string  "Only CSV files allowed"
// @Failure      404  {object}  map[string]string  "File not found"
// @Router       /datafile/{name} [get]
func (h *APIHandler) ServeData(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.Service.Datasets.CheckName(name) != nil {
		writeError(w, http.StatusBadRequest, "Only CSV files allowed")
		return
	}
	data, err := h.Service.RawDataset(name)
	switch {
	case errors.Is(err, formfill.ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
		return
	case err != nil:
		internalError(w, "read dataset", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "inline; filename="+name)
	w.Write(data)
}

// Fields godoc
// @Summary      List template fields
// @Description  Lists the fillable AcroForm fields of a template
// @Tags         fields
// @Produce      json
// @Param        template  query  string  true  "Template file name"
// @Success      200  {object}  map[string]interface{}  "{ fields: [object] }"
// @Failure      400  {object}  map[string]string  "template parameter required"
// @Failure      404  {object}  map[string]string  "Template not found"
// @Router       /fields [get]
func (h *APIHandler) Fields(w http.ResponseWriter, r *http.Request) {
	template := r.URL.Query().Get("template")
	if template == "" {
		writeError(w, http.StatusBadRequest, "template parameter required")
		return
	}
	fields, err := h.Service.Fields(r.Context(), template)
	switch {
	case errors.Is(err, formfill.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Invalid template name")
		return
	case errors.Is(err, formfill.ErrNotFound):
		writeError(w, http.StatusNotFound, "Template not found")
		return
	case err != nil:
		internalError(w, "read template fields", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string  "{ status: ok }"
// @Router       /healthz [get]
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
