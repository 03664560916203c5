package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go-formfill/internal/formfill"

	"github.com/go-chi/chi/v5"
)

// FillRequest is the body of POST /fill. Rows takes precedence over Row;
// with neither the first dataset row is filled. With Link set the result is
// stored and a signed download path is returned instead of the PDF.
type FillRequest struct {
	Template string `json:"template"`
	CSV      string `json:"csv"`
	Row      *int   `json:"row,omitempty"`
	Rows     []int  `json:"rows,omitempty"`
	Link     bool   `json:"link,omitempty"`
}

func (req FillRequest) rows() []int {
	if len(req.Rows) > 0 {
		return req.Rows
	}
	if req.Row != nil {
		return []int{*req.Row}
	}
	return nil
}

// FillStatus maps a formfill error to an HTTP status and client message.
func FillStatus(err error) (int, string) {
	switch {
	case errors.Is(err, formfill.ErrNotFound):
		return http.StatusNotFound, "Template or CSV not found"
	case errors.Is(err, formfill.ErrInvalidName):
		return http.StatusBadRequest, "Invalid template or CSV name"
	case errors.Is(err, formfill.ErrMissingParams),
		errors.Is(err, formfill.ErrEmptyDataset),
		errors.Is(err, formfill.ErrInvalidDataset),
		errors.Is(err, formfill.ErrNoFields),
		errors.Is(err, formfill.ErrUnmatchedColumns),
		errors.Is(err, formfill.ErrRowOutOfRange):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "Failed to fill PDF"
}

// Fill godoc
// @Summary      Fill a template
// @Description  Fills the template with one or more CSV rows and returns the PDF as an attachment
// @Tags         fill
// @Accept       json
// @Produce      application/pdf
// @Produce      json
// @Param        request  body  FillRequest  true  "Fill request"
// @Success      200  {file}  file  "Filled PDF, or { download: string } when link is set"
// @Failure      400  {object}  map[string]string  "Bad request"
// @Failure      404  {object}  map[string]string  "Template or CSV not found"
// @Router       /fill [post]
func (h *APIHandler) Fill(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	res, err := h.Service.Fill(r.Context(), formfill.FillRequest{
		Template: req.Template,
		CSV:      req.CSV,
		Rows:     req.rows(),
	})
	if err != nil {
		status, msg := FillStatus(err)
		if status == http.StatusInternalServerError {
			internalError(w, "fill PDF", err)
			return
		}
		writeError(w, status, msg)
		return
	}

	if req.Link {
		name, err := h.Service.WriteOutput(res)
		if err != nil {
			internalError(w, "store output", err)
			return
		}
		path, err := h.Signer.Path(name)
		if err != nil {
			internalError(w, "sign download link", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"download": path, "name": res.Name, "rows": res.Rows})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Write(res.Data)
}

// DownloadOutput godoc
// @Summary      Download a stored output
// @Description  Downloads a filled PDF through a signed, expiring link
// @Tags         fill
// @Produce      application/pdf
// @Param        name   path   string  true  "Output file name"
// @Param        token  query  string  true  "Link token"
// @Success      200  {file}  file  "PDF file download"
// @Failure      403  {object}  map[string]string  "Invalid or expired link"
// @Failure      404  {object}  map[string]string  "File not found"
// @Router       /outputs/{name} [get]
func (h *APIHandler) DownloadOutput(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Signer.Verify(r.URL.Query().Get("token"), name); err != nil {
		writeError(w, http.StatusForbidden, "Invalid or expired link")
		return
	}
	path, err := h.Service.OutputPath(name)
	switch {
	case errors.Is(err, formfill.ErrNotFound), errors.Is(err, formfill.ErrInvalidName):
		writeError(w, http.StatusNotFound, "File not found")
		return
	case err != nil:
		internalError(w, "read output", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}
