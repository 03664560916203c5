package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-formfill/internal/formfill"
	"go-formfill/internal/links"
	"go-formfill/internal/pdf"
	"go-formfill/internal/pdf/pdftest"
)

const formCSV = "name,city,agree\nAda,London,yes\nGrace,Arlington,\n"

func newRouter(t *testing.T, maxUpload int64) (http.Handler, *formfill.Service, *links.Signer) {
	t.Helper()
	root := t.TempDir()
	svc, err := formfill.New(filepath.Join(root, "templates"), filepath.Join(root, "data"), filepath.Join(root, "output"), nil)
	require.NoError(t, err)
	signer, err := links.NewSigner("test-secret", time.Minute)
	require.NoError(t, err)
	pdftest.Write(t, svc.Templates.Dir(), "form.pdf", pdftest.FormPDF())
	pdftest.Write(t, svc.Datasets.Dir(), "form.csv", []byte(formCSV))

	h := NewAPIHandler(svc, signer, maxUpload)
	r := chi.NewRouter()
	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/{name}", h.ServeTemplate)
	r.Post("/upload_template", h.UploadTemplate)
	r.Delete("/delete_template", h.DeleteTemplate)
	r.Get("/data_list", h.ListAllData)
	r.Get("/data", h.ListData)
	r.Post("/upload_data", h.UploadData)
	r.Delete("/delete_data", h.DeleteData)
	r.Get("/datafile/{name}", h.ServeData)
	r.Get("/fields", h.Fields)
	r.Post("/fill", h.Fill)
	r.Get("/outputs/{name}", h.DownloadOutput)
	return r, svc, signer
}

func upload(t *testing.T, target, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestUploadTemplate(t *testing.T) {
	h, _, _ := newRouter(t, 1<<20)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantKey    string
		wantMsg    string
	}{
		{"ok", upload(t, "/upload_template", "file", "w9.pdf", pdftest.FormPDF()), 200, "success", "Template w9.pdf uploaded successfully."},
		{"wrong field", upload(t, "/upload_template", "pdf", "w9.pdf", pdftest.FormPDF()), 400, "error", "No file part"},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/upload_template", strings.NewReader("x")), 400, "error", "No file part"},
		{"wrong extension", upload(t, "/upload_template", "file", "w9.txt", pdftest.FormPDF()), 400, "error", "Only PDF files allowed"},
		{"not a pdf", upload(t, "/upload_template", "file", "fake.pdf", []byte("hello")), 400, "error", "Uploaded file is not a valid PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decode(t, rec)[tt.wantKey])
		})
	}

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/templates", nil))
	assert.Equal(t, map[string]any{"templates": []any{"form.pdf", "w9.pdf"}}, decode(t, rec))
}

func TestUploadTooLarge(t *testing.T) {
	h, _, _ := newRouter(t, 512)
	rec := serve(h, upload(t, "/upload_template", "file", "big.pdf", bytes.Repeat([]byte("a"), 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServeTemplate(t *testing.T) {
	h, _, _ := newRouter(t, 1<<20)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/templates/form.pdf", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte(pdf.Magic)))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/templates/form.csv", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/templates/missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTemplate(t *testing.T) {
	h, _, _ := newRouter(t, 1<<20)

	rec := serve(h, httptest.NewRequest(http.MethodDelete, "/delete_template?name=..%2Fform.pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid template name", decode(t, rec)["error"])

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/delete_template?name=missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Template not found", decode(t, rec)["error"])

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/delete_template?name=form.pdf", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Template form.pdf deleted successfully.", decode(t, rec)["success"])
}

func TestDataRoutes(t *testing.T) {
	h, _, _ := newRouter(t, 1<<20)

	rec := serve(h, upload(t, "/upload_data", "file", "form_extra.csv", []byte(formCSV)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CSV form_extra.csv uploaded successfully.", decode(t, rec)["success"])

	rec = serve(h, upload(t, "/upload_data", "file", "form.xlsx", []byte(formCSV)))
	assert.Equal(t, "Only CSV files allowed", decode(t, rec)["error"])

	rec = serve(h, upload(t, "/upload_data", "file", "other.csv", []byte(formCSV)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/data_list", nil))
	assert.Equal(t, []any{"form.csv", "form_extra.csv", "other.csv"}, decode(t, rec)["csvs"])

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/data?template=form.pdf", nil))
	assert.Equal(t, []any{"form.csv", "form_extra.csv"}, decode(t, rec)["csvs"])

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/data", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/delete_data?name=nope.csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CSV not found", decode(t, rec)["error"])

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/delete_data?name=a%5Cb.csv", nil))
	assert.Equal(t, "Invalid CSV name", decode(t, rec)["error"])

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/delete_data?name=other.csv", nil))
	assert.Equal(t, "CSV other.csv deleted successfully.", decode(t, rec)["success"])
}

func TestServeData(t *testing.T) {
	h, _, _ := newRouter(t, 1<<20)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/datafile/form.csv", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "inline; filename=form.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, formCSV, rec.Body.String())

	for _, name := range []string{"form.pdf", "..form.csv", "form.csv.txt"} {
		rec = serve(h, httptest.NewRequest(http.MethodGet, "/datafile/"+name, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/datafile/missing.csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFields(t *testing.T) {
	h, _, _ := newRouter(t, 1<<20)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/fields?template=form.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Fields []pdf.Field `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"name", "city", "agree", "color", "address.street"}, pdf.Names(body.Fields))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/fields", nil))
	assert.Equal(t, "template parameter required", decode(t, rec)["error"])

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/fields?template=missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func fillRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/fill", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestFill(t *testing.T) {
	h, _, _ := newRouter(t, 1<<20)

	rec := serve(h, fillRequest(`{"template":"form.pdf","csv":"form.csv","row":1}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="filled_form.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte(pdf.Magic)))

	fields, err := pdf.Fields(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Name] = f.Value
	}
	assert.Equal(t, "Grace", got["name"])
	assert.Equal(t, "Arlington", got["city"])
	assert.Equal(t, "Off", got["agree"])
}

func TestFillErrors(t *testing.T) {
	h, svc, _ := newRouter(t, 1<<20)
	pdftest.Write(t, svc.Datasets.Dir(), "bad.csv", []byte("name,zip\nAda,1\n"))

	tests := []struct {
		body       string
		wantStatus int
		wantMsg    string
	}{
		{`not json`, 400, "Invalid JSON body"},
		{`{"template":"form.pdf"}`, 400, "template and csv required"},
		{`{"template":"missing.pdf","csv":"form.csv"}`, 404, "Template or CSV not found"},
		{`{"template":"form.pdf","csv":"missing.csv"}`, 404, "Template or CSV not found"},
		{`{"template":"form.pdf","csv":"bad.csv"}`, 400, "CSV columns do not match PDF fields: zip"},
		{`{"template":"form.pdf","csv":"form.csv","rows":[0,9]}`, 400, ""},
	}
	for _, tt := range tests {
		rec := serve(h, fillRequest(tt.body))
		assert.Equal(t, tt.wantStatus, rec.Code, tt.body)
		if tt.wantMsg != "" {
			assert.Equal(t, tt.wantMsg, decode(t, rec)["error"], tt.body)
		}
	}
}

func TestFillLinkAndDownload(t *testing.T) {
	h, _, signer := newRouter(t, 1<<20)

	rec := serve(h, fillRequest(`{"template":"form.pdf","csv":"form.csv","link":true}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	download, _ := body["download"].(string)
	require.True(t, strings.HasPrefix(download, "/outputs/"), download)

	rec = serve(h, httptest.NewRequest(http.MethodGet, download, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data, _ := io.ReadAll(rec.Body)
	assert.True(t, bytes.HasPrefix(data, []byte(pdf.Magic)))

	name := strings.TrimPrefix(strings.SplitN(download, "?", 2)[0], "/outputs/")
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/outputs/"+name+"?token=bogus", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token, err := signer.Sign("missing.pdf")
	require.NoError(t, err)
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/outputs/missing.pdf?token="+token, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
