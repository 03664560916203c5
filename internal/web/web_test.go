package web

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-formfill/internal/formfill"
	"go-formfill/internal/pdf"
	"go-formfill/internal/pdf/pdftest"
	"go-formfill/internal/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *formfill.Service) {
	t.Helper()
	root := t.TempDir()
	svc, err := formfill.New(filepath.Join(root, "templates"), filepath.Join(root, "data"), filepath.Join(root, "output"), nil)
	require.NoError(t, err)
	pdftest.Write(t, svc.Templates.Dir(), "form.pdf", pdftest.FormPDF())
	pdftest.Write(t, svc.Templates.Dir(), "bare.pdf", pdftest.FormPDF())
	pdftest.Write(t, svc.Datasets.Dir(), "form.csv", []byte("name,city\n<b>Ada</b>,Smith & Co\nGrace,Arlington\n"))

	ui, err := New(svc, session.NewSessionManager(), 1<<20)
	require.NoError(t, err)
	r := chi.NewRouter()
	ui.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.String()
}

func TestHomeListsTemplates(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv.Client(), srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<option value="bare.pdf">bare.pdf</option>`)
	assert.Contains(t, body, `<option value="form.pdf">form.pdf</option>`)
	assert.Contains(t, body, `href="/manage"`)
	assert.NotContains(t, body, "Fields")
}

func TestHomeWithTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := get(t, srv.Client(), srv.URL+"/?template=form.pdf&row=1")
	assert.Contains(t, body, `<option value="form.pdf" selected>`)
	assert.Contains(t, body, "See Preview")
	assert.Contains(t, body, "address.street")
	assert.Contains(t, body, "(checkbox)")

	assert.NotContains(t, body, "<b>Ada</b>")
	assert.Contains(t, body, "<td>Ada</td>")
	assert.Contains(t, body, "Smith &amp; Co")
	assert.NotContains(t, body, "&amp;amp;")

	assert.Contains(t, body, `value="1" checked`)
	assert.NotContains(t, body, `id="fill" type="submit" disabled`)
}

func TestHomeWithoutData(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := get(t, srv.Client(), srv.URL+"/?template=bare.pdf")
	assert.Contains(t, body, "No CSV data found")

	resp, body := get(t, srv.Client(), srv.URL+"/?template=missing.pdf")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Template not found")
	assert.NotContains(t, body, "No CSV data found")
}

func TestHomeTemplateWithoutFieldsShowsData(t *testing.T) {
	srv, svc := newTestServer(t)
	pdftest.Write(t, svc.Templates.Dir(), "plain.pdf", pdftest.PlainPDF())

	_, body := get(t, srv.Client(), srv.URL+"/?template=plain.pdf")
	assert.Contains(t, body, "This template has no fillable fields.")
	assert.Contains(t, body, "No CSV data found")

	pdftest.Write(t, svc.Datasets.Dir(), "plain.csv", []byte("name\nLinus\n"))
	_, body = get(t, srv.Client(), srv.URL+"/?template=plain.pdf")
	assert.Contains(t, body, "<td>Linus</td>")
}

func TestPreview(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := get(t, srv.Client(), srv.URL+"/preview?template=form.pdf")
	assert.Contains(t, body, `src="/templates/form.pdf"`)
	assert.Contains(t, body, `href="/?template=form.pdf"`)

	_, body = get(t, srv.Client(), srv.URL+"/preview?template=form.pdf&row=0")
	assert.Contains(t, body, `src="/ui/fill?row=0&amp;template=form.pdf"`)
	assert.Contains(t, body, `href="/ui/fill?download=1&amp;row=0&amp;template=form.pdf"`)
	assert.Contains(t, body, "Close")
}

func TestFill(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv.Client(), srv.URL+"/ui/fill?template=form.pdf&row=1")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Disposition"), "inline"))
	assert.True(t, strings.HasPrefix(body, pdf.Magic))
	fields, err := pdf.Fields(strings.NewReader(body))
	require.NoError(t, err)
	for _, f := range fields {
		if f.Name == "name" {
			assert.Equal(t, "Grace", f.Value)
		}
	}

	resp, _ = get(t, srv.Client(), srv.URL+"/ui/fill?template=form.pdf&row=0&download=1")
	assert.Equal(t, `attachment; filename="filled_form.pdf"`, resp.Header.Get("Content-Disposition"))

	resp, body = get(t, srv.Client(), srv.URL+"/ui/fill?template=form.pdf&row=5")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "row out of range")

	resp, body = get(t, srv.Client(), srv.URL+"/ui/fill?template=bare.pdf&row=0")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Template or CSV not found")
}

func postFile(t *testing.T, client *http.Client, url, filename string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	resp, err := client.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestManageFlow(t *testing.T) {
	srv, svc := newTestServer(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	_, body := get(t, client, srv.URL+"/manage")
	assert.Contains(t, body, "bare.pdf")
	assert.Contains(t, body, "form.csv")
	assert.Contains(t, body, "2 templates, 1 CSV files")

	resp := postFile(t, client, srv.URL+"/manage/data", "people.csv", []byte("name\nAda\n"))
	assert.Equal(t, http.StatusOK, resp.StatusCode, "redirect is followed")
	assert.Equal(t, "/manage", resp.Request.URL.Path)

	_, body = get(t, client, srv.URL+"/manage")
	assert.NotContains(t, body, `<p class="flash">`, "flash is shown once")
	assert.Contains(t, body, "CSV people.csv uploaded successfully.")
	assert.Contains(t, body, "people.csv")

	postFile(t, client, srv.URL+"/manage/templates", "notes.txt", []byte("hello"))
	resp, err = client.PostForm(srv.URL+"/manage/templates/delete", map[string][]string{"name": {"bare.pdf"}})
	require.NoError(t, err)
	resp.Body.Close()

	_, body = get(t, client, srv.URL+"/manage")
	assert.Contains(t, body, "Only PDF files allowed")
	assert.Contains(t, body, "Template bare.pdf deleted successfully.")
	assert.Contains(t, body, "1 templates, 2 CSV files")

	names, err := svc.ListTemplates()
	require.NoError(t, err)
	assert.Equal(t, []string{"form.pdf"}, names)
}

func TestManageLogKeepsFiveEntries(t *testing.T) {
	srv, _ := newTestServer(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	for i := 0; i < 7; i++ {
		resp, err := client.PostForm(srv.URL+"/manage/data/delete", map[string][]string{"name": {"missing.csv"}})
		require.NoError(t, err)
		resp.Body.Close()
	}
	_, body := get(t, client, srv.URL+"/manage")
	assert.Equal(t, session.MaxLogEntries, strings.Count(body, `<li class="failed">`))
}
