package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/showcase/internal/adapter/localfs"
	"github.com/Strob0t/showcase/internal/adapter/memstore"
	"github.com/Strob0t/showcase/internal/adapter/ristretto"
	"github.com/Strob0t/showcase/internal/domain/preview"
	"github.com/Strob0t/showcase/internal/domain/project"
	"github.com/Strob0t/showcase/internal/domain/request"
	"github.com/Strob0t/showcase/internal/service"
)

type fixture struct {
	router http.Handler
	store  *memstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	c, err := ristretto.New(1 << 20)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	projects := service.NewProjectService(store, nil)
	previews := service.NewPreviewService(store, preview.NewMerger(preview.NewLoader(nil), 2), c, time.Minute)
	projects.SetPreviewInvalidator(previews)
	uploads := service.NewUploadService(localfs.New(afero.NewMemMapFs(), "/files", "https://files.example.com"))
	projects.SetFileRemover(uploads)

	h := &Handlers{
		Projects:  projects,
		Previews:  previews,
		Requests:  service.NewRequestService(store, nil),
		Uploads:   uploads,
		BodyLimit: 1 << 20,
	}
	r := chi.NewRouter()
	MountRoutes(r, h)
	return &fixture{router: r, store: store}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// orderedFiles renders a files object with keys in the given order.
// encoding/json sorts map keys, so the order must be written by hand.
func orderedFiles(t *testing.T, files ...project.FileEntry) json.RawMessage {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range files {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		require.NoError(t, err)
		v, err := json.Marshal(map[string]string{"name": e.File.Name, "content": e.File.Content})
		require.NoError(t, err)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func inlineEntry(name, mime, text string) project.FileEntry {
	return project.FileEntry{Key: name, File: project.File{Name: name, Content: preview.EncodeDataURL(mime, []byte(text))}}
}

func htmlProject(t *testing.T, name string) map[string]any {
	t.Helper()
	return map[string]any{
		"name":         name,
		"description":  "static bundle",
		"project_type": "file",
		"files": orderedFiles(t,
			inlineEntry("index.html", "text/html", "<html><head></head><body><h1>مرحبا</h1></body></html>"),
			inlineEntry("style.css", "text/css", "h1{color:red}"),
			inlineEntry("app.js", "application/javascript", "console.log('x')"),
		),
	}
}

func TestProjectCRUD(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/projects", htmlProject(t, "Bundle"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[project.Project](t, rec)
	assert.Equal(t, "projects/index.html", created.URL)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = f.do(t, http.MethodGet, "/api/v1/projects/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[project.Project](t, rec)
	keys := []string{}
	for _, e := range got.Files.Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"index.html", "style.css", "app.js"}, keys)

	rec = f.do(t, http.MethodPut, "/api/v1/projects/"+created.ID, map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", decode[project.Project](t, rec).Name)

	rec = f.do(t, http.MethodPost, "/api/v1/projects/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[project.Project](t, rec).IsActive)

	rec = f.do(t, http.MethodGet, "/api/v1/gallery", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/projects", nil)
	assert.Len(t, decode[[]project.Project](t, rec), 1)

	rec = f.do(t, http.MethodDelete, "/api/v1/projects/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/projects/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"project not found"}`, rec.Body.String())
}

func TestCreateProjectErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/projects", map[string]any{"description": "d", "url": "https://example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"name is required"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := strings.Repeat("a", 2<<20)
	rec = f.do(t, http.MethodPost, "/api/v1/projects", map[string]any{"name": big})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestGalleryLatest(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"a", "b", "c"} {
		require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/projects", htmlProject(t, n)).Code)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/gallery/latest?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]project.Project](t, rec), 2)

	rec = f.do(t, http.MethodGet, "/api/v1/gallery/latest?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewInline(t *testing.T) {
	f := newFixture(t)
	created := decode[project.Project](t, f.do(t, http.MethodPost, "/api/v1/projects", htmlProject(t, "Bundle")))

	rec := f.do(t, http.MethodGet, "/api/v1/projects/"+created.ID+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, previewCSP, rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا", doc.Find("h1").Text())
	assert.Contains(t, doc.Find("head style").Text(), "h1{color:red}")
	assert.Contains(t, doc.Find("body script").Text(), "console.log('x')")
	_, hasCharset := doc.Find("head meta").Attr("charset")
	assert.True(t, hasCharset)
}

func TestPreviewDownload(t *testing.T) {
	f := newFixture(t)
	created := decode[project.Project](t, f.do(t, http.MethodPost, "/api/v1/projects", htmlProject(t, "Bundle")))

	rec := f.do(t, http.MethodGet, "/api/v1/projects/"+created.ID+"/preview?download=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=index.html`, rec.Header().Get("Content-Disposition"))
}

func TestPreviewURLProjectRedirects(t *testing.T) {
	f := newFixture(t)
	created := decode[project.Project](t, f.do(t, http.MethodPost, "/api/v1/projects", map[string]any{
		"name": "Site", "description": "external", "url": "https://example.com/app",
	}))

	rec := f.do(t, http.MethodGet, "/api/v1/projects/"+created.ID+"/preview", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/app", rec.Header().Get("Location"))
}

func TestPreviewUnrenderable(t *testing.T) {
	f := newFixture(t)
	p := &project.Project{ID: "broken", Name: "<Broken>", ProjectType: project.TypeFile, URL: "projects/index.html"}
	require.NoError(t, f.store.CreateProject(context.Background(), p))

	rec := f.do(t, http.MethodGet, "/api/v1/projects/broken/preview", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	lang, _ := doc.Find("html").Attr("lang")
	dir, _ := doc.Find("html").Attr("dir")
	assert.Equal(t, "ar", lang)
	assert.Equal(t, "rtl", dir)
	assert.Contains(t, doc.Find("p").Text(), "<Broken>")
}

func TestPreviewNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/projects/missing/preview", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestServiceRequests(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/requests", map[string]any{
		"type": "website", "service": "landing", "description": "need a site",
		"customer_info": map[string]any{"client_name": "Omar", "email": "omar@example.com"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[request.ServiceRequest](t, rec)
	assert.Equal(t, request.StatusPending, created.Status)

	rec = f.do(t, http.MethodGet, "/api/v1/requests/pending-count", nil)
	assert.JSONEq(t, `{"pending":1}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/requests/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, request.StatusApproved, decode[request.ServiceRequest](t, rec).Status)

	rec = f.do(t, http.MethodPost, "/api/v1/requests/"+created.ID+"/reject", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "is already approved")

	rec = f.do(t, http.MethodGet, "/api/v1/requests", nil)
	assert.Len(t, decode[[]request.ServiceRequest](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/v1/requests/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/requests/"+created.ID, nil).Code)
}

func TestUploadThenCreate(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range map[string]string{"index.html": "<p>uploaded</p>"} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte(content))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	up := decode[service.UploadResult](t, rec)
	idx, ok := up.Files.Get("index.html")
	require.True(t, ok)
	assert.Equal(t, "https://files.example.com/project-files/"+up.ProjectID+"/index.html", idx.URL)
	assert.Equal(t, "text/html", idx.MimeType)

	rec = f.do(t, http.MethodPost, "/api/v1/projects", map[string]any{
		"id": up.ProjectID, "name": "Uploaded", "description": "from storage",
		"project_type": "file", "files": up.Files,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, up.ProjectID, decode[project.Project](t, rec).ID)
}

func TestUploadRequiresMultipart(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/uploads", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "home.htm", downloadName("home.htm", "x"))
	assert.Equal(t, "My Site.html", downloadName("", " My Site "))
	assert.Equal(t, "project.html", downloadName("", ""))
	assert.Equal(t, "a_b.html", downloadName("", "a/b"))
}
