package http

import (
	"html"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const previewCSP = "sandbox allow-scripts allow-forms allow-popups allow-modals"

// previewErrorDoc is served when a project has nothing to render and no
// external URL to fall back to.
const previewErrorDoc = `<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>تعذر عرض المشروع</title>
</head>
<body>
<h1>تعذر عرض المشروع</h1>
<p>لا يحتوي المشروع &quot;%s&quot; على ملف HTML صالح للمعاينة.</p>
</body>
</html>`

// PreviewProject handles GET /api/v1/projects/{id}/preview. The merged
// document is served inline, or as an attachment with ?download=1. A
// project that cannot be rendered redirects to its URL when that is an
// absolute http(s) URL and otherwise gets an error document with 422.
func (h *Handlers) PreviewProject(w http.ResponseWriter, r *http.Request) {
	pv, err := h.Previews.Render(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}

	hdr := w.Header()
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set("Cache-Control", "no-store")

	if !pv.Renderable {
		if isAbsoluteHTTP(pv.Project.URL) {
			http.Redirect(w, r, pv.Project.URL, http.StatusFound)
			return
		}
		hdr.Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(strings.Replace(previewErrorDoc, "%s", html.EscapeString(pv.Project.Name), 1)))
		return
	}

	hdr.Set("Content-Type", "text/html; charset=utf-8")
	hdr.Set("Content-Security-Policy", previewCSP)
	if pv.DegradedFiles > 0 {
		hdr.Set("X-Preview-Degraded-Files", strconv.Itoa(pv.DegradedFiles))
	}
	if r.URL.Query().Get("download") == "1" {
		hdr.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": downloadName(pv.Project.FileName, pv.Project.Name),
		}))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(pv.Document))
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https")
}

// downloadName picks the attachment file name: the markup name when set,
// otherwise the project name with an .html extension.
func downloadName(fileName, projectName string) string {
	name := fileName
	if name == "" {
		name = strings.TrimSpace(projectName)
		if name == "" {
			name = "project"
		}
		name += ".html"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
}
