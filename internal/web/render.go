package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/media"
	"github.com/hpungsan/smartgallery/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "library", "search", "catalog"
}

// ListPageData is the template data for the library grid.
type ListPageData struct {
	PageData
	Items      []media.LibraryItem
	Pagination ops.Pagination
	Kind       string
	Stats      *ops.StatsOutput
}

// DetailPageData is the template data for a single item.
type DetailPageData struct {
	PageData
	Item     media.LibraryItem
	Kind     media.Kind
	Dangling bool
}

// SearchPageData is the template data for the search page.
type SearchPageData struct {
	PageData
	Query      string
	Kind       string
	Tokens     []string
	Items      []media.LibraryItem
	Pagination ops.Pagination
	HasQuery   bool
}

// CatalogPageData is the template data for the Markdown catalog page.
type CatalogPageData struct {
	PageData
	Query        string
	Count        int
	RenderedHTML template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *zap.Logger
}

// NewRenderer parses the layout and every page from templateFS.
// It panics on malformed templates; they are embedded at build time.
func NewRenderer(templateFS fs.FS, version string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcMap := template.FuncMap{
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"mediaURL": mediaURL,
		"ago":      formatAgo,
		"isVideo":  func(it media.LibraryItem) bool { return it.IsVideo() },
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":    "list.html",
		"detail":  "detail.html",
		"search":  "search.html",
		"catalog": "catalog.html",
		"error":   "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{templates: templates, version: version, logger: logger}
}

func (r *Renderer) page(title, nav string) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav}
}

// renderPage renders a named page template with HTTP 200.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page. htmx requests get only the "content" block.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	block := "layout"
	if req != nil && req.Header.Get("HX-Request") == "true" {
		block = "content"
	}
	r.renderBlock(w, status, name, block, data)
}

// renderBlock renders a specific named block from a page template.
func (r *Renderer) renderBlock(w http.ResponseWriter, status int, page, block string, data any) {
	t, ok := r.templates[page]
	if !ok {
		r.logger.Error("template not found", zap.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.logger.Error("template execution failed", zap.String("page", page), zap.String("block", block), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error as an htmx fragment, JSON, or a full page.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	gErr := errors.As(err)
	status := gErr.Status
	message := gErr.Message
	if gErr.Code == errors.ErrInternal {
		r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
		message = "an internal error occurred"
	}

	if req.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	if wantsJSON(req) {
		renderJSONError(w, gErr, message)
		return
	}

	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", status), ""),
		StatusCode: status,
		Message:    message,
	})
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func renderJSONError(w http.ResponseWriter, gErr *errors.GalleryError, message string) {
	body := map[string]any{
		"code":    string(gErr.Code),
		"message": message,
		"status":  gErr.Status,
	}
	if gErr.Code != errors.ErrInternal && gErr.Details != nil {
		body["details"] = gErr.Details
	}
	renderJSON(w, gErr.Status, map[string]any{"error": body})
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderMarkdown converts markdown text to HTML. Raw HTML in the source is dropped.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// mediaURL maps an item src to something the page can load.
// Object URLs are served from /blob/; data URIs are passed through as trusted.
func mediaURL(src string) template.URL {
	if id, ok := blob.ID(src); ok {
		return template.URL("/blob/" + id)
	}
	if strings.HasPrefix(src, "data:image/") || strings.HasPrefix(src, "data:video/") {
		return template.URL(src)
	}
	if strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://") {
		return template.URL(src)
	}
	return template.URL("#")
}

// formatAgo renders an ISO createdAt as relative time, or returns it unchanged.
func formatAgo(createdAt string) string {
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return createdAt
	}
	return humanize.Time(t)
}
