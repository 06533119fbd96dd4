package web

import (
	"encoding/json"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/config"
	"github.com/hpungsan/smartgallery/internal/editor"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
	"github.com/hpungsan/smartgallery/internal/ops"
)

// maxUploadBytes bounds request bodies on the save endpoint.
const maxUploadBytes = 64 << 20

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	store    *library.Store
	blobs    *blob.Registry
	cfg      *config.Config
	logger   *zap.Logger
	renderer *Renderer
}

func newHandlers(d Deps, renderer *Renderer) *Handlers {
	h := &Handlers{store: d.Store, blobs: d.Blobs, cfg: d.Config, logger: d.Logger, renderer: renderer}
	if h.blobs == nil {
		h.blobs = blob.NewRegistry()
	}
	if h.cfg == nil {
		h.cfg = config.DefaultConfig()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Pages

// HandleList handles GET /library, the library grid.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	result, err := ops.List(r.Context(), h.store, ops.ListInput{
		Kind:   media.Kind(kind),
		Limit:  parseIntParam(r, "limit", 24),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := ListPageData{
		PageData:   h.renderer.page("Library", "library"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Kind:       kind,
	}
	if stats, err := ops.Stats(r.Context(), h.store, h.blobs); err == nil {
		data.Stats = stats
	}
	h.renderer.renderPage(w, r, "list", data)
}

// HandleDetail handles GET /library/{id}, one item with its media.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Get(r.Context(), h.store, h.blobs, ops.GetInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: h.renderer.page(result.Item.DisplayTitle(), "library"),
		Item:     result.Item,
		Kind:     result.Kind,
		Dangling: result.Dangling,
	})
}

// HandleDelete handles DELETE /library/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.store, h.blobs, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/library")
		w.WriteHeader(http.StatusOK)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/library", http.StatusFound)
}

// HandleClear handles POST /library/clear. Requires confirm=true.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest(`confirm parameter must be "true"`))
		return
	}

	result, err := ops.Clear(r.Context(), h.store, h.blobs)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		msg := "Removed " + strconv.Itoa(result.Removed) + " items"
		_, _ = w.Write([]byte(`<div class="clear-result">` + template.HTMLEscapeString(msg) + `</div>`))
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/library", http.StatusFound)
}

// HandleSearch handles GET /search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	kind := r.URL.Query().Get("kind")

	data := SearchPageData{
		PageData: h.renderer.page("Search", "search"),
		Query:    query,
		Kind:     kind,
		HasQuery: strings.TrimSpace(query) != "",
	}

	if data.HasQuery {
		result, err := ops.Search(r.Context(), h.store, ops.SearchInput{
			Query:  query,
			Kind:   media.Kind(kind),
			Limit:  parseIntParam(r, "limit", 24),
			Offset: parseIntParam(r, "offset", 0),
		})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Items = result.Items
		data.Tokens = result.Tokens
		data.Pagination = result.Pagination
	}

	// The search box swaps only #results as the user types
	if r.Header.Get("HX-Target") == "results" {
		h.renderer.renderBlock(w, http.StatusOK, "search", "search-results", data)
		return
	}
	h.renderer.renderPage(w, r, "search", data)
}

// HandleCatalog handles GET /catalog, the Markdown catalog rendered as HTML.
func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	result, err := ops.Catalog(r.Context(), h.store, ops.CatalogInput{
		Query:  query,
		Images: parseBoolParam(r, "images"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, result.Markdown)
		return
	}

	h.renderer.renderPage(w, r, "catalog", CatalogPageData{
		PageData:     h.renderer.page("Catalog", "catalog"),
		Query:        query,
		Count:        result.Count,
		RenderedHTML: renderMarkdown(result.Markdown),
	})
}

// HandleBlob handles GET /blob/{id}, serving the bytes behind a live object URL.
func (h *Handlers) HandleBlob(w http.ResponseWriter, r *http.Request) {
	data, mimeType, ok := h.blobs.Resolve(blob.URL(r.PathValue("id")))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// JSON API

// APIList handles GET /api/library.
func (h *Handlers) APIList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(r.Context(), h.store, ops.ListInput{
		Kind:   media.Kind(r.URL.Query().Get("kind")),
		Limit:  parseIntParam(r, "limit", 0),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIGet handles GET /api/library/{id}.
func (h *Handlers) APIGet(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Get(r.Context(), h.store, h.blobs, ops.GetInput{ID: r.PathValue("id")})
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// saveRequest is the JSON body of POST /api/library.
type saveRequest struct {
	Src   string   `json:"src,omitempty"`
	Data  []byte   `json:"data_base64,omitempty"`
	MIME  string   `json:"mime,omitempty"`
	Name  string   `json:"name,omitempty"`
	Title *string  `json:"title,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// APISave handles POST /api/library with either a JSON body or a
// multipart upload (file, title, tags as a comma-separated list).
func (h *Handlers) APISave(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	input, err := h.decodeSave(r)
	if err != nil {
		h.apiError(w, r, err)
		return
	}

	result, err := ops.Save(r.Context(), h.store, h.blobs, h.cfg, input)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	h.logger.Info("item saved", zap.String("id", result.ID), zap.String("kind", string(result.Kind)))
	renderJSON(w, http.StatusCreated, result)
}

func (h *Handlers) decodeSave(r *http.Request) (ops.SaveInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req saveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return ops.SaveInput{}, errors.NewInvalidRequest("invalid JSON body: " + err.Error())
		}
		return ops.SaveInput{
			Src: req.Src, Data: req.Data, MIME: req.MIME, Name: req.Name, Title: req.Title, Tags: req.Tags,
		}, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return ops.SaveInput{}, errors.NewInvalidRequest("invalid multipart body: " + err.Error())
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return ops.SaveInput{}, errors.NewInvalidRequest("file is required")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return ops.SaveInput{}, errors.NewInvalidRequest("failed to read upload: " + err.Error())
	}

	input := ops.SaveInput{
		Data: data,
		MIME: header.Header.Get("Content-Type"),
		Name: header.Filename,
		Tags: splitTags(r.FormValue("tags")),
	}
	if title := r.FormValue("title"); title != "" {
		input.Title = &title
	}
	return input, nil
}

// updateRequest is the JSON body of PATCH /api/library/{id}.
type updateRequest struct {
	Title *string   `json:"title,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
	Src   *string   `json:"src,omitempty"`
}

// APIUpdate handles PATCH /api/library/{id}. Unknown ids answer 200 with updated=false.
func (h *Handlers) APIUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.apiError(w, r, errors.NewInvalidRequest("invalid JSON body: "+err.Error()))
		return
	}

	result, err := ops.Update(r.Context(), h.store, h.blobs, ops.UpdateInput{
		ID:    r.PathValue("id"),
		Title: req.Title,
		Tags:  req.Tags,
		Src:   req.Src,
	})
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIDelete handles DELETE /api/library/{id}.
func (h *Handlers) APIDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.store, h.blobs, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APISearch handles GET /api/search?q=.
func (h *Handlers) APISearch(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Search(r.Context(), h.store, ops.SearchInput{
		Query:  r.URL.Query().Get("q"),
		Kind:   media.Kind(r.URL.Query().Get("kind")),
		Limit:  parseIntParam(r, "limit", 0),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIStats handles GET /api/stats.
func (h *Handlers) APIStats(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Stats(r.Context(), h.store, h.blobs)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIFilter handles GET /api/editor/filter. Query parameters override the
// default edits; clamp=true forces them into range instead of rejecting them.
func (h *Handlers) APIFilter(w http.ResponseWriter, r *http.Request) {
	edits, err := parseEdits(r)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	result, err := ops.Preview(ops.PreviewInput{Edits: edits, Clamp: parseBoolParam(r, "clamp")})
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

func (h *Handlers) apiError(w http.ResponseWriter, r *http.Request, err error) {
	gErr := errors.As(err)
	message := gErr.Message
	if gErr.Code == errors.ErrInternal {
		h.logger.Error("api request failed", zap.String("path", r.URL.Path), zap.Error(err))
		message = "an internal error occurred"
	}
	renderJSONError(w, gErr, message)
}

// parseEdits reads edit fields from the query string over the defaults.
func parseEdits(r *http.Request) (editor.Edits, error) {
	q := r.URL.Query()
	e := editor.DefaultEdits()
	if v := q.Get("lighting"); v != "" {
		e.Lighting = editor.Lighting(v)
	}
	if v := q.Get("aspect"); v != "" {
		e.Aspect = editor.Aspect(v)
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"intensity", &e.Intensity},
		{"zoom", &e.Zoom},
		{"offsetX", &e.OffsetX},
		{"offsetY", &e.OffsetY},
		{"playbackRate", &e.PlaybackRate},
	}
	for _, f := range floats {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return e, errors.NewInvalidRequest(f.name + " must be a number")
		}
		*f.dst = n
	}
	return e, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// splitTags splits a comma-separated form value.
func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
