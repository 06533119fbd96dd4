package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/config"
	"github.com/hpungsan/smartgallery/internal/db"
	"github.com/hpungsan/smartgallery/internal/kv"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
	"github.com/hpungsan/smartgallery/internal/ops"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func setupTest(t *testing.T) *Handlers {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}

	return newHandlers(Deps{
		Store:  library.New(kv.NewSQLite(database, 0), nil),
		Blobs:  blob.NewRegistry(),
		Config: config.DefaultConfig(),
	}, NewRenderer(templateSub, "test", nil))
}

// seedItem saves a photo and returns its id.
func seedItem(t *testing.T, h *Handlers, title string, tags ...string) string {
	t.Helper()
	out, err := ops.Save(context.Background(), h.store, h.blobs, h.cfg, ops.SaveInput{
		Data:  pngHeader,
		Title: &title,
		Tags:  tags,
	})
	if err != nil {
		t.Fatalf("seed %q: %v", title, err)
	}
	return out.ID
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return resp
}

// --- Pages ---

func TestHandleList_Default(t *testing.T) {
	h := setupTest(t)
	seedItem(t, h, "alpha", "beach")

	req := httptest.NewRequest("GET", "/library", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "alpha") {
		t.Error("expected item title 'alpha' in response")
	}
	if !strings.Contains(body, "#beach") {
		t.Error("expected tag chip in response")
	}
	if !strings.Contains(body, "data:image/png;base64,") {
		t.Error("expected inline image src to survive escaping")
	}
}

func TestHandleList_KindFilter(t *testing.T) {
	h := setupTest(t)
	seedItem(t, h, "still")
	if _, err := ops.Save(context.Background(), h.store, h.blobs, h.cfg, ops.SaveInput{
		Src:   "data:video/webm;base64,GkXfow==",
		Title: stringPtr("moving"),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest("GET", "/library?kind=video", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "moving") || strings.Contains(body, ">still<") {
		t.Error("expected only the video in filtered results")
	}
}

func TestHandleList_Empty(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/library", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No photos or videos yet.") {
		t.Error("expected empty state message")
	}
}

func TestHandleList_HtmxReturnsContentOnly(t *testing.T) {
	h := setupTest(t)
	seedItem(t, h, "htmx-test")

	req := httptest.NewRequest("GET", "/library", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	body := rec.Body.String()
	if strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("htmx response should not contain full layout")
	}
	if !strings.Contains(body, "htmx-test") {
		t.Error("htmx response should contain item data")
	}
}

func TestHandleList_InvalidParams(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/library?limit=notanumber&offset=bad", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest("GET", "/library?kind=audio", nil)
	rec = httptest.NewRecorder()
	h.HandleList(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleDetail(t *testing.T) {
	h := setupTest(t)
	id := seedItem(t, h, "detail-item", "one", "two")

	req := httptest.NewRequest("GET", "/library/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"detail-item", id, "#one", "#two"} {
		if !strings.Contains(body, want) {
			t.Errorf("detail page missing %q", want)
		}
	}
}

func TestHandleDetail_DanglingVideo(t *testing.T) {
	h := setupTest(t)
	if err := h.store.Add(context.Background(), media.LibraryItem{
		ID:        "old",
		Src:       blob.Prefix + "from-last-run",
		Tags:      []string{media.TagVideo},
		CreatedAt: "2024-01-01T00:00:00.000Z",
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	req := httptest.NewRequest("GET", "/library/old", nil)
	req.SetPathValue("id", "old")
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if !strings.Contains(rec.Body.String(), "no longer available") {
		t.Error("expected dangling warning")
	}
}

func TestHandleDelete(t *testing.T) {
	tests := []struct {
		name     string
		header   map[string]string
		wantCode int
		check    func(t *testing.T, rec *httptest.ResponseRecorder, id string)
	}{
		{
			name:     "htmx",
			header:   map[string]string{"HX-Request": "true"},
			wantCode: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder, _ string) {
				if got := rec.Header().Get("HX-Redirect"); got != "/library" {
					t.Errorf("HX-Redirect = %q, want /library", got)
				}
			},
		},
		{
			name:     "json",
			header:   map[string]string{"Accept": "text/html, application/json"},
			wantCode: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder, id string) {
				resp := decodeJSON(t, rec)
				if resp["deleted"] != true || resp["id"] != id {
					t.Errorf("resp = %v, want deleted %s", resp, id)
				}
			},
		},
		{
			name:     "redirect",
			wantCode: http.StatusFound,
			check: func(t *testing.T, rec *httptest.ResponseRecorder, _ string) {
				if loc := rec.Header().Get("Location"); loc != "/library" {
					t.Errorf("Location = %q, want /library", loc)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := setupTest(t)
			id := seedItem(t, h, "doomed")

			req := httptest.NewRequest("DELETE", "/library/"+id, nil)
			req.SetPathValue("id", id)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.HandleDelete(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			tc.check(t, rec, id)
			if n := len(h.store.List(context.Background())); n != 0 {
				t.Errorf("library has %d items, want 0", n)
			}
		})
	}
}

func TestHandleClear(t *testing.T) {
	h := setupTest(t)
	seedItem(t, h, "a")
	seedItem(t, h, "b")

	req := httptest.NewRequest("POST", "/library/clear", strings.NewReader("confirm=false"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleClear(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without confirm", rec.Code)
	}

	req = httptest.NewRequest("POST", "/library/clear", strings.NewReader("confirm=true"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	h.HandleClear(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeJSON(t, rec)["removed"]; got != float64(2) {
		t.Errorf("removed = %v, want 2", got)
	}
}

func TestHandleSearch(t *testing.T) {
	h := setupTest(t)
	seedItem(t, h, "Sunset pier", "beach")
	seedItem(t, h, "Snow day", "winter")

	t.Run("empty query", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/search", nil)
		rec := httptest.NewRecorder()
		h.HandleSearch(rec, req)
		body := rec.Body.String()
		if !strings.Contains(body, "Every word must appear") || strings.Contains(body, "Sunset pier") {
			t.Error("empty query should show the hint and no results")
		}
	})

	t.Run("with query", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/search?q=BEACH", nil)
		rec := httptest.NewRecorder()
		h.HandleSearch(rec, req)
		body := rec.Body.String()
		if !strings.Contains(body, "Sunset pier") || strings.Contains(body, "Snow day") {
			t.Error("expected only the beach item")
		}
		if !strings.Contains(body, "<code>beach</code>") {
			t.Error("expected lowercased token echoed")
		}
	})

	t.Run("htmx target results returns fragment", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/search?q=snow", nil)
		req.Header.Set("HX-Request", "true")
		req.Header.Set("HX-Target", "results")
		rec := httptest.NewRecorder()
		h.HandleSearch(rec, req)
		body := rec.Body.String()
		if strings.Contains(body, "<form") || strings.Contains(body, "<!DOCTYPE html>") {
			t.Error("fragment should contain only results")
		}
		if !strings.Contains(body, "Snow day") {
			t.Error("fragment should contain the match")
		}
	})
}

func TestHandleCatalog(t *testing.T) {
	h := setupTest(t)
	seedItem(t, h, "Harbor", "boats")

	req := httptest.NewRequest("GET", "/catalog", nil)
	rec := httptest.NewRecorder()
	h.HandleCatalog(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>SmartGallery Library</h1>") {
		t.Error("expected Markdown heading rendered to HTML")
	}
	if !strings.Contains(body, "Harbor") {
		t.Error("expected item title in catalog")
	}

	req = httptest.NewRequest("GET", "/catalog", nil)
	req.Header.Set("Accept", "text/markdown")
	rec = httptest.NewRecorder()
	h.HandleCatalog(rec, req)
	if !strings.HasPrefix(rec.Body.String(), "# SmartGallery Library") {
		t.Errorf("markdown body = %.40q, want raw Markdown", rec.Body.String())
	}
}

func TestHandleBlob(t *testing.T) {
	h := setupTest(t)
	url := h.blobs.Create([]byte("video-bytes"), "video/webm")
	id, _ := blob.ID(url)

	req := httptest.NewRequest("GET", "/blob/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleBlob(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/webm" {
		t.Errorf("Content-Type = %q, want video/webm", ct)
	}
	if rec.Body.String() != "video-bytes" {
		t.Errorf("body = %q, want blob bytes", rec.Body.String())
	}

	h.blobs.Revoke(url)
	rec = httptest.NewRecorder()
	h.HandleBlob(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status after revoke = %d, want 404", rec.Code)
	}
}

// --- JSON API ---

func TestAPISave_JSON(t *testing.T) {
	h := setupTest(t)

	body, _ := json.Marshal(map[string]any{
		"data_base64": pngHeader,
		"name":        "photo.png",
		"tags":        []string{"Trip"},
	})
	req := httptest.NewRequest("POST", "/api/library", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.APISave(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON(t, rec)
	item := resp["item"].(map[string]any)
	if item["title"] != "photo.png" {
		t.Errorf("title = %v, want photo.png", item["title"])
	}
	if tags := item["tags"].([]any); len(tags) != 1 || tags[0] != "trip" {
		t.Errorf("tags = %v, want [trip]", tags)
	}
}

func TestAPISave_Multipart(t *testing.T) {
	h := setupTest(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "upload.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write(pngHeader)
	_ = mw.WriteField("title", "Uploaded")
	_ = mw.WriteField("tags", "a, b")
	mw.Close()

	req := httptest.NewRequest("POST", "/api/library", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.APISave(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	item := decodeJSON(t, rec)["item"].(map[string]any)
	if item["title"] != "Uploaded" {
		t.Errorf("title = %v, want Uploaded", item["title"])
	}
	if !strings.HasPrefix(item["src"].(string), "data:image/png;base64,") {
		t.Errorf("src = %.40v, want sniffed PNG data URI", item["src"])
	}
}

func TestAPISave_Errors(t *testing.T) {
	h := setupTest(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", "{"},
		{"no media", `{"title":"x"}`},
		{"bad scheme", `{"src":"ftp://example.com/a.png"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/library", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.APISave(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			errObj := decodeJSON(t, rec)["error"].(map[string]any)
			if errObj["code"] != "INVALID_REQUEST" {
				t.Errorf("code = %v, want INVALID_REQUEST", errObj["code"])
			}
		})
	}
}

func TestAPIUpdate(t *testing.T) {
	h := setupTest(t)
	id := seedItem(t, h, "before")

	req := httptest.NewRequest("PATCH", "/api/library/"+id, strings.NewReader(`{"title":"after","tags":["X","x"]}`))
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.APIUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if decodeJSON(t, rec)["updated"] != true {
		t.Error("updated should be true")
	}
	item, err := h.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item.DisplayTitle() != "after" || len(item.Tags) != 1 || item.Tags[0] != "x" {
		t.Errorf("item = %+v, want title after and tags [x]", item)
	}

	// Unknown ids are a silent no-op
	req = httptest.NewRequest("PATCH", "/api/library/missing", strings.NewReader(`{"title":"ghost"}`))
	req.SetPathValue("id", "missing")
	rec = httptest.NewRecorder()
	h.APIUpdate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if decodeJSON(t, rec)["updated"] != false {
		t.Error("updated should be false for unknown id")
	}
}

func TestAPIListGetDelete(t *testing.T) {
	h := setupTest(t)
	first := seedItem(t, h, "first")
	second := seedItem(t, h, "second")

	rec := httptest.NewRecorder()
	h.APIList(rec, httptest.NewRequest("GET", "/api/library?limit=1", nil))
	resp := decodeJSON(t, rec)
	items := resp["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["id"] != second {
		t.Errorf("items = %v, want newest first", items)
	}
	if resp["pagination"].(map[string]any)["has_more"] != true {
		t.Error("has_more should be true")
	}

	req := httptest.NewRequest("GET", "/api/library/"+first, nil)
	req.SetPathValue("id", first)
	rec = httptest.NewRecorder()
	h.APIGet(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}

	for i := 0; i < 2; i++ {
		req = httptest.NewRequest("DELETE", "/api/library/"+first, nil)
		req.SetPathValue("id", first)
		rec = httptest.NewRecorder()
		h.APIDelete(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("delete #%d status = %d, want 200", i+1, rec.Code)
		}
	}

	req = httptest.NewRequest("GET", "/api/library/"+first, nil)
	req.SetPathValue("id", first)
	rec = httptest.NewRecorder()
	h.APIGet(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestAPISearch(t *testing.T) {
	h := setupTest(t)
	seedItem(t, h, "Red car", "vehicle")
	seedItem(t, h, "Red door")

	rec := httptest.NewRecorder()
	h.APISearch(rec, httptest.NewRequest("GET", "/api/search?q=red,vehicle", nil))
	resp := decodeJSON(t, rec)
	if items := resp["items"].([]any); len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}
	if tokens := resp["tokens"].([]any); len(tokens) != 2 {
		t.Errorf("tokens = %v, want 2", tokens)
	}
}

func TestAPIFilter(t *testing.T) {
	h := setupTest(t)

	tests := []struct {
		name       string
		query      string
		wantCode   int
		wantFilter string
	}{
		{"defaults", "", http.StatusOK, "none"},
		{"retro full", "lighting=retro&intensity=100", http.StatusOK, "hue-rotate(30deg) sepia(0.3) saturate(1.2)"},
		{"out of range rejected", "intensity=150", http.StatusBadRequest, ""},
		{"out of range clamped", "lighting=retro&intensity=150&clamp=true", http.StatusOK, "hue-rotate(30deg) sepia(0.3) saturate(1.2)"},
		{"not a number", "zoom=big", http.StatusBadRequest, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.APIFilter(rec, httptest.NewRequest("GET", "/api/editor/filter?"+tc.query, nil))
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			if tc.wantFilter == "" {
				return
			}
			pres := decodeJSON(t, rec)["presentation"].(map[string]any)
			if pres["filter"] != tc.wantFilter {
				t.Errorf("filter = %v, want %s", pres["filter"], tc.wantFilter)
			}
		})
	}
}

// --- Server ---

func TestServerRoutes(t *testing.T) {
	h := setupTest(t)
	id := seedItem(t, h, "routed")

	srv, err := NewServer(Deps{Store: h.store, Blobs: h.blobs, Config: h.cfg}, "test", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/", http.StatusFound},
		{"GET", "/library", http.StatusOK},
		{"GET", "/library/" + id, http.StatusOK},
		{"GET", "/search?q=routed", http.StatusOK},
		{"GET", "/catalog", http.StatusOK},
		{"GET", "/api/library", http.StatusOK},
		{"GET", "/api/library/" + id, http.StatusOK},
		{"GET", "/api/stats", http.StatusOK},
		{"GET", "/api/editor/filter?lighting=cool", http.StatusOK},
		{"GET", "/blob/nope", http.StatusNotFound},
		{"GET", "/static/style.css", http.StatusOK},
		{"PUT", "/api/library/" + id, http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, nil)
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
			if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
				t.Error("missing security headers")
			}
		})
	}
}

// --- Helper functions ---

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query    string
		name     string
		def      int
		expected int
	}{
		{"", "limit", 20, 20},
		{"limit=50", "limit", 20, 50},
		{"limit=bad", "limit", 20, 20},
		{"offset=10", "offset", 0, 10},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/?"+tt.query, nil)
		if got := parseIntParam(req, tt.name, tt.def); got != tt.expected {
			t.Errorf("parseIntParam(%q, %q, %d) = %d, want %d", tt.query, tt.name, tt.def, got, tt.expected)
		}
	}
}

func TestMediaURL(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{blob.Prefix + "abc", "/blob/abc"},
		{"data:image/png;base64,AA", "data:image/png;base64,AA"},
		{"https://example.com/a.jpg", "https://example.com/a.jpg"},
		{"javascript:alert(1)", "#"},
		{"data:text/html;base64,AA", "#"},
	}
	for _, tt := range tests {
		if got := string(mediaURL(tt.src)); got != tt.want {
			t.Errorf("mediaURL(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func stringPtr(s string) *string { return &s }
