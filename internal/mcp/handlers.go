package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/capture"
	"github.com/hpungsan/smartgallery/internal/config"
	"github.com/hpungsan/smartgallery/internal/editor"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
	"github.com/hpungsan/smartgallery/internal/ops"
)

// Deps are the shared services behind every tool.
type Deps struct {
	Store  *library.Store
	Blobs  *blob.Registry
	Slot   *editor.Slot
	Config *config.Config
	Logger *zap.Logger
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store  *library.Store
	blobs  *blob.Registry
	slot   *editor.Slot
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance. Missing optional
// dependencies are replaced with fresh in-process ones.
func NewHandlers(d Deps) *Handlers {
	h := &Handlers{store: d.Store, blobs: d.Blobs, slot: d.Slot, cfg: d.Config, logger: d.Logger}
	if h.blobs == nil {
		h.blobs = blob.NewRegistry()
	}
	if h.slot == nil {
		h.slot = &editor.Slot{}
	}
	if h.cfg == nil {
		h.cfg = config.DefaultConfig()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Request types for each tool

// SaveRequest represents the arguments for gallery_save.
type SaveRequest struct {
	Src   string   `json:"src,omitempty"`
	Data  []byte   `json:"data_base64,omitempty"`
	MIME  string   `json:"mime,omitempty"`
	Name  string   `json:"name,omitempty"`
	Title *string  `json:"title,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// IDRequest represents the arguments for tools addressing one item.
type IDRequest struct {
	ID string `json:"id"`
}

// GetManyRequest represents the arguments for gallery_get_many.
type GetManyRequest struct {
	IDs []string `json:"ids"`
}

// PageRequest represents the arguments for gallery_list and gallery_search.
type PageRequest struct {
	Query  string `json:"query,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// UpdateRequest represents the arguments for gallery_update.
type UpdateRequest struct {
	ID    string    `json:"id"`
	Title *string   `json:"title,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
	Src   *string   `json:"src,omitempty"`
}

// TagRequest represents the arguments for gallery_tag and gallery_bulk_tag.
type TagRequest struct {
	ID     string   `json:"id,omitempty"`
	Query  *string  `json:"query,omitempty"`
	Tag    *string  `json:"tag,omitempty"`
	Kind   *string  `json:"kind,omitempty"`
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// SuggestTagsRequest represents the arguments for gallery_suggest_tags.
type SuggestTagsRequest struct {
	Count   int      `json:"count,omitempty"`
	Seed    *uint64  `json:"seed,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
	Quick   bool     `json:"quick,omitempty"`
}

// CatalogRequest represents the arguments for gallery_catalog.
type CatalogRequest struct {
	Query  string `json:"query,omitempty"`
	Images bool   `json:"images,omitempty"`
}

// ExportRequest represents the arguments for gallery_export.
type ExportRequest struct {
	Path  string `json:"path,omitempty"`
	Query string `json:"query,omitempty"`
}

// ImportRequest represents the arguments for gallery_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// PreviewRequest represents the arguments for editor_preview.
type PreviewRequest struct {
	Edits json.RawMessage `json:"edits,omitempty"`
	Clamp bool            `json:"clamp,omitempty"`
}

// PlanRequest represents the arguments for editor_plan.
type PlanRequest struct {
	Prompt string          `json:"prompt"`
	Edits  json.RawMessage `json:"edits,omitempty"`
}

// StageRequest represents the arguments for editor_stage.
type StageRequest struct {
	Kind  string          `json:"kind"`
	Src   string          `json:"src"`
	Name  string          `json:"name,omitempty"`
	Type  string          `json:"type,omitempty"`
	Edits json.RawMessage `json:"edits,omitempty"`
}

// SaveStagedRequest represents the arguments for editor_save.
type SaveStagedRequest struct {
	Title *string  `json:"title,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// CaptureRequest represents the arguments for camera_capture.
type CaptureRequest struct {
	ImagePath string   `json:"image_path"`
	Facing    string   `json:"facing,omitempty"`
	Effect    string   `json:"effect,omitempty"`
	Save      bool     `json:"save,omitempty"`
	Title     *string  `json:"title,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Handler implementations

// HandleSave handles the gallery_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Save(ctx, h.store, h.blobs, h.cfg, ops.SaveInput{
		Src:   input.Src,
		Data:  input.Data,
		MIME:  input.MIME,
		Name:  input.Name,
		Title: input.Title,
		Tags:  input.Tags,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGet handles the gallery_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Get(ctx, h.store, h.blobs, ops.GetInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGetMany handles the gallery_get_many tool call.
func (h *Handlers) HandleGetMany(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetManyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GetMany(ctx, h.store, ops.GetManyInput{IDs: input.IDs})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the gallery_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.store, ops.ListInput{
		Kind:   media.Kind(input.Kind),
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleLatest handles the gallery_latest tool call.
func (h *Handlers) HandleLatest(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Latest(ctx, h.store)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSearch handles the gallery_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Search(ctx, h.store, ops.SearchInput{
		Query:  input.Query,
		Kind:   media.Kind(input.Kind),
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUpdate handles the gallery_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(ctx, h.store, h.blobs, ops.UpdateInput{
		ID:    input.ID,
		Title: input.Title,
		Tags:  input.Tags,
		Src:   input.Src,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTag handles the gallery_tag tool call.
func (h *Handlers) HandleTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Tag(ctx, h.store, ops.TagInput{ID: input.ID, Add: input.Add, Remove: input.Remove})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleBulkTag handles the gallery_bulk_tag tool call.
func (h *Handlers) HandleBulkTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.BulkTag(ctx, h.store, ops.BulkTagInput{
		Filter: libraryFilter(input),
		Add:    input.Add,
		Remove: input.Remove,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the gallery_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.store, h.blobs, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleBulkDelete handles the gallery_bulk_delete tool call.
func (h *Handlers) HandleBulkDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.BulkDelete(ctx, h.store, h.blobs, ops.BulkDeleteInput{Filter: libraryFilter(input)})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleClear handles the gallery_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Clear(ctx, h.store, h.blobs)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTagStats handles the gallery_tag_stats tool call.
func (h *Handlers) HandleTagStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.TagStats(ctx, h.store)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleStats handles the gallery_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Stats(ctx, h.store, h.blobs)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSuggestTags handles the gallery_suggest_tags tool call.
func (h *Handlers) HandleSuggestTags(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SuggestTagsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SuggestTags(ops.SuggestTagsInput{
		Count:   input.Count,
		Seed:    input.Seed,
		Exclude: input.Exclude,
		Quick:   input.Quick,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCatalog handles the gallery_catalog tool call.
func (h *Handlers) HandleCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CatalogRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Catalog(ctx, h.store, ops.CatalogInput{Query: input.Query, Images: input.Images})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the gallery_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.store, h.cfg, ops.ExportInput{Path: input.Path, Query: input.Query})
	if err != nil {
		return errorResult(err), nil
	}
	h.logger.Info("library exported", zap.String("path", result.Path), zap.Int("count", result.Count))
	return successResult(result)
}

// HandleImport handles the gallery_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.store, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(strings.ToLower(strings.TrimSpace(input.Mode))),
	})
	if err != nil {
		return errorResult(err), nil
	}
	h.logger.Info("library imported", zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
	return successResult(result)
}

// HandlePreview handles the editor_preview tool call.
func (h *Handlers) HandlePreview(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PreviewRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	edits, err := decodeEdits(input.Edits)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Preview(ops.PreviewInput{Edits: edits, Clamp: input.Clamp})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePlan handles the editor_plan tool call.
func (h *Handlers) HandlePlan(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PlanRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var start *editor.Edits
	if len(input.Edits) > 0 {
		edits, err := decodeEdits(input.Edits)
		if err != nil {
			return errorResult(err), nil
		}
		start = &edits
	}

	result, err := ops.Plan(ops.PlanInput{Prompt: input.Prompt, Edits: start})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleStage handles the editor_stage tool call.
func (h *Handlers) HandleStage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StageRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	p := editor.Payload{
		Kind: media.Kind(strings.ToLower(strings.TrimSpace(input.Kind))),
		Src:  input.Src,
		Name: input.Name,
		Type: input.Type,
	}
	if len(input.Edits) > 0 {
		edits, err := decodeEdits(input.Edits)
		if err != nil {
			return errorResult(err), nil
		}
		p.Edits = &edits
	}

	if err := ops.StageTransfer(h.slot, p); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"staged": true, "kind": p.Kind})
}

// HandleSaveStaged handles the editor_save tool call.
func (h *Handlers) HandleSaveStaged(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveStagedRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SaveTransfer(ctx, h.store, h.blobs, h.cfg, h.slot, ops.SaveTransferInput{
		Title: input.Title,
		Tags:  input.Tags,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCapture handles the camera_capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ImagePath) == "" {
		return errorResult(errors.NewInvalidRequest("image_path is required")), nil
	}

	// The file stands in for whichever camera was asked for.
	want := input.Facing
	if want == "" {
		want = h.cfg.DefaultFacing
	}
	facing, ok := capture.ParseFacing(want)
	if !ok {
		return errorResult(errors.NewInvalidRequest("facing must be user or environment")), nil
	}

	result, err := ops.Capture(ctx, h.store, h.blobs, h.cfg, h.logger, ops.CaptureInput{
		Device: &capture.ImageDevice{Path: input.ImagePath, Facing: facing},
		Facing: facing,
		Effect: capture.Effect(input.Effect),
		Save:   input.Save,
		Title:  input.Title,
		Tags:   input.Tags,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// libraryFilter maps optional filter arguments onto an ops filter.
func libraryFilter(r TagRequest) ops.LibraryFilter {
	f := ops.LibraryFilter{Query: r.Query, Tag: r.Tag}
	if r.Kind != nil {
		kind := media.Kind(*r.Kind)
		f.Kind = &kind
	}
	return f
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed; they can carry paths or SQL.
func errorResult(err error) *mcp.CallToolResult {
	gErr := errors.As(err)

	message := gErr.Message
	if gErr.Code == errors.ErrInternal {
		message = "an internal error occurred"
	} else if prefix, ok := strings.CutSuffix(err.Error(), gErr.Error()); ok && prefix != "" {
		// Keep the context added by wrapping, e.g. "items[2]: "
		message = prefix + message
	}

	errorObj := map[string]any{
		"code":    gErr.Code,
		"message": message,
		"status":  gErr.Status,
	}
	if gErr.Code != errors.ErrInternal && gErr.Details != nil {
		errorObj["details"] = gErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
