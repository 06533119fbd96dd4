package mcp

import (
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"gallery", "editor", "camera"}

type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"gallery_save":         {saveToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave }},
	"gallery_get":          {getToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet }},
	"gallery_get_many":     {getManyToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetMany }},
	"gallery_list":         {listToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleList }},
	"gallery_latest":       {latestToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleLatest }},
	"gallery_search":       {searchToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch }},
	"gallery_update":       {updateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate }},
	"gallery_tag":          {tagToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleTag }},
	"gallery_bulk_tag":     {bulkTagToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulkTag }},
	"gallery_delete":       {deleteToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete }},
	"gallery_bulk_delete":  {bulkDeleteToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulkDelete }},
	"gallery_clear":        {clearToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleClear }},
	"gallery_tag_stats":    {tagStatsToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleTagStats }},
	"gallery_stats":        {statsToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleStats }},
	"gallery_suggest_tags": {suggestTagsToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSuggestTags }},
	"gallery_catalog":      {catalogToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCatalog }},
	"gallery_export":       {exportToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport }},
	"gallery_import":       {importToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport }},
	"editor_preview":       {previewToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandlePreview }},
	"editor_plan":          {planToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlan }},
	"editor_stage":         {stageToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleStage }},
	"editor_save":          {saveStagedToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSaveStaged }},
	"camera_capture":       {captureToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCapture }},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns the names that are not registered tools.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns the names that are not known types.
func ValidateDisabledTypes(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if !isKnownType(name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

func isKnownType(name string) bool {
	for _, t := range KnownTypes {
		if t == name {
			return true
		}
	}
	return false
}

// GetTypeForTool returns the prefix before the first underscore
// ("gallery_save" → "gallery").
func GetTypeForTool(toolName string) string {
	typ, _, ok := strings.Cut(toolName, "_")
	if !ok || typ == "" {
		return ""
	}
	return typ
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for _, name := range AllToolNames() {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates an MCP server with the gallery tools registered.
// Tools listed in DisabledTools or belonging to DisabledTypes are left out.
func NewServer(d Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"smartgallery",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(d)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(h.cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range h.cfg.DisabledTools {
		disabled[name] = true
	}

	registered := 0
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
		registered++
	}
	h.logger.Debug("mcp tools registered", zap.Int("count", registered), zap.Int("disabled", len(disabled)))

	return s
}

// Run serves MCP over stdio until stdin closes.
func Run(d Deps, version string) error {
	s := NewServer(d, version)
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return server.ServeStdio(s, server.WithErrorLogger(zap.NewStdLog(logger)))
}
