package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stringItems = mcp.Items(map[string]any{"type": "string"})

var editsSchema = mcp.Properties(map[string]any{
	"lighting":     map[string]any{"type": "string", "enum": []string{"none", "retro", "cinematic", "cool"}},
	"intensity":    map[string]any{"type": "number", "minimum": 0, "maximum": 100},
	"zoom":         map[string]any{"type": "number", "minimum": 1},
	"offsetX":      map[string]any{"type": "number", "minimum": -50, "maximum": 50},
	"offsetY":      map[string]any{"type": "number", "minimum": -50, "maximum": 50},
	"aspect":       map[string]any{"type": "string", "description": "16:9, 1:1, 9:16, 4:3, or a custom label"},
	"playbackRate": map[string]any{"type": "number", "minimum": 0.25, "maximum": 2},
})

// Library tools

var saveToolDef = mcp.NewTool("gallery_save",
	mcp.WithDescription("Save a photo or video to the library. Provide exactly one of src or data_base64. "+
		"Videos larger than the inline limit are kept as object URLs that expire with this process."),
	mcp.WithString("src", mcp.Description("data: URI, live blob: URL, or http(s) URL")),
	mcp.WithString("data_base64", mcp.Description("Raw media bytes, base64 encoded")),
	mcp.WithString("mime", mcp.Description("MIME type of data_base64; sniffed when omitted")),
	mcp.WithString("name", mcp.Description("Original file name, used as the default title")),
	mcp.WithString("title", mcp.Description("Display title")),
	mcp.WithArray("tags", mcp.Description("Tags, lowercased and deduplicated"), stringItems),
)

var getToolDef = mcp.NewTool("gallery_get",
	mcp.WithDescription("Fetch one library item by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
)

var getManyToolDef = mcp.NewTool("gallery_get_many",
	mcp.WithDescription("Fetch up to 50 items by id. Missing ids are reported in errors, not as a failure."),
	mcp.WithArray("ids", mcp.Required(), mcp.Description("Item ids"), stringItems),
)

var listToolDef = mcp.NewTool("gallery_list",
	mcp.WithDescription("List library items, most recent first."),
	mcp.WithString("kind", mcp.Description("image or video")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var latestToolDef = mcp.NewTool("gallery_latest",
	mcp.WithDescription("Return the most recently saved item and the last captured photo."),
)

var searchToolDef = mcp.NewTool("gallery_search",
	mcp.WithDescription("Search titles and tags. Every whitespace- or comma-separated token must match (case-insensitive substring)."),
	mcp.WithString("query", mcp.Description("Search text; blank matches everything")),
	mcp.WithString("kind", mcp.Description("image or video")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var updateToolDef = mcp.NewTool("gallery_update",
	mcp.WithDescription("Overwrite the title, tags, or src of an item. Unknown ids are a no-op."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithArray("tags", mcp.Description("Replacement tag list"), stringItems),
	mcp.WithString("src", mcp.Description("Replacement media source")),
)

var tagToolDef = mcp.NewTool("gallery_tag",
	mcp.WithDescription("Add and remove tags on one item. Removals run after additions."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	mcp.WithArray("add", mcp.Description("Tags to add"), stringItems),
	mcp.WithArray("remove", mcp.Description("Tags to remove"), stringItems),
)

var bulkTagToolDef = mcp.NewTool("gallery_bulk_tag",
	mcp.WithDescription("Add and remove tags on every item matching the filters. At least one filter is required."),
	mcp.WithString("query", mcp.Description("Search text filter")),
	mcp.WithString("tag", mcp.Description("Items carrying this tag")),
	mcp.WithString("kind", mcp.Description("image or video")),
	mcp.WithArray("add", mcp.Description("Tags to add"), stringItems),
	mcp.WithArray("remove", mcp.Description("Tags to remove"), stringItems),
)

var deleteToolDef = mcp.NewTool("gallery_delete",
	mcp.WithDescription("Delete one item. Deleting an absent id succeeds with deleted=false."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
)

var bulkDeleteToolDef = mcp.NewTool("gallery_bulk_delete",
	mcp.WithDescription("Delete every item matching the filters. At least one filter is required."),
	mcp.WithString("query", mcp.Description("Search text filter")),
	mcp.WithString("tag", mcp.Description("Items carrying this tag")),
	mcp.WithString("kind", mcp.Description("image or video")),
)

var clearToolDef = mcp.NewTool("gallery_clear",
	mcp.WithDescription("Remove every item from the library. The last captured photo is kept."),
)

var tagStatsToolDef = mcp.NewTool("gallery_tag_stats",
	mcp.WithDescription("Count items per tag, most used first."),
)

var statsToolDef = mcp.NewTool("gallery_stats",
	mcp.WithDescription("Report item counts and storage usage against the quota."),
)

var suggestTagsToolDef = mcp.NewTool("gallery_suggest_tags",
	mcp.WithDescription("Suggest tags from the built-in vocabulary. Suggestions are random, not derived from the media."),
	mcp.WithNumber("count", mcp.Description("Number of suggestions (default 12)")),
	mcp.WithNumber("seed", mcp.Description("Fixes the sample for repeatable results")),
	mcp.WithArray("exclude", mcp.Description("Tags already applied"), stringItems),
	mcp.WithBoolean("quick", mcp.Description("Return the short quick-tag list instead")),
)

var catalogToolDef = mcp.NewTool("gallery_catalog",
	mcp.WithDescription("Render the library, optionally filtered, as a Markdown document."),
	mcp.WithString("query", mcp.Description("Search text filter")),
	mcp.WithBoolean("images", mcp.Description("Embed inline photos")),
)

var exportToolDef = mcp.NewTool("gallery_export",
	mcp.WithDescription("Export the library to a JSONL file."),
	mcp.WithString("path", mcp.Description("Destination .jsonl path; defaults to the exports directory")),
	mcp.WithString("query", mcp.Description("Only export matching items")),
)

var importToolDef = mcp.NewTool("gallery_import",
	mcp.WithDescription("Import items from a JSONL export file in one write."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
	mcp.WithString("mode", mcp.Description("On id collision: error (default, atomic), replace, or skip"),
		mcp.Enum("error", "replace", "skip")),
)

// Editor tools

var previewToolDef = mcp.NewTool("editor_preview",
	mcp.WithDescription("Derive the CSS filter, crop transform, aspect padding and playback rate for a set of edits."),
	mcp.WithObject("edits", mcp.Description("Edits; omitted fields take their defaults"), editsSchema),
	mcp.WithBoolean("clamp", mcp.Description("Force values into range instead of rejecting them")),
)

var planToolDef = mcp.NewTool("editor_plan",
	mcp.WithDescription("Turn a free-text request (e.g. \"retro lighting, crop to square\") into edit steps and apply them."),
	mcp.WithString("prompt", mcp.Required(), mcp.Description("What to do")),
	mcp.WithObject("edits", mcp.Description("Starting edits; defaults when omitted"), editsSchema),
)

var stageToolDef = mcp.NewTool("editor_stage",
	mcp.WithDescription("Hand media to the editor. Replaces any payload not yet saved."),
	mcp.WithString("kind", mcp.Required(), mcp.Description("image or video"), mcp.Enum("image", "video")),
	mcp.WithString("src", mcp.Required(), mcp.Description("Media source")),
	mcp.WithString("name", mcp.Description("Original file name")),
	mcp.WithString("type", mcp.Description("MIME type")),
	mcp.WithObject("edits", mcp.Description("Edits in progress"), editsSchema),
)

var saveStagedToolDef = mcp.NewTool("editor_save",
	mcp.WithDescription("Save the staged editor payload to the library. The payload is consumed."),
	mcp.WithString("title", mcp.Description("Display title")),
	mcp.WithArray("tags", mcp.Description("Tags"), stringItems),
)

// Camera tools

var captureToolDef = mcp.NewTool("camera_capture",
	mcp.WithDescription("Take a photo from an image file acting as the camera. The photo becomes the last capture."),
	mcp.WithString("image_path", mcp.Required(), mcp.Description("PNG, JPEG or GIF served as the camera frame")),
	mcp.WithString("facing", mcp.Description("user or environment"), mcp.Enum("user", "environment")),
	mcp.WithString("effect", mcp.Description("none, grayscale, or blur"), mcp.Enum("none", "grayscale", "blur")),
	mcp.WithBoolean("save", mcp.Description("Also add the photo to the library")),
	mcp.WithString("title", mcp.Description("Title when saving")),
	mcp.WithArray("tags", mcp.Description("Tags when saving"), stringItems),
)
