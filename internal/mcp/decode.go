package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/smartgallery/internal/editor"
	"github.com/hpungsan/smartgallery/internal/errors"
)

// decode unmarshals MCP request arguments into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// decodeEdits reads a possibly partial edits object; missing fields keep their defaults.
func decodeEdits(raw json.RawMessage) (editor.Edits, error) {
	edits := editor.DefaultEdits()
	if len(raw) == 0 || string(raw) == "null" {
		return edits, nil
	}
	if err := json.Unmarshal(raw, &edits); err != nil {
		return edits, errors.NewInvalidRequest(fmt.Sprintf("edits: %v", err))
	}
	return edits, nil
}
