package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hpungsan/smartgallery/internal/config"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/media"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on any collision or bad line (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeSkip    ImportMode = "skip"    // keep the existing item on collision
)

// maxImportLine bounds a single JSONL line; inline photos make lines long.
const maxImportLine = 64 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError reports one line or record that was not imported.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// exportRecord is one line of an export file: the header or an item.
type exportRecord struct {
	Header bool `json:"_smartgallery_export"`
	media.LibraryItem
}

type parsedRecord struct {
	line int
	item media.LibraryItem
}

// Import merges items from a JSONL export file into the library in a single write.
// The merged library is ordered by createdAt, newest first.
func Import(ctx context.Context, store *library.Store, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)

	out := &ImportOutput{Errors: []ImportError{}}
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		out.Errors = parseErrors
		return out, nil
	}
	out.Errors = append(out.Errors, parseErrors...)
	out.Skipped = len(parseErrors)

	var aborted bool
	err = store.Transact(ctx, func(items []media.LibraryItem) ([]media.LibraryItem, error) {
		index := make(map[string]int, len(items))
		for i, it := range items {
			index[it.ID] = i
		}

		merged := append([]media.LibraryItem{}, items...)
		imported, skipped := 0, 0
		var collisions []ImportError
		for _, rec := range records {
			pos, exists := index[rec.item.ID]
			if !exists {
				index[rec.item.ID] = len(merged)
				merged = append(merged, rec.item)
				imported++
				continue
			}
			switch input.Mode {
			case ImportModeReplace:
				merged[pos] = rec.item
				imported++
			case ImportModeSkip:
				skipped++
			default:
				collisions = append(collisions, ImportError{
					Line:    rec.line,
					ID:      rec.item.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("item with id %q already exists", rec.item.ID),
				})
			}
		}

		if len(collisions) > 0 {
			aborted = true
			out.Errors = append(out.Errors, collisions...)
			return nil, library.ErrUnchanged
		}
		if imported == 0 {
			out.Skipped += skipped
			return nil, library.ErrUnchanged
		}

		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].CreatedAt > merged[j].CreatedAt
		})
		out.Imported = imported
		out.Skipped += skipped
		return merged, nil
	})
	if err != nil {
		return nil, err
	}
	if aborted {
		out.Imported = 0
	}
	return out, nil
}

// parseExportFile reads item records, skipping the header and blank lines.
// Duplicate ids within the file keep the first occurrence.
func parseExportFile(r io.Reader) ([]parsedRecord, []ImportError) {
	var records []parsedRecord
	var parseErrors []ImportError
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var rec exportRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.Header {
			continue
		}

		it := rec.LibraryItem
		it.ID = strings.TrimSpace(it.ID)
		switch {
		case it.ID == "":
			parseErrors = append(parseErrors, ImportError{
				Line: lineNum, Code: "INVALID_RECORD", Message: "missing id field",
			})
			continue
		case strings.TrimSpace(it.Src) == "":
			parseErrors = append(parseErrors, ImportError{
				Line: lineNum, ID: it.ID, Code: "INVALID_RECORD", Message: "missing src field",
			})
			continue
		case seen[it.ID]:
			parseErrors = append(parseErrors, ImportError{
				Line: lineNum, ID: it.ID, Code: "DUPLICATE_ID", Message: "id appears earlier in the file",
			})
			continue
		}
		seen[it.ID] = true
		it.Tags = media.NormalizeTags(it.Tags)
		records = append(records, parsedRecord{line: lineNum, item: it})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}
