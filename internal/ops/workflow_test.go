package ops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/smartgallery/internal/editor"
	"github.com/hpungsan/smartgallery/internal/errors"
	"github.com/hpungsan/smartgallery/internal/media"
)

// TestFullWorkflow exercises the complete item lifecycle:
// save → edit transfer → tag → search → export → clear → import → delete
func TestFullWorkflow(t *testing.T) {
	store, blobs := setupStore(t)
	cfg, dir := exportConfig(t)
	ctx := context.Background()

	// 1. Save a photo
	photo, err := Save(ctx, store, blobs, cfg, SaveInput{Data: pngHeader, Name: "beach.png", Tags: []string{"Beach"}})
	require.NoError(t, err)
	require.Equal(t, media.KindImage, photo.Kind)

	// 2. Hand a video to the editor and save it from there
	var slot editor.Slot
	require.NoError(t, StageTransfer(&slot, editor.Payload{Kind: media.KindVideo, Src: "data:video/webm;base64,GkXfow==", Name: "party.webm"}))
	video, err := SaveTransfer(ctx, store, blobs, cfg, &slot, SaveTransferInput{Tags: []string{"party"}})
	require.NoError(t, err)
	require.Contains(t, video.Item.Tags, media.TagVideo)

	// 3. Tag and search
	tagged, err := Tag(ctx, store, TagInput{ID: photo.ID, Add: []string{"sunset"}})
	require.NoError(t, err)
	require.True(t, tagged.Updated)

	found, err := Search(ctx, store, SearchInput{Query: "beach sunset"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	require.Equal(t, photo.ID, found.Items[0].ID)

	listed, err := List(ctx, store, ListInput{})
	require.NoError(t, err)
	require.Equal(t, []string{video.ID, photo.ID}, ids(listed.Items))

	// 4. Export, clear, import
	exp, err := Export(ctx, store, cfg, ExportInput{Path: filepath.Join(dir, "workflow.jsonl")})
	require.NoError(t, err)
	require.Equal(t, 2, exp.Count)

	cleared, err := Clear(ctx, store, blobs)
	require.NoError(t, err)
	require.Equal(t, 2, cleared.Removed)

	imp, err := Import(ctx, store, cfg, ImportInput{Path: exp.Path})
	require.NoError(t, err)
	require.Equal(t, 2, imp.Imported)

	stats, err := TagStats(ctx, store)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Items)

	// 5. Delete, then the item is gone
	del, err := Delete(ctx, store, blobs, DeleteInput{ID: photo.ID})
	require.NoError(t, err)
	require.True(t, del.Deleted)

	_, err = Get(ctx, store, blobs, GetInput{ID: photo.ID})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
