package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/smartgallery/internal/media"
)

func TestClear(t *testing.T) {
	store, blobs := setupStore(t)
	ctx := context.Background()
	seed(t, store, "a", "A")
	url := blobs.Create([]byte("clip"), "video/webm")
	if err := store.Add(ctx, media.LibraryItem{ID: "v", Src: url, Tags: []string{"video"}, CreatedAt: "2024-01-01T00:00:05.000Z"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	unrelated := blobs.Create([]byte("recording"), "video/webm")

	out, err := Clear(ctx, store, blobs)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if out.Removed != 2 {
		t.Errorf("Removed = %d, want 2", out.Removed)
	}
	if n := len(store.List(ctx)); n != 0 {
		t.Errorf("library has %d items after Clear", n)
	}
	if _, _, ok := blobs.Resolve(url); ok {
		t.Error("library object URL should be revoked")
	}
	if _, _, ok := blobs.Resolve(unrelated); !ok {
		t.Error("object URLs outside the library are not ours to revoke")
	}
}

func TestClear_Empty(t *testing.T) {
	store, blobs := setupStore(t)

	out, err := Clear(context.Background(), store, blobs)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if out.Removed != 0 {
		t.Errorf("Removed = %d, want 0", out.Removed)
	}
}

func TestClear_KeepsLastCapture(t *testing.T) {
	store, blobs := setupStore(t)
	ctx := context.Background()
	if err := store.SetLastCapture(ctx, "data:image/jpeg;base64,/9j/"); err != nil {
		t.Fatalf("SetLastCapture failed: %v", err)
	}

	if _, err := Clear(ctx, store, blobs); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := store.LastCapture(ctx); !ok {
		t.Error("Clear empties the library only")
	}
}
