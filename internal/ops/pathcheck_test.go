package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/smartgallery/internal/config"
	"github.com/hpungsan/smartgallery/internal/errors"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../backup.jsonl"},
		{"deep traversal", "../../etc/backup.jsonl"},
		{"mid-path traversal", "/tmp/../etc/backup.jsonl"},
		{"hidden in path", "/tmp/safe/../../../etc/shadow.jsonl"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, PathCheckWrite, cfg)
			if err == nil {
				t.Error("expected error for path traversal, got nil")
			}
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExtensionRequired(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow any directory

	tests := []struct {
		name string
		path string
	}{
		{"no extension", "/tmp/backup"},
		{"wrong extension", "/tmp/backup.json"},
		{"txt extension", "/tmp/backup.txt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, PathCheckWrite, cfg)
			if err == nil {
				t.Error("expected error for wrong extension, got nil")
			}
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_DirectoryRestriction(t *testing.T) {
	cfg := config.DefaultConfig()
	// Default config: only the exports directory allowed

	// Path outside allowed directories should fail
	err := ValidatePath("/tmp/backup.jsonl", PathCheckWrite, cfg)
	if err == nil {
		t.Error("expected error for path outside allowed directories, got nil")
	}
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidatePath_AllowUnsafePaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	// Create a test file for read mode
	testFile := filepath.Join(tmpDir, "test.jsonl")
	if err := os.WriteFile(testFile, []byte("{}"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Should allow paths outside the exports directory when AllowUnsafePaths=true
	err := ValidatePath(testFile, PathCheckRead, cfg)
	if err != nil {
		t.Errorf("expected success with AllowUnsafePaths=true, got: %v", err)
	}

	// Write mode should also work
	writePath := filepath.Join(tmpDir, "output.jsonl")
	err = ValidatePath(writePath, PathCheckWrite, cfg)
	if err != nil {
		t.Errorf("expected success for write with AllowUnsafePaths=true, got: %v", err)
	}
}

func TestValidatePath_AllowedPaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{tmpDir}

	// Create a test file for read mode
	testFile := filepath.Join(tmpDir, "test.jsonl")
	if err := os.WriteFile(testFile, []byte("{}"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Should allow paths in AllowedPaths
	err := ValidatePath(testFile, PathCheckRead, cfg)
	if err != nil {
		t.Errorf("expected success for path in AllowedPaths, got: %v", err)
	}

	// Path outside AllowedPaths (and not in the exports directory) should fail
	otherDir := t.TempDir()
	otherFile := filepath.Join(otherDir, "other.jsonl")
	if err := os.WriteFile(otherFile, []byte("{}"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	err = ValidatePath(otherFile, PathCheckRead, cfg)
	if err == nil {
		t.Error("expected error for path outside AllowedPaths, got nil")
	}
}

func TestValidatePath_FileNotFound_ReadMode(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	nonExistent := filepath.Join(tmpDir, "nonexistent.jsonl")
	err := ValidatePath(nonExistent, PathCheckRead, cfg)
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestValidatePath_Symlinks(t *testing.T) {
	tests := []struct {
		name   string
		unsafe bool
		mode   PathCheckMode
	}{
		{"read via symlink", false, PathCheckRead},
		{"write over symlink", false, PathCheckWrite},
		// Unsafe mode lifts the directory allowlist, never the symlink check
		{"read via symlink in unsafe mode", true, PathCheckRead},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			allowedDir := t.TempDir()
			cfg := config.DefaultConfig()
			cfg.AllowedPaths = []string{allowedDir}
			cfg.AllowUnsafePaths = tc.unsafe

			target := filepath.Join(t.TempDir(), "secret.jsonl")
			if err := os.WriteFile(target, []byte("{}"), 0600); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			link := filepath.Join(allowedDir, "link.jsonl")
			if err := os.Symlink(target, link); err != nil {
				t.Skipf("cannot create symlink: %v", err)
			}

			if err := ValidatePath(link, tc.mode, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("ValidatePath() error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestValidatePath_NestedPathRejected(t *testing.T) {
	for _, mode := range []PathCheckMode{PathCheckRead, PathCheckWrite} {
		allowedDir := t.TempDir()
		cfg := config.DefaultConfig()
		cfg.AllowedPaths = []string{allowedDir}

		subDir := filepath.Join(allowedDir, "albums")
		if err := os.MkdirAll(subDir, 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		nested := filepath.Join(subDir, "summer.jsonl")
		if err := os.WriteFile(nested, []byte("{}"), 0600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		if err := ValidatePath(nested, mode, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("mode %d: ValidatePath() error = %v, want INVALID_REQUEST", mode, err)
		}
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path     string
		contains bool
	}{
		{"/home/user/file.txt", false},
		{"../file.txt", true},
		{"/home/../etc/passwd", true},
		{"./file.txt", false},
		{"/home/user/.hidden/file.txt", false},
		{"file..name.txt", false}, // .. not as path component
		{"/tmp/a/b/../c.jsonl", true},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			result := containsTraversal(tc.path)
			if result != tc.contains {
				t.Errorf("containsTraversal(%q) = %v, want %v", tc.path, result, tc.contains)
			}
		})
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "beach", "beach"},
		{"with spaces", "Beach Sunset", "beach-sunset"},
		{"forward slash", "path/to/file", "path-to-file"},
		{"backslash", "path\\to\\file", "path-to-file"},
		{"double dots", "foo..bar", "foo-bar"},
		{"traversal attempt", "../../../etc/passwd", "etc-passwd"},
		{"absolute path", "/tmp/evil", "tmp-evil"},
		{"mixed attack", "../foo/bar\\..\\baz", "foo-bar-baz"},
		{"null bytes", "foo\x00bar", "foobar"},
		{"control chars", "foo\x01\x02bar", "foobar"},
		{"empty after sanitize", "../../..", "library"},
		{"only slashes", "///", "library"},
		{"unicode preserved", "fiesta-\u4e2d\u6587", "fiesta-\u4e2d\u6587"},
		{"multiple dashes collapse", "a---b", "a-b"},
		{"leading dashes trimmed", "---foo", "foo"},
		{"trailing dashes trimmed", "foo---", "foo"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := SanitizeForFilename(tc.input)
			if result != tc.expected {
				t.Errorf("SanitizeForFilename(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestDefaultExportsDir_FollowsHomeOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.HomeEnvVar, home)

	dir, err := DefaultExportsDir()
	if err != nil {
		t.Fatalf("DefaultExportsDir() error = %v", err)
	}
	if dir != filepath.Join(home, "exports") {
		t.Errorf("DefaultExportsDir() = %q, want %q", dir, filepath.Join(home, "exports"))
	}

	// Files directly in it pass without any allowed_paths
	if err := ValidatePath(filepath.Join(dir, "backup.jsonl"), PathCheckWrite, config.DefaultConfig()); err != nil {
		t.Errorf("ValidatePath() in exports dir error = %v", err)
	}
}
