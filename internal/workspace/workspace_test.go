package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewSessionLayout(t *testing.T) {
	s, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	defer func() { _ = s.Cleanup() }()

	if base := filepath.Base(s.Root()); !strings.HasPrefix(base, "charcoal_") {
		t.Errorf("workspace root = %q, want charcoal_ prefix", base)
	}

	for _, dir := range []string{
		filepath.Dir(s.SourceFramePath(1)),
		filepath.Dir(s.RenderedFramePath(1)),
	} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestSessionPaths(t *testing.T) {
	s := &Session{root: "/tmp/charcoal_test"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"canvas", s.CanvasPath(), "/tmp/charcoal_test/canvas.png"},
		{"frame canvas", s.FrameCanvasPath(3), "/tmp/charcoal_test/canvas3.png"},
		{"source frame", s.SourceFramePath(7), "/tmp/charcoal_test/frames/frame7.png"},
		{"source pattern", s.SourceFramePattern(), "/tmp/charcoal_test/frames/frame%d.png"},
		{"rendered frame", s.RenderedFramePath(1), "/tmp/charcoal_test/rendered/frame1.png"},
		{"rendered pattern", s.RenderedFramePattern(), "/tmp/charcoal_test/rendered/frame%d.png"},
		{"audio", s.AudioPath(), "/tmp/charcoal_test/audio.aac"},
		{"video", s.VideoPath("mp4"), "/tmp/charcoal_test/video.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != filepath.FromSlash(tt.want) {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestCleanupRemovesTree(t *testing.T) {
	s, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if err := os.WriteFile(s.CanvasPath(), []byte("png"), 0o600); err != nil {
		t.Fatalf("write canvas: %v", err)
	}

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(s.Root()); !os.IsNotExist(err) {
		t.Errorf("workspace root still exists after Cleanup")
	}
}

func TestSafePath(t *testing.T) {
	dir := t.TempDir()
	touch := func(name string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("touch %s: %v", name, err)
		}
		return path
	}

	t.Run("missing path returned unchanged", func(t *testing.T) {
		path := filepath.Join(dir, "absent.png")
		if got := SafePath(path, ""); got != path {
			t.Errorf("SafePath() = %q, want %q", got, path)
		}
	})

	t.Run("missing path ignores extension override", func(t *testing.T) {
		path := filepath.Join(dir, "absent2.mp4")
		if got := SafePath(path, "txt"); got != path {
			t.Errorf("SafePath() = %q, want %q", got, path)
		}
	})

	t.Run("existing path gets suffix 2", func(t *testing.T) {
		path := touch("clip.mp4")
		want := filepath.Join(dir, "clip2.mp4")
		if got := SafePath(path, ""); got != want {
			t.Errorf("SafePath() = %q, want %q", got, want)
		}
	})

	t.Run("occupied suffixes are skipped", func(t *testing.T) {
		path := touch("photo.png")
		touch("photo2.png")
		touch("photo3.png")
		want := filepath.Join(dir, "photo4.png")
		if got := SafePath(path, ""); got != want {
			t.Errorf("SafePath() = %q, want %q", got, want)
		}
	})

	t.Run("trailing digits continue the count", func(t *testing.T) {
		path := touch("take7.mp4")
		want := filepath.Join(dir, "take8.mp4")
		if got := SafePath(path, ""); got != want {
			t.Errorf("SafePath() = %q, want %q", got, want)
		}
	})

	t.Run("extension override replaces suffix", func(t *testing.T) {
		path := touch("movie.mp4")
		want := filepath.Join(dir, "movie2.txt")
		if got := SafePath(path, "txt"); got != want {
			t.Errorf("SafePath() = %q, want %q", got, want)
		}
	})

	t.Run("all-digit stem keeps counting", func(t *testing.T) {
		path := touch("123.png")
		want := filepath.Join(dir, "124.png")
		if got := SafePath(path, ""); got != want {
			t.Errorf("SafePath() = %q, want %q", got, want)
		}
	})
}
