// Package workspace manages the scratch directory of a generation run and
// collision-free output paths.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// Session is the scratch area for one generation run. It holds the canvas,
// the frames extracted from a source video and the rendered output frames,
// and is removed as a whole when the run finishes.
type Session struct {
	root string
}

// NewSession creates a fresh scratch directory under the OS temp root.
func NewSession() (*Session, error) {
	root, err := os.MkdirTemp("", "charcoal_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	s := &Session{root: root}
	for _, dir := range []string{s.sourceDir(), s.renderedDir()} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			_ = os.RemoveAll(root)
			return nil, fmt.Errorf("failed to create workspace: %w", err)
		}
	}
	return s, nil
}

// Root returns the workspace directory.
func (s *Session) Root() string { return s.root }

func (s *Session) sourceDir() string   { return filepath.Join(s.root, "frames") }
func (s *Session) renderedDir() string { return filepath.Join(s.root, "rendered") }

// CanvasPath returns the path of the shared background canvas.
func (s *Session) CanvasPath() string { return filepath.Join(s.root, "canvas.png") }

// FrameCanvasPath returns the path of the canvas private to the n-th frame,
// used when the background color varies by frame.
func (s *Session) FrameCanvasPath(n int) string {
	return filepath.Join(s.root, fmt.Sprintf("canvas%d.png", n))
}

// SourceFramePath returns the path of the n-th extracted source frame.
// Frames are numbered from 1.
func (s *Session) SourceFramePath(n int) string {
	return filepath.Join(s.sourceDir(), fmt.Sprintf("frame%d.png", n))
}

// SourceFramePattern returns the printf-style pattern ffmpeg writes
// extracted frames to.
func (s *Session) SourceFramePattern() string {
	return filepath.Join(s.sourceDir(), "frame%d.png")
}

// RenderedFramePath returns the path of the n-th rendered output frame.
func (s *Session) RenderedFramePath(n int) string {
	return filepath.Join(s.renderedDir(), fmt.Sprintf("frame%d.png", n))
}

// RenderedFramePattern returns the printf-style pattern ffmpeg reads
// rendered frames from.
func (s *Session) RenderedFramePattern() string {
	return filepath.Join(s.renderedDir(), "frame%d.png")
}

// AudioPath returns the path the source audio track is extracted to.
func (s *Session) AudioPath() string { return filepath.Join(s.root, "audio.aac") }

// VideoPath returns the path of the silent assembled video.
func (s *Session) VideoPath(ext string) string {
	return filepath.Join(s.root, "video."+ext)
}

// Cleanup removes the whole workspace tree.
func (s *Session) Cleanup() error { return os.RemoveAll(s.root) }

// SafePath returns path unchanged when nothing exists there. Otherwise it
// strips any trailing digits from the stem, continues the count (a bare stem
// starts at 2) and probes until a free path is found: clip.mp4 becomes
// clip2.mp4, take7.mp4 becomes take8.mp4. A non-empty ext replaces the
// extension before probing.
func SafePath(path, ext string) string {
	if !exists(path) {
		return path
	}
	suffix := filepath.Ext(path)
	if ext == "" {
		ext = strings.TrimPrefix(suffix, ".")
	}
	dir := filepath.Dir(path)
	stem := strings.TrimSuffix(filepath.Base(path), suffix)

	trimmed := strings.TrimRightFunc(stem, unicode.IsDigit)
	k := 2
	if digits := stem[len(trimmed):]; digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			k = n + 1
		}
	}

	for {
		name := fmt.Sprintf("%s%d", trimmed, k)
		if ext != "" {
			name += "." + ext
		}
		candidate := filepath.Join(dir, name)
		if !exists(candidate) {
			return candidate
		}
		k++
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
