// Package pipeline orchestrates a full generation run: probing the source,
// locking shared geometry, materializing per-frame parameters, fanning
// rendering out across a worker pool and assembling the final output.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/llehouerou/charcoal/internal/ffmpeg"
	"github.com/llehouerou/charcoal/internal/geometry"
	"github.com/llehouerou/charcoal/internal/param"
)

// Imager is the ImageMagick surface the pipeline needs: probing, canvas
// painting, text drawing and text measurement.
type Imager interface {
	Dimensions(path string) (int, int, error)
	BlankPNG(path string, width, height int, fill param.Color) error
	TextOverlay(canvasPath, outPath, text string, pointSize int, fill param.Color, gravity string) error
	TextDimensions(cols, rows, pointSize, boxWidth, boxHeight int) (int, int, error)
}

// Videoer is the FFmpeg surface the pipeline needs: probing, frame
// extraction and stream assembly.
type Videoer interface {
	Probe(path string) (ffmpeg.Video, error)
	ExtractFrames(path, pattern string) error
	AssembleVideo(pattern, outPath string, fps int) error
	AssembleGIF(pattern, outPath string, fps int) error
	ExtractAudio(path, outPath string) error
	JoinStreams(videoPath, audioPath, outPath string, width, height int) error
}

// DefaultFPS is the frame rate used for image sequences when none is
// requested. Video runs always reuse the source frame rate.
const DefaultFPS = 5

// Mode identifies which of the four run paths produced a result.
type Mode string

const (
	ModeImage         Mode = "image"
	ModeImageSequence Mode = "image-sequence"
	ModeVideo         Mode = "video"
	ModeVideoDynamic  Mode = "video-dynamic"
)

// videoExtensions are the source containers handled through the video path.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".webm": true,
	".avi":  true,
}

// IsVideoSource reports whether path is treated as a video, by extension.
func IsVideoSource(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Request describes one generation run.
type Request struct {
	// SourcePath is the image or video to convert.
	SourcePath string

	// OutPath is the output location. Empty means "next to the source",
	// made collision-free; a non-empty path is taken literally.
	OutPath string

	// Inputs are the five generation parameters, static or per-frame.
	Inputs param.Inputs

	// OutWidth and OutHeight override the output dimensions. Zero width
	// means the source width; zero height derives from the width and the
	// source aspect ratio.
	OutWidth  int
	OutHeight int

	// Strict keeps the requested dimensions exactly instead of fine-tuning
	// the canvas to the drawn text.
	Strict bool

	// PointRatio overrides geometry.PointSizeRatio when non-zero.
	PointRatio float64

	// FrameCount is the sequence length for image sources. Zero with any
	// dynamic input is a configuration error; dynamic values cannot be
	// materialized without a frame count. Video sources take their frame
	// count from the probe.
	FrameCount int

	// FPS is the image-sequence output frame rate, DefaultFPS when zero.
	// Video runs reuse the probed source rate.
	FPS int

	// MP4 assembles image sequences into an MP4 instead of a GIF.
	MP4 bool

	// SaveText also writes the text block of a single-image run to a
	// collision-free .txt next to the source.
	SaveText bool
}

// Result reports what a finished run produced.
type Result struct {
	OutPath  string
	TextPath string
	Text     string
	Mode     Mode
	Frames   int
	Plan     geometry.Plan
}

// Runner executes generation runs. One run at a time per Runner; a second
// concurrent call fails with a guard error instead of interleaving work in
// the same workspace.
type Runner struct {
	Imager  Imager
	Videoer Videoer

	// Workers caps the render pool size. Zero means available parallelism.
	Workers int

	// OnProgress, when set, receives phase updates during the run.
	OnProgress func(Progress)

	running atomic.Bool
}

// NewRunner returns a Runner over the given tool wrappers.
func NewRunner(img Imager, vid Videoer) *Runner {
	return &Runner{Imager: img, Videoer: vid}
}

func (r *Runner) emit(p Progress) {
	if r.OnProgress != nil {
		r.OnProgress(p)
	}
}

// FrameError reports the first frame whose rendering failed.
type FrameError struct {
	Frame int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }
