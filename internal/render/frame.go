package render

import (
	"github.com/llehouerou/charcoal/internal/errmsg"
	"github.com/llehouerou/charcoal/internal/param"
)

// Compositor is the drawing surface a frame needs: blank canvas creation and
// text overlay. *magick.Client satisfies it.
type Compositor interface {
	BlankPNG(path string, width, height int, fill param.Color) error
	TextOverlay(canvasPath, outPath, text string, pointSize int, fill param.Color, gravity string) error
}

// Frame describes one rendering task. Every field is plain data resolved
// before the worker pool starts; nothing in here is shared mutable state.
type Frame struct {
	// Index is the 1-based frame number within a sequence, 0 for a single
	// image.
	Index int

	// SourcePath is the image to sample: the input itself for images, the
	// extracted frame for videos.
	SourcePath string

	// CanvasPath is the background canvas the text is drawn over. When
	// PaintCanvas is set the frame creates it first, filled with BG; this
	// is how per-frame background colors work, each frame painting its own
	// uniquely-named canvas instead of sharing one.
	CanvasPath  string
	PaintCanvas bool

	// OutPath receives the finished frame.
	OutPath string

	// Canvas dimensions, used only when PaintCanvas is set.
	Width, Height int

	PointSize        int
	Definition       int
	DefinitionHeight int

	BG      param.Color
	Text    param.Color
	Ramp    param.Ramp
	Gravity string
}

// Renderer produces finished frames.
type Renderer struct {
	Compositor Compositor
}

// Render generates the frame's ASCII text, prepares its canvas when asked
// to, and composites the text onto it. It returns the text block so single
// image runs can save it alongside the output.
func (r *Renderer) Render(f Frame) (string, error) {
	if f.SourcePath == "" {
		return "", errmsg.Configuration("frame not specified for ascii art generation")
	}

	text, err := Text(f.SourcePath, f.Definition, f.DefinitionHeight, f.Ramp)
	if err != nil {
		return "", err
	}

	if f.PaintCanvas {
		if err := r.Compositor.BlankPNG(f.CanvasPath, f.Width, f.Height, f.BG); err != nil {
			return "", err
		}
	}
	if err := r.Compositor.TextOverlay(f.CanvasPath, f.OutPath, text, f.PointSize, f.Text, f.Gravity); err != nil {
		return "", err
	}
	return text, nil
}
