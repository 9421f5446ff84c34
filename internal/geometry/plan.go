// Package geometry derives text point size, sampling grid and output canvas
// dimensions from a source's aspect ratio and the desired character density.
package geometry

import (
	"math"

	"github.com/llehouerou/charcoal/internal/errmsg"
)

// PointSizeRatio is the empirically chosen ratio between canvas pixel width
// and monospace glyph width. It matches Courier closely enough in practice
// but is not a law; treat it as tunable.
const PointSizeRatio = 1.7

// Measurer reports the tight rendered pixel bounds of a cols x rows text
// block drawn at pointSize inside a generous bounding box.
type Measurer interface {
	TextDimensions(cols, rows, pointSize, boxWidth, boxHeight int) (int, int, error)
}

// Plan is the render-ready geometry of a run. Once locked for a sequence,
// the canvas never changes; only per-frame text metrics may be recomputed.
type Plan struct {
	PointSize        int
	Definition       int
	DefinitionHeight int
	CanvasWidth      int
	CanvasHeight     int
}

// Metrics are the text metrics of a single frame within a locked plan.
type Metrics struct {
	PointSize        int
	DefinitionHeight int
}

// Planner holds the run-constant sizing inputs.
type Planner struct {
	Measurer Measurer

	// Aspect is source height divided by source width.
	Aspect float64

	// OutWidth and OutHeight are the requested canvas dimensions before
	// fine-tuning.
	OutWidth  int
	OutHeight int

	// Strict keeps the requested dimensions exactly, skipping fine-tuning.
	Strict bool

	// PointRatio overrides PointSizeRatio when non-zero.
	PointRatio float64
}

func (p *Planner) pointRatio() float64 {
	if p.PointRatio != 0 {
		return p.PointRatio
	}
	return PointSizeRatio
}

// metrics computes point size and definition height for one definition
// value, measuring the glyph aspect distortion when no correction factor is
// supplied (correction 0).
func (p *Planner) metrics(widthBasis, definition int, correction float64) (Metrics, error) {
	if definition < 2 {
		return Metrics{}, errmsg.Configuration("definition must be at least 2, got %d", definition)
	}
	if correction < 0 {
		return Metrics{}, errmsg.Configuration("correction must be positive, got %g", correction)
	}

	pointSize := int(math.Ceil(float64(widthBasis) * p.pointRatio() / float64(definition)))

	// A definition x definition block drawn at the computed point size
	// reveals how much taller than wide the glyphs are; the measured
	// width/height ratio compensates for it.
	if correction == 0 {
		w, h, err := p.Measurer.TextDimensions(
			definition, definition, pointSize,
			int(float64(widthBasis)*1.5), widthBasis*2)
		if err != nil {
			return Metrics{}, err
		}
		correction = float64(w) / float64(h)
	}

	defHeight := int(float64(definition) * p.Aspect * correction)
	if defHeight < 1 {
		return Metrics{}, errmsg.Configuration(
			"computed definition height is %d; increase definition or correction", defHeight)
	}
	return Metrics{PointSize: pointSize, DefinitionHeight: defHeight}, nil
}

// Lock computes the shared geometry for a run. Unless strict dimensions
// were requested, the canvas is fine-tuned to the measured bounds of the
// drawn text so no blank margin remains at the bottom and right; evenSizes
// additionally rounds the tuned canvas down to even numbers, which video
// encoders require.
func (p *Planner) Lock(definition int, correction float64, evenSizes bool) (Plan, error) {
	m, err := p.metrics(p.OutWidth, definition, correction)
	if err != nil {
		return Plan{}, err
	}
	plan := Plan{
		PointSize:        m.PointSize,
		Definition:       definition,
		DefinitionHeight: m.DefinitionHeight,
		CanvasWidth:      p.OutWidth,
		CanvasHeight:     p.OutHeight,
	}

	if p.Strict {
		return plan, nil
	}

	w, h, err := p.Measurer.TextDimensions(
		definition, m.DefinitionHeight, m.PointSize,
		int(float64(p.OutWidth)*1.5), p.OutHeight*2)
	if err != nil {
		return Plan{}, err
	}
	if evenSizes {
		w, h = w/2*2, h/2*2
	}
	plan.CanvasWidth, plan.CanvasHeight = w, h
	return plan, nil
}

// FrameMetrics recomputes text metrics for one frame of a dynamic sequence
// against the locked canvas width. The canvas itself is frozen; only point
// size and definition height follow the frame's parameters.
func (p *Planner) FrameMetrics(plan Plan, definition int, correction float64) (Metrics, error) {
	return p.metrics(plan.CanvasWidth, definition, correction)
}
