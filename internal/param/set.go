package param

import (
	"fmt"
	"strconv"

	"github.com/llehouerou/charcoal/internal/errmsg"
)

// Inputs are the raw, possibly dynamic parameters of a generation run.
type Inputs struct {
	BG         Source[Color]
	Text       Source[Color]
	Definition Source[int]
	// Correction compensates for non-square glyphs; 0 means "measure
	// automatically".
	Correction   Source[float64]
	Chars        Source[Ramp]
	ReverseChars bool
}

// AnyDynamic reports whether any of the inputs varies by frame.
func (in Inputs) AnyDynamic() bool {
	return in.BG.IsDynamic() || in.Text.IsDynamic() || in.Definition.IsDynamic() ||
		in.Correction.IsDynamic() || in.Chars.IsDynamic()
}

// Set holds the materialized resolvers for one run. Built once before any
// worker starts, read-only afterwards.
type Set struct {
	BG         *Value[Color]
	Text       *Value[Color]
	Definition *Value[int]
	Correction *Value[float64]
	Chars      *Value[Ramp]

	frameCount int
}

// NewSet materializes every input against frameCount (0 for single-image
// runs) and validates the resolved values for every frame.
func NewSet(in Inputs, frameCount int) (*Set, error) {
	s := &Set{frameCount: frameCount}
	var err error
	if s.BG, err = in.BG.Materialize(frameCount); err != nil {
		return nil, err
	}
	if s.Text, err = in.Text.Materialize(frameCount); err != nil {
		return nil, err
	}
	if s.Definition, err = in.Definition.Materialize(frameCount); err != nil {
		return nil, err
	}
	if s.Correction, err = in.Correction.Materialize(frameCount); err != nil {
		return nil, err
	}
	if s.Chars, err = in.Chars.Materialize(frameCount); err != nil {
		return nil, err
	}
	if in.ReverseChars {
		s.Chars = s.Chars.Transformed(Ramp.Reversed)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// FrameCount returns the sequence length the set was materialized for,
// 0 for single-image runs.
func (s *Set) FrameCount() int { return s.frameCount }

// validate surfaces bad parameter values before any rendering work starts.
func (s *Set) validate() error {
	start, end := 0, 0
	if s.frameCount > 0 {
		start, end = 1, s.frameCount
	}
	for f := start; f <= end; f++ {
		def, err := s.Definition.Resolve(f)
		if err != nil {
			return err
		}
		if def < 2 {
			return errmsg.Configuration("definition must be at least 2, got %d%s", def, frameSuffix(f))
		}
		corr, err := s.Correction.Resolve(f)
		if err != nil {
			return err
		}
		if corr < 0 {
			return errmsg.Configuration("correction must be positive, got %g%s", corr, frameSuffix(f))
		}
		ramp, err := s.Chars.Resolve(f)
		if err != nil {
			return err
		}
		if ramp.Len() == 0 {
			return errmsg.Configuration("character ramp is empty%s", frameSuffix(f))
		}
	}
	return nil
}

func frameSuffix(f int) string {
	if f == 0 {
		return ""
	}
	return fmt.Sprintf(" at frame %d", f)
}

// MaxDefinitionFrame returns the 1-based frame holding the numerically
// largest definition. Shared geometry is computed from this frame so the
// canvas fits every frame's character density without clipping. Returns 1
// when the definition is static or there is no sequence.
func (s *Set) MaxDefinitionFrame() int {
	if !s.Definition.IsDynamic() || s.frameCount == 0 {
		return 1
	}
	best, bestDef := 1, 0
	for f := 1; f <= s.frameCount; f++ {
		def, _ := s.Definition.Resolve(f)
		if def > bestDef {
			best, bestDef = f, def
		}
	}
	return best
}

// DynamicTable returns a preview of parameter drift across the sequence: a
// header row followed by one row per frame, listing only the parameters
// that are actually dynamic. Static parameters are omitted.
func (s *Set) DynamicTable() [][]string {
	type column struct {
		name string
		cell func(frame int) string
	}
	var cols []column
	if s.BG.IsDynamic() {
		cols = append(cols, column{"BG Color", func(f int) string {
			c, _ := s.BG.Resolve(f)
			return c.String()
		}})
	}
	if s.Text.IsDynamic() {
		cols = append(cols, column{"Text Color", func(f int) string {
			c, _ := s.Text.Resolve(f)
			return c.String()
		}})
	}
	if s.Definition.IsDynamic() {
		cols = append(cols, column{"Definition", func(f int) string {
			d, _ := s.Definition.Resolve(f)
			return strconv.Itoa(d)
		}})
	}
	if s.Correction.IsDynamic() {
		cols = append(cols, column{"Correction", func(f int) string {
			c, _ := s.Correction.Resolve(f)
			return strconv.FormatFloat(c, 'g', -1, 64)
		}})
	}
	if s.Chars.IsDynamic() {
		cols = append(cols, column{"Chars", func(f int) string {
			r, _ := s.Chars.Resolve(f)
			return r.String()
		}})
	}

	header := make([]string, 0, len(cols)+1)
	header = append(header, "Frame")
	for _, c := range cols {
		header = append(header, c.name)
	}
	rows := [][]string{header}
	for f := 1; f <= s.frameCount; f++ {
		row := make([]string, 0, len(cols)+1)
		row = append(row, strconv.Itoa(f))
		for _, c := range cols {
			row = append(row, c.cell(f))
		}
		rows = append(rows, row)
	}
	return rows
}
