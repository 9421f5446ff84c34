package param

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/llehouerou/charcoal/internal/errmsg"
)

// DefaultRamp is the standard ten-step character set, dimmest to brightest.
const DefaultRamp = " .:-=+*$@#"

// Ramp is an ordered sequence of character clusters, dimmest first, used to
// map luminance samples to text.
type Ramp struct {
	clusters []string
}

// NewRamp splits s into grapheme clusters and validates that each renders
// exactly one terminal cell wide; anything wider or invisible would break
// the monospace grid.
func NewRamp(s string) (Ramp, error) {
	if s == "" {
		return Ramp{}, errmsg.Configuration("character ramp is empty")
	}
	var clusters []string
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cl := gr.Str()
		if runewidth.StringWidth(cl) != 1 {
			return Ramp{}, errmsg.Configuration("ramp character %q is not one cell wide", cl)
		}
		clusters = append(clusters, cl)
	}
	return Ramp{clusters: clusters}, nil
}

// MustRamp is NewRamp for ramps known valid at compile time.
func MustRamp(s string) Ramp {
	r, err := NewRamp(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of clusters in the ramp.
func (r Ramp) Len() int { return len(r.clusters) }

// ClusterFor maps a luminance sample to its cluster:
// index = luminance * (len-1) / 255, floor-divided.
func (r Ramp) ClusterFor(luminance uint8) string {
	return r.clusters[int(luminance)*(len(r.clusters)-1)/255]
}

// Reversed returns the ramp in brightest-to-dimmest order, for dark text on
// a light background.
func (r Ramp) Reversed() Ramp {
	out := make([]string, len(r.clusters))
	for i, cl := range r.clusters {
		out[len(out)-1-i] = cl
	}
	return Ramp{clusters: out}
}

func (r Ramp) String() string {
	return strings.Join(r.clusters, "")
}
