package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/llehouerou/charcoal/internal/pipeline"
)

// PlainReporter prints progress as plain lines for non-interactive runs.
// Phase transitions get one line each; render progress prints at every tenth
// of the total with the remaining-time estimate when one is available.
type PlainReporter struct {
	w io.Writer

	phase      pipeline.Phase
	eta        etaTracker
	lastDecile int
}

func NewPlainReporter(w io.Writer) *PlainReporter {
	return &PlainReporter{w: w}
}

// Report consumes one pipeline update.
func (r *PlainReporter) Report(p pipeline.Progress) {
	r.report(p, time.Now())
}

func (r *PlainReporter) report(p pipeline.Progress, now time.Time) {
	if p.Phase != r.phase {
		fmt.Fprintln(r.w, string(p.Phase))
		if p.Phase == pipeline.PhaseRender {
			r.eta.anchor(now)
			r.lastDecile = 0
		}
		r.phase = p.Phase
	}

	if p.Phase != pipeline.PhaseRender || p.Current < 1 || p.Total < 1 {
		return
	}

	eta := r.eta.update(now, p.Current, p.Total)
	decile := p.Current * 10 / p.Total
	if decile <= r.lastDecile {
		return
	}
	r.lastDecile = decile

	line := fmt.Sprintf("  %d/%d (%d%%)", p.Current, p.Total, decile*10)
	if eta != "" {
		line += "  ~" + eta
	}
	fmt.Fprintln(r.w, line)
}

// RunWithPlainProgress executes the run synchronously, reporting progress as
// plain lines on w.
func RunWithPlainProgress(r *pipeline.Runner, req pipeline.Request, w io.Writer) (*pipeline.Result, error) {
	rep := NewPlainReporter(w)
	r.OnProgress = rep.Report
	return r.Run(req)
}
