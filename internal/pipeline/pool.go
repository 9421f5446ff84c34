package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/llehouerou/charcoal/internal/geometry"
	"github.com/llehouerou/charcoal/internal/render"
)

// frameTask is one unit of render work. When needMetrics is set the worker
// derives the frame's point size and definition height from the locked
// canvas width before rendering.
type frameTask struct {
	frame       render.Frame
	definition  int
	correction  float64
	needMetrics bool
}

type frameResult struct {
	frame int
	err   error
	done  bool
}

// workerCount picks the pool size: the configured cap, available
// parallelism by default, never more workers than tasks.
func (r *Runner) workerCount(total int) int {
	n := r.Workers
	if n < 1 {
		n = runtime.NumCPU()
	}
	if n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}
	return n
}

// renderFrames runs the tasks on a fixed-size pool. Tasks are independent,
// complete in any order and write only their own frame file. The first
// failure aborts the run: remaining queued tasks are drained unrendered and
// the error surfaces tagged with its frame index.
func (r *Runner) renderFrames(planner *geometry.Planner, plan geometry.Plan, tasks []frameTask) error {
	total := len(tasks)
	if total == 0 {
		return nil
	}

	r.emit(Progress{Phase: PhaseRender, Total: total})

	workCh := make(chan frameTask, total)
	resultCh := make(chan frameResult, total)
	renderer := &render.Renderer{Compositor: r.Imager}

	var aborted atomic.Bool
	var wg sync.WaitGroup
	for range r.workerCount(total) {
		wg.Go(func() {
			for t := range workCh {
				if aborted.Load() {
					resultCh <- frameResult{frame: t.frame.Index}
					continue
				}
				if err := renderTask(renderer, planner, plan, t); err != nil {
					aborted.Store(true)
					resultCh <- frameResult{frame: t.frame.Index, err: err}
					continue
				}
				resultCh <- frameResult{frame: t.frame.Index, done: true}
			}
		})
	}

	go func() {
		for _, t := range tasks {
			workCh <- t
		}
		close(workCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var firstErr error
	completed := 0
	for res := range resultCh {
		if res.err != nil && firstErr == nil {
			firstErr = &FrameError{Frame: res.frame, Err: res.err}
		}
		if res.done {
			completed++
			r.emit(Progress{Phase: PhaseRender, Current: completed, Total: total})
		}
	}
	return firstErr
}

// renderTask renders one frame, deriving its text metrics first when the
// sequence recomputes them per frame.
func renderTask(renderer *render.Renderer, planner *geometry.Planner, plan geometry.Plan, t frameTask) error {
	f := t.frame
	if t.needMetrics {
		m, err := planner.FrameMetrics(plan, t.definition, t.correction)
		if err != nil {
			return err
		}
		f.PointSize = m.PointSize
		f.DefinitionHeight = m.DefinitionHeight
	}
	_, err := renderer.Render(f)
	return err
}
