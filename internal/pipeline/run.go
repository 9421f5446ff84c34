package pipeline

import (
	"os"

	"github.com/llehouerou/charcoal/internal/errmsg"
	"github.com/llehouerou/charcoal/internal/geometry"
	"github.com/llehouerou/charcoal/internal/magick"
	"github.com/llehouerou/charcoal/internal/param"
	"github.com/llehouerou/charcoal/internal/render"
	"github.com/llehouerou/charcoal/internal/workspace"
)

// Run executes one generation run and blocks until it finishes. The mode is
// picked from the source kind and the inputs: video sources take the video
// path, image sources become a sequence when a frame count is requested or
// any input is dynamic, a single image otherwise.
func (r *Runner) Run(req Request) (*Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, errmsg.Guard("a generation run is already in progress on this runner")
	}
	defer r.running.Store(false)

	if req.SourcePath == "" {
		return nil, errmsg.Configuration("no source file given")
	}
	if _, err := os.Stat(req.SourcePath); err != nil {
		return nil, errmsg.Input(errmsg.OpRunStart, err)
	}

	switch {
	case IsVideoSource(req.SourcePath):
		return r.runVideo(req)
	case req.FrameCount > 0 || req.Inputs.AnyDynamic():
		return r.runImageSequence(req)
	default:
		return r.runImage(req)
	}
}

// Preview materializes the request's parameters and returns the dynamic
// parameter table without rendering anything. Video sources are probed for
// their frame count.
func (r *Runner) Preview(req Request) ([][]string, error) {
	frameCount := req.FrameCount
	if IsVideoSource(req.SourcePath) {
		video, err := r.Videoer.Probe(req.SourcePath)
		if err != nil {
			return nil, err
		}
		frameCount = video.FrameCount
	}
	set, err := param.NewSet(req.Inputs, frameCount)
	if err != nil {
		return nil, err
	}
	return set.DynamicTable(), nil
}

// runImage renders a single ASCII image straight to the output path.
func (r *Runner) runImage(req Request) (*Result, error) {
	set, err := param.NewSet(req.Inputs, 0)
	if err != nil {
		return nil, err
	}
	srcWidth, srcHeight, err := r.Imager.Dimensions(req.SourcePath)
	if err != nil {
		return nil, err
	}
	planner := r.planner(srcWidth, srcHeight, req)
	plan, err := r.lockPlan(planner, set, 0, false)
	if err != nil {
		return nil, err
	}

	bg, err := set.BG.Resolve(0)
	if err != nil {
		return nil, err
	}
	fg, err := set.Text.Resolve(0)
	if err != nil {
		return nil, err
	}
	ramp, err := set.Chars.Resolve(0)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.NewSession()
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Cleanup() }()

	r.emit(Progress{Phase: PhaseCanvas, Total: 1})
	if err := r.Imager.BlankPNG(ws.CanvasPath(), plan.CanvasWidth, plan.CanvasHeight, bg); err != nil {
		return nil, err
	}
	r.emit(Progress{Phase: PhaseCanvas, Current: 1, Total: 1})

	outPath := req.OutPath
	if outPath == "" {
		outPath = workspace.SafePath(req.SourcePath, "")
	}

	renderer := &render.Renderer{Compositor: r.Imager}
	r.emit(Progress{Phase: PhaseRender, Total: 1})
	text, err := renderer.Render(render.Frame{
		SourcePath:       req.SourcePath,
		CanvasPath:       ws.CanvasPath(),
		OutPath:          outPath,
		PointSize:        plan.PointSize,
		Definition:       plan.Definition,
		DefinitionHeight: plan.DefinitionHeight,
		Text:             fg,
		Ramp:             ramp,
		Gravity:          magick.GravityTopLeft,
	})
	if err != nil {
		return nil, err
	}
	r.emit(Progress{Phase: PhaseRender, Current: 1, Total: 1})

	res := &Result{OutPath: outPath, Text: text, Mode: ModeImage, Frames: 1, Plan: plan}
	if req.SaveText {
		res.TextPath = workspace.SafePath(req.SourcePath, "txt")
		if err := os.WriteFile(res.TextPath, []byte(text), 0o644); err != nil {
			return nil, &errmsg.Error{Op: errmsg.OpSaveText, Err: err}
		}
	}
	return res, nil
}

// runImageSequence renders frameCount frames from one source image and
// assembles them into a GIF or MP4. Geometry locks on the frame with the
// largest definition so every frame's text fits the shared canvas.
func (r *Runner) runImageSequence(req Request) (*Result, error) {
	set, err := param.NewSet(req.Inputs, req.FrameCount)
	if err != nil {
		return nil, err
	}
	srcWidth, srcHeight, err := r.Imager.Dimensions(req.SourcePath)
	if err != nil {
		return nil, err
	}
	planner := r.planner(srcWidth, srcHeight, req)
	plan, err := r.lockPlan(planner, set, set.MaxDefinitionFrame(), true)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.NewSession()
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Cleanup() }()

	tasks, err := r.frameTasks(set, plan, ws, req.FrameCount,
		func(int) string { return req.SourcePath }, magick.GravityCenter, true)
	if err != nil {
		return nil, err
	}
	if err := r.renderFrames(planner, plan, tasks); err != nil {
		return nil, err
	}

	fps := req.FPS
	if fps < 1 {
		fps = DefaultFPS
	}
	ext := "gif"
	assemble := r.Videoer.AssembleGIF
	if req.MP4 {
		ext = "mp4"
		assemble = r.Videoer.AssembleVideo
	}
	outPath := req.OutPath
	if outPath == "" {
		outPath = workspace.SafePath(req.SourcePath, ext)
	}

	r.emit(Progress{Phase: PhaseAssemble, Total: 1})
	if err := assemble(ws.RenderedFramePattern(), outPath, fps); err != nil {
		return nil, err
	}
	r.emit(Progress{Phase: PhaseAssemble, Current: 1, Total: 1})

	return &Result{OutPath: outPath, Mode: ModeImageSequence, Frames: req.FrameCount, Plan: plan}, nil
}

// runVideo converts a video source frame by frame and re-attaches its audio
// track. Static parameters keep the geometry frozen for every frame; any
// dynamic parameter switches to per-frame metrics and centered text.
func (r *Runner) runVideo(req Request) (*Result, error) {
	video, err := r.Videoer.Probe(req.SourcePath)
	if err != nil {
		return nil, err
	}
	set, err := param.NewSet(req.Inputs, video.FrameCount)
	if err != nil {
		return nil, err
	}
	dynamic := req.Inputs.AnyDynamic()

	planner := r.planner(video.Width, video.Height, req)
	plan, err := r.lockPlan(planner, set, set.MaxDefinitionFrame(), true)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.NewSession()
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Cleanup() }()

	r.emit(Progress{Phase: PhaseExtract, Total: 1})
	if err := r.Videoer.ExtractFrames(req.SourcePath, ws.SourceFramePattern()); err != nil {
		return nil, err
	}
	r.emit(Progress{Phase: PhaseExtract, Current: 1, Total: 1})

	gravity := magick.GravityTopLeft
	if dynamic {
		gravity = magick.GravityCenter
	}
	tasks, err := r.frameTasks(set, plan, ws, video.FrameCount, ws.SourceFramePath, gravity, dynamic)
	if err != nil {
		return nil, err
	}
	if err := r.renderFrames(planner, plan, tasks); err != nil {
		return nil, err
	}

	outPath := req.OutPath
	if outPath == "" {
		outPath = workspace.SafePath(req.SourcePath, "")
	}

	r.emit(Progress{Phase: PhaseAssemble, Total: 3})
	silent := ws.VideoPath("mp4")
	if err := r.Videoer.AssembleVideo(ws.RenderedFramePattern(), silent, video.FPS); err != nil {
		return nil, err
	}
	r.emit(Progress{Phase: PhaseAssemble, Current: 1, Total: 3})

	// Sources without an audio stream are common; the run proceeds silent.
	audioPath := ws.AudioPath()
	if err := r.Videoer.ExtractAudio(req.SourcePath, audioPath); err != nil {
		audioPath = ""
	}
	r.emit(Progress{Phase: PhaseAssemble, Current: 2, Total: 3})

	if err := r.Videoer.JoinStreams(silent, audioPath, outPath, plan.CanvasWidth, plan.CanvasHeight); err != nil {
		return nil, err
	}
	r.emit(Progress{Phase: PhaseAssemble, Current: 3, Total: 3})

	mode := ModeVideo
	if dynamic {
		mode = ModeVideoDynamic
	}
	return &Result{OutPath: outPath, Mode: mode, Frames: video.FrameCount, Plan: plan}, nil
}

// planner builds the geometry planner for a probed source size. A missing
// output width falls back to the source width; a missing height derives
// from the width and the source proportions.
func (r *Runner) planner(srcWidth, srcHeight int, req Request) *geometry.Planner {
	aspect := float64(srcHeight) / float64(srcWidth)
	outWidth := req.OutWidth
	if outWidth < 1 {
		outWidth = srcWidth
	}
	outHeight := req.OutHeight
	if outHeight < 1 {
		outHeight = int(float64(outWidth) * aspect)
	}
	return &geometry.Planner{
		Measurer:   r.Imager,
		Aspect:     aspect,
		OutWidth:   outWidth,
		OutHeight:  outHeight,
		Strict:     req.Strict,
		PointRatio: req.PointRatio,
	}
}

// lockPlan resolves definition and correction at the representative frame
// and locks the shared geometry on them.
func (r *Runner) lockPlan(planner *geometry.Planner, set *param.Set, frame int, evenSizes bool) (geometry.Plan, error) {
	definition, err := set.Definition.Resolve(frame)
	if err != nil {
		return geometry.Plan{}, err
	}
	correction, err := set.Correction.Resolve(frame)
	if err != nil {
		return geometry.Plan{}, err
	}
	return planner.Lock(definition, correction, evenSizes)
}

// frameTasks resolves the per-frame parameters into render tasks. All
// frames share one canvas unless the background color is dynamic, in which
// case each task paints its own before drawing.
func (r *Runner) frameTasks(
	set *param.Set, plan geometry.Plan, ws *workspace.Session,
	count int, source func(frame int) string, gravity string, perFrameMetrics bool,
) ([]frameTask, error) {
	sharedCanvas := !set.BG.IsDynamic()
	if sharedCanvas {
		bg, err := set.BG.Resolve(set.MaxDefinitionFrame())
		if err != nil {
			return nil, err
		}
		r.emit(Progress{Phase: PhaseCanvas, Total: 1})
		if err := r.Imager.BlankPNG(ws.CanvasPath(), plan.CanvasWidth, plan.CanvasHeight, bg); err != nil {
			return nil, err
		}
		r.emit(Progress{Phase: PhaseCanvas, Current: 1, Total: 1})
	}

	tasks := make([]frameTask, 0, count)
	for i := 1; i <= count; i++ {
		bg, err := set.BG.Resolve(i)
		if err != nil {
			return nil, err
		}
		fg, err := set.Text.Resolve(i)
		if err != nil {
			return nil, err
		}
		definition, err := set.Definition.Resolve(i)
		if err != nil {
			return nil, err
		}
		correction, err := set.Correction.Resolve(i)
		if err != nil {
			return nil, err
		}
		ramp, err := set.Chars.Resolve(i)
		if err != nil {
			return nil, err
		}

		f := render.Frame{
			Index:            i,
			SourcePath:       source(i),
			CanvasPath:       ws.CanvasPath(),
			OutPath:          ws.RenderedFramePath(i),
			Width:            plan.CanvasWidth,
			Height:           plan.CanvasHeight,
			PointSize:        plan.PointSize,
			Definition:       definition,
			DefinitionHeight: plan.DefinitionHeight,
			BG:               bg,
			Text:             fg,
			Ramp:             ramp,
			Gravity:          gravity,
		}
		if !sharedCanvas {
			f.CanvasPath = ws.FrameCanvasPath(i)
			f.PaintCanvas = true
		}
		tasks = append(tasks, frameTask{
			frame:       f,
			definition:  definition,
			correction:  correction,
			needMetrics: perFrameMetrics,
		})
	}
	return tasks, nil
}
