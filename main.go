// Command charcoal converts images and videos into ASCII art renditions,
// drawn with ImageMagick and assembled with FFmpeg.
package main

import (
	"cmp"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/llehouerou/charcoal/internal/config"
	"github.com/llehouerou/charcoal/internal/errmsg"
	"github.com/llehouerou/charcoal/internal/ffmpeg"
	"github.com/llehouerou/charcoal/internal/history"
	"github.com/llehouerou/charcoal/internal/magick"
	"github.com/llehouerou/charcoal/internal/param"
	"github.com/llehouerou/charcoal/internal/pipeline"
	"github.com/llehouerou/charcoal/internal/ui"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var errInterrupted = errors.New("interrupted")

type options struct {
	output     string
	definition string
	bg         string
	fg         string
	chars      string
	reverse    bool
	correction string
	width      int
	height     int
	strict     bool
	frames     int
	fps        int
	mp4        bool
	saveText   bool
	preview    bool
	workers    int
	quiet      bool
	noUI       bool
	configPath string
	history    bool
	version    bool
}

func main() {
	err := run(os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, errInterrupted):
		fmt.Fprintln(os.Stderr, "interrupted")
		os.Exit(130)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("charcoal", flag.ExitOnError)
	var opts options
	fs.StringVar(&opts.output, "o", "", "output path (default: next to the input, collision-safe)")
	fs.StringVar(&opts.definition, "d", "", "characters across the output width (default 100); a..b sweeps per frame")
	fs.StringVar(&opts.bg, "bg", "", "background color: luminance, r,g,b or #hex (default 30); a..b sweeps luminance")
	fs.StringVar(&opts.fg, "fg", "", "text color, same forms as -bg (default 255)")
	fs.StringVar(&opts.chars, "chars", "", "character ramp, dimmest to brightest (default \""+param.DefaultRamp+"\")")
	fs.BoolVar(&opts.reverse, "reverse", false, "reverse the character ramp, for dark text on light backgrounds")
	fs.StringVar(&opts.correction, "correction", "", "glyph aspect correction factor (default: measured); a..b sweeps per frame")
	fs.IntVar(&opts.width, "width", 0, "output width in pixels (default: source width)")
	fs.IntVar(&opts.height, "height", 0, "output height in pixels (default: derived from the width)")
	fs.BoolVar(&opts.strict, "strict", false, "keep the requested dimensions instead of fitting the canvas to the text")
	fs.IntVar(&opts.frames, "frames", 0, "frame count when turning an image into a sequence")
	fs.IntVar(&opts.fps, "fps", 0, "image sequence frame rate (default 5); videos keep their own")
	fs.BoolVar(&opts.mp4, "mp4", false, "assemble image sequences as MP4 instead of GIF")
	fs.BoolVar(&opts.saveText, "save-text", false, "also write the text of a single-image run to a .txt file")
	fs.BoolVar(&opts.preview, "preview-params", false, "print the per-frame parameter table and exit without rendering")
	fs.IntVar(&opts.workers, "workers", 0, "parallel render workers (default: one per CPU)")
	fs.BoolVar(&opts.quiet, "quiet", false, "suppress all output except errors")
	fs.BoolVar(&opts.noUI, "no-ui", false, "plain progress lines instead of the interactive display")
	fs.StringVar(&opts.configPath, "config", "", "config file path (default: XDG config dir, then ./config.toml)")
	fs.BoolVar(&opts.history, "history", false, "list recent runs and exit")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: charcoal [flags] <image-or-video>\n\n")
		fmt.Fprintf(fs.Output(), "Turns an image or video into ASCII art. Requires ImageMagick and FFmpeg.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if opts.version {
		fmt.Println("charcoal " + version)
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return &errmsg.Error{Kind: errmsg.KindConfiguration, Op: errmsg.OpConfigLoad, Err: err}
	}

	if opts.history {
		return listHistory(cfg)
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return errmsg.Configuration("expected exactly one input file")
	}
	source := fs.Arg(0)

	in, err := buildInputs(&opts, cfg)
	if err != nil {
		return err
	}

	if opts.frames < 0 {
		return errmsg.Configuration("frame count must be positive, got %d", opts.frames)
	}
	if opts.width < 0 || opts.height < 0 {
		return errmsg.Configuration("output dimensions must be positive")
	}
	frameCount := opts.frames
	if frameCount == 0 && in.AnyDynamic() && !pipeline.IsVideoSource(source) {
		frameCount = cfg.Defaults.FrameCount
	}

	req := pipeline.Request{
		SourcePath: source,
		OutPath:    opts.output,
		Inputs:     in,
		OutWidth:   opts.width,
		OutHeight:  opts.height,
		Strict:     opts.strict,
		FrameCount: frameCount,
		FPS:        cmp.Or(opts.fps, cfg.Defaults.FPS),
		MP4:        opts.mp4 || cfg.Output.MP4,
		SaveText:   opts.saveText,
	}

	img := &magick.Client{Convert: cfg.Tools.Convert, Identify: cfg.Tools.Identify, Font: cfg.Tools.Font}
	runner := pipeline.NewRunner(img, ffmpeg.NewTool())
	runner.Workers = cmp.Or(opts.workers, cfg.Defaults.Workers)

	if opts.preview {
		return printPreview(runner, req)
	}
	return execute(runner, req, &opts, cfg)
}

// execute runs the pipeline with the progress reporting the terminal calls
// for, records the run in the ledger and prints the completion summary.
func execute(runner *pipeline.Runner, req pipeline.Request, opts *options, cfg *config.Config) error {
	started := time.Now()

	var (
		res *pipeline.Result
		err error
	)
	switch {
	case opts.quiet:
		res, err = runner.Run(req)
	case !opts.noUI && isatty.IsTerminal(os.Stderr.Fd()):
		out, ok, uiErr := ui.RunWithProgress(runner, req)
		if uiErr != nil {
			return uiErr
		}
		if !ok {
			return errInterrupted
		}
		res, err = out.Result, out.Err
	default:
		res, err = ui.RunWithPlainProgress(runner, req, os.Stderr)
	}

	rec := history.Run{
		StartedAt:  started,
		Source:     req.SourcePath,
		Mode:       string(requestMode(req)),
		Frames:     req.FrameCount,
		Definition: definitionLabel(opts, cfg),
		Duration:   time.Since(started),
		Status:     history.StatusFailed,
	}
	if err == nil {
		rec.Output = res.OutPath
		rec.Mode = string(res.Mode)
		rec.Frames = res.Frames
		rec.Status = history.StatusOK
		if fi, statErr := os.Stat(res.OutPath); statErr == nil {
			rec.SizeBytes = fi.Size()
		}
	}
	recordRun(cfg, rec)

	if err != nil {
		return err
	}
	if !opts.quiet {
		printSummary(os.Stdout, res, rec.SizeBytes, rec.Duration)
	}
	return nil
}

// requestMode mirrors the pipeline's dispatch so failed runs can be recorded
// with the mode they would have run in.
func requestMode(req pipeline.Request) pipeline.Mode {
	switch {
	case pipeline.IsVideoSource(req.SourcePath):
		if req.Inputs.AnyDynamic() {
			return pipeline.ModeVideoDynamic
		}
		return pipeline.ModeVideo
	case req.FrameCount > 0 || req.Inputs.AnyDynamic():
		return pipeline.ModeImageSequence
	default:
		return pipeline.ModeImage
	}
}

// definitionLabel is the definition as given on the command line (possibly a
// sweep expression), for the history ledger.
func definitionLabel(opts *options, cfg *config.Config) string {
	if opts.definition != "" {
		return opts.definition
	}
	return strconv.Itoa(cfg.Defaults.Definition)
}

// recordRun appends the run to the history ledger. Failures are warnings;
// the run's outcome never depends on them.
func recordRun(cfg *config.Config, rec history.Run) {
	if !cfg.HistoryEnabled() {
		return
	}
	mgr, err := history.Open(cfg.History.MaxEntries)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", errmsg.Format(errmsg.OpHistorySave, err))
		return
	}
	defer mgr.Close()
	if err := mgr.Record(rec); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", errmsg.Format(errmsg.OpHistorySave, err))
	}
}

func printSummary(w io.Writer, res *pipeline.Result, size int64, took time.Duration) {
	parts := []string{string(res.Mode)}
	if res.Frames > 1 {
		parts = append(parts, fmt.Sprintf("%d frames", res.Frames))
	}
	if size > 0 {
		parts = append(parts, humanize.Bytes(uint64(size)))
	}
	fmt.Fprintf(w, "wrote %s (%s) in %s\n", res.OutPath, strings.Join(parts, ", "), formatDuration(took))
	if res.TextPath != "" {
		fmt.Fprintf(w, "text saved to %s\n", res.TextPath)
	}
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

// printPreview prints the per-frame parameter table without rendering.
func printPreview(runner *pipeline.Runner, req pipeline.Request) error {
	rows, err := runner.Preview(req)
	if err != nil {
		return err
	}
	if len(rows) == 0 || len(rows[0]) < 2 {
		fmt.Println("no dynamic parameters")
		return nil
	}
	fmt.Println(ui.PreviewTable(rows))
	return nil
}

func listHistory(cfg *config.Config) error {
	mgr, err := history.Open(cfg.History.MaxEntries)
	if err != nil {
		return &errmsg.Error{Op: errmsg.OpHistoryLoad, Err: err}
	}
	defer mgr.Close()

	runs, err := mgr.Recent(0)
	if err != nil {
		return &errmsg.Error{Op: errmsg.OpHistoryLoad, Err: err}
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	fmt.Println(ui.HistoryTable(runs))
	return nil
}

// buildInputs assembles the five generation parameters from flags, falling
// back to configured defaults for anything not given on the command line.
func buildInputs(opts *options, cfg *config.Config) (param.Inputs, error) {
	var (
		in  param.Inputs
		err error
	)
	if in.BG, err = colorSource("-bg", cmp.Or(opts.bg, cfg.Defaults.BG)); err != nil {
		return param.Inputs{}, err
	}
	if in.Text, err = colorSource("-fg", cmp.Or(opts.fg, cfg.Defaults.FG)); err != nil {
		return param.Inputs{}, err
	}
	if in.Definition, err = intSource("-d", opts.definition, cfg.Defaults.Definition); err != nil {
		return param.Inputs{}, err
	}
	if in.Correction, err = floatSource("-correction", opts.correction, cfg.Defaults.Correction); err != nil {
		return param.Inputs{}, err
	}
	ramp, err := param.NewRamp(cmp.Or(opts.chars, cfg.Defaults.Chars))
	if err != nil {
		return param.Inputs{}, err
	}
	in.Chars = param.Static(ramp)
	in.ReverseChars = opts.reverse
	return in, nil
}

// intSource reads an integer flag value: empty takes the fallback, "a..b"
// sweeps linearly across the frames, anything else is a fixed value.
func intSource(name, raw string, fallback int) (param.Source[int], error) {
	if raw == "" {
		return param.Static(fallback), nil
	}
	if from, to, ok := strings.Cut(raw, ".."); ok {
		a, errA := strconv.Atoi(strings.TrimSpace(from))
		b, errB := strconv.Atoi(strings.TrimSpace(to))
		if errA != nil || errB != nil {
			return param.Source[int]{}, errmsg.Configuration("invalid %s sweep %q", name, raw)
		}
		return param.SweepInt(a, b), nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return param.Source[int]{}, errmsg.Configuration("invalid %s value %q", name, raw)
	}
	return param.Static(v), nil
}

func floatSource(name, raw string, fallback float64) (param.Source[float64], error) {
	if raw == "" {
		return param.Static(fallback), nil
	}
	if from, to, ok := strings.Cut(raw, ".."); ok {
		a, errA := strconv.ParseFloat(strings.TrimSpace(from), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(to), 64)
		if errA != nil || errB != nil {
			return param.Source[float64]{}, errmsg.Configuration("invalid %s sweep %q", name, raw)
		}
		return param.SweepFloat(a, b), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return param.Source[float64]{}, errmsg.Configuration("invalid %s value %q", name, raw)
	}
	return param.Static(v), nil
}

// colorSource reads a color flag value. Sweeps interpolate luminance, so
// both endpoints must be plain 0-255 values; fixed colors take any form
// param.ParseColor accepts.
func colorSource(name, raw string) (param.Source[param.Color], error) {
	if from, to, ok := strings.Cut(raw, ".."); ok {
		a, errA := parseLuminance(from)
		b, errB := parseLuminance(to)
		if errA != nil || errB != nil {
			return param.Source[param.Color]{}, errmsg.Configuration(
				"invalid %s sweep %q: endpoints must be 0-255 luminance values", name, raw)
		}
		return param.SweepGray(a, b), nil
	}
	c, err := param.ParseColor(raw)
	if err != nil {
		return param.Source[param.Color]{}, err
	}
	return param.Static(c), nil
}

func parseLuminance(s string) (uint8, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%d is outside 0-255", v)
	}
	return uint8(v), nil
}
