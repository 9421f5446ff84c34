// Package ffmpeg drives ffmpeg and ffprobe through the ffmpeg-go bindings
// for video probing, frame extraction and stream assembly.
package ffmpeg

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/llehouerou/charcoal/internal/errmsg"
)

// Tool invokes the ffmpeg and ffprobe binaries from PATH.
type Tool struct{}

// NewTool returns a ready-to-use Tool.
func NewTool() *Tool { return &Tool{} }

// Video describes the probed properties of a video file's first video
// stream. Width and height account for any rotation metadata.
type Video struct {
	Width      int
	Height     int
	FPS        int
	FrameCount int
}

// Probe reads the stream properties of the video at path.
func (t *Tool) Probe(path string) (Video, error) {
	out, err := ffmpeggo.Probe(path)
	if err != nil {
		return Video{}, errmsg.Input(errmsg.OpProbeVideo, err)
	}
	v, err := parseProbe(out)
	if err != nil {
		return Video{}, errmsg.Input(errmsg.OpProbeVideo, err)
	}
	return v, nil
}

type probeReport struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
	Tags         struct {
		Rotate string `json:"rotate"`
	} `json:"tags"`
	SideDataList []struct {
		Rotation float64 `json:"rotation"`
	} `json:"side_data_list"`
}

// parseProbe extracts the video properties from ffprobe's JSON output.
func parseProbe(data string) (Video, error) {
	var report probeReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return Video{}, fmt.Errorf("unexpected ffprobe output: %w", err)
	}

	var stream *probeStream
	for i := range report.Streams {
		if report.Streams[i].CodecType == "video" {
			stream = &report.Streams[i]
			break
		}
	}
	if stream == nil {
		return Video{}, errors.New("no video stream found")
	}
	if stream.Width < 1 || stream.Height < 1 {
		return Video{}, errors.New("video stream reports no dimensions")
	}

	v := Video{Width: stream.Width, Height: stream.Height}
	if stream.rotated() {
		v.Width, v.Height = v.Height, v.Width
	}

	rate, err := parseRational(stream.RFrameRate)
	if err != nil || rate <= 0 {
		rate, err = parseRational(stream.AvgFrameRate)
		if err != nil || rate <= 0 {
			return Video{}, errors.New("cannot determine frame rate")
		}
	}
	v.FPS = int(math.Round(rate))
	if v.FPS < 1 {
		v.FPS = 1
	}

	v.FrameCount, err = frameCount(stream, report.Format.Duration, rate)
	if err != nil {
		return Video{}, err
	}
	return v, nil
}

// frameCount reads the container's frame count, estimating it from the
// duration when the container does not carry one.
func frameCount(stream *probeStream, formatDuration string, rate float64) (int, error) {
	if n, err := strconv.Atoi(stream.NbFrames); err == nil && n > 0 {
		return n, nil
	}
	duration := stream.Duration
	if duration == "" {
		duration = formatDuration
	}
	d, err := strconv.ParseFloat(duration, 64)
	if err != nil || d <= 0 {
		return 0, errors.New("cannot determine frame count")
	}
	n := int(math.Round(d * rate))
	if n < 1 {
		return 0, errors.New("cannot determine frame count")
	}
	return n, nil
}

// rotated reports whether the stream carries rotation metadata that swaps
// the display width and height. Older containers use a rotate tag, newer
// ones a display matrix side data entry.
func (s *probeStream) rotated() bool {
	if deg, err := strconv.Atoi(s.Tags.Rotate); err == nil && quarterTurn(deg) {
		return true
	}
	for _, sd := range s.SideDataList {
		if quarterTurn(int(math.Round(sd.Rotation))) {
			return true
		}
	}
	return false
}

// quarterTurn reports whether a rotation in degrees flips width and height.
func quarterTurn(deg int) bool {
	deg %= 180
	if deg < 0 {
		deg += 180
	}
	return deg == 90
}

// parseRational parses an ffprobe frame rate, either "num/den" or a plain
// number.
func parseRational(s string) (float64, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return strconv.ParseFloat(s, 64)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator in %q", s)
	}
	return n / d, nil
}
