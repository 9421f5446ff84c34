package ffmpeg

import (
	"bytes"
	"fmt"
	"strconv"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/llehouerou/charcoal/internal/errmsg"
)

// ExtractFrames decomposes the video at path into numbered PNG files
// following pattern (frame%d.png, 1-based) at native resolution.
func (t *Tool) ExtractFrames(path, pattern string) error {
	var stderr bytes.Buffer
	err := ffmpeggo.Input(path).
		Output(pattern).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return errmsg.Tool(errmsg.OpFrameExtract, stderr.String(), err)
	}
	return nil
}

// AssembleVideo encodes the numbered frames matching pattern into an H.264
// MP4 at the given frame rate.
func (t *Tool) AssembleVideo(pattern, outPath string, fps int) error {
	var stderr bytes.Buffer
	err := ffmpeggo.Input(pattern, ffmpeggo.KwArgs{"r": strconv.Itoa(fps)}).
		Output(outPath, ffmpeggo.KwArgs{
			"framerate": strconv.Itoa(fps),
			"c:v":       "libx264",
			"pix_fmt":   "yuv420p",
		}).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return errmsg.Tool(errmsg.OpFrameAssemble, stderr.String(), err)
	}
	return nil
}

// AssembleGIF encodes the numbered frames matching pattern into a GIF at
// the given frame rate.
func (t *Tool) AssembleGIF(pattern, outPath string, fps int) error {
	var stderr bytes.Buffer
	err := ffmpeggo.Input(pattern, ffmpeggo.KwArgs{
		"f":         "image2",
		"framerate": strconv.Itoa(fps),
	}).
		Output(outPath).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return errmsg.Tool(errmsg.OpFrameAssemble, stderr.String(), err)
	}
	return nil
}

// ExtractAudio copies the audio stream of the video at path into outPath
// without re-encoding. A failure means the source has no usable audio
// stream; callers may proceed without one.
func (t *Tool) ExtractAudio(path, outPath string) error {
	var stderr bytes.Buffer
	err := ffmpeggo.Input(path).
		Output(outPath, ffmpeggo.KwArgs{"vn": "", "acodec": "copy"}).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return errmsg.Tool(errmsg.OpAudioExtract, stderr.String(), err)
	}
	return nil
}

// JoinStreams scales the assembled video to width x height and muxes in
// the audio track when audioPath is not empty. Each input carries a single
// stream, so default stream selection picks the video from the first input
// and the audio from the second.
func (t *Tool) JoinStreams(videoPath, audioPath, outPath string, width, height int) error {
	kwargs := ffmpeggo.KwArgs{
		"vf":  fmt.Sprintf("scale=%d:%d", width, height),
		"crf": "18",
	}
	inputs := []*ffmpeggo.Stream{ffmpeggo.Input(videoPath)}
	if audioPath != "" {
		inputs = append(inputs, ffmpeggo.Input(audioPath))
		kwargs["shortest"] = ""
	}

	var stderr bytes.Buffer
	err := ffmpeggo.Output(inputs, outPath, kwargs).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return errmsg.Tool(errmsg.OpStreamJoin, stderr.String(), err)
	}
	return nil
}
