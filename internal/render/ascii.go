// Package render turns source images into ASCII text blocks and composites
// them onto canvas images, one frame at a time.
package render

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // GIF decoder for source images
	_ "image/jpeg" // JPEG decoder for source images
	_ "image/png"  // PNG decoder for source and extracted video frames
	"os"
	"strings"

	"github.com/nfnt/resize"

	"github.com/llehouerou/charcoal/internal/errmsg"
	"github.com/llehouerou/charcoal/internal/param"
)

// Text samples the image at path into a cols x rows grid and maps each
// sample's luminance to a ramp cluster. Rows are separated by newlines, so
// the result is rows equal-length lines in row-major order.
func Text(path string, cols, rows int, ramp param.Ramp) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errmsg.Input(errmsg.OpProbeImage, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", errmsg.Input(errmsg.OpProbeImage, fmt.Errorf("%s: %w", path, err))
	}
	return textFromImage(img, cols, rows, ramp), nil
}

// textFromImage is the sampling core, split out so tests can feed images
// directly.
func textFromImage(img image.Image, cols, rows int, ramp param.Ramp) string {
	resized := resize.Resize(uint(cols), uint(rows), img, resize.Lanczos3)
	bounds := resized.Bounds()

	var b strings.Builder
	b.Grow(rows * (cols + 1))
	for y := range rows {
		for x := range cols {
			l := luminance(resized.At(bounds.Min.X+x, bounds.Min.Y+y))
			b.WriteString(ramp.ClusterFor(l))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// luminance converts a sample to its 8-bit gray value using the standard
// Rec. 601 weighting.
func luminance(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}
