// Package magick shells out to the ImageMagick command line tools for
// image probing, canvas creation, text drawing and text measurement.
package magick

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/llehouerou/charcoal/internal/errmsg"
	"github.com/llehouerou/charcoal/internal/param"
)

// Gravity values accepted by TextOverlay.
const (
	GravityTopLeft = "Northwest"
	GravityCenter  = "Center"
)

// Client invokes ImageMagick subprocesses. Fields are tool names resolved
// through PATH, or absolute paths to the binaries.
type Client struct {
	Convert  string
	Identify string
	Font     string
}

// New returns a Client using the convert and identify tools from PATH and
// the Courier font.
func New() *Client {
	return &Client{Convert: "convert", Identify: "identify", Font: "Courier"}
}

// run executes one tool invocation and returns its trimmed combined output.
func run(name string, args ...string) (string, error) {
	output, err := exec.Command(name, args...).CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

// Dimensions reports the pixel width and height of the image at path.
func (c *Client) Dimensions(path string) (int, int, error) {
	out, err := run(c.Identify, "-format", "%wx%h", path)
	if err != nil {
		if out != "" {
			err = fmt.Errorf("%w\n%s", err, out)
		}
		return 0, 0, errmsg.Input(errmsg.OpProbeImage, err)
	}
	w, h, err := parseDimensions(out)
	if err != nil {
		return 0, 0, errmsg.Input(errmsg.OpProbeImage, fmt.Errorf("unexpected identify output %q", out))
	}
	return w, h, nil
}

// BlankPNG writes a width x height canvas filled with a single color to path.
func (c *Client) BlankPNG(path string, width, height int, fill param.Color) error {
	out, err := run(c.Convert,
		"-size", fmt.Sprintf("%dx%d", width, height),
		"xc:"+fill.Fill(),
		path)
	if err != nil {
		return errmsg.Tool(errmsg.OpCanvasCreate, out, err)
	}
	return nil
}

// TextOverlay draws text over the canvas image and writes the result to
// outPath. Gravity anchors the text block inside the canvas.
func (c *Client) TextOverlay(canvasPath, outPath, text string, pointSize int, fill param.Color, gravity string) error {
	out, err := run(c.Convert,
		canvasPath,
		"-gravity", gravity,
		"-font", c.Font,
		"-pointsize", strconv.Itoa(pointSize),
		"-fill", fill.Fill(),
		"-interline-spacing", "0",
		"-annotate", "+0+0", text,
		outPath)
	if err != nil {
		return errmsg.Tool(errmsg.OpTextOverlay, out, err)
	}
	return nil
}

// TextDimensions renders a cols x rows block of full-cell glyphs at
// pointSize on a scratch canvas and reports the trimmed extent of the drawn
// text. The block uses '#' on the edges and '|' in between so the trim
// bounds span whole character cells.
func (c *Client) TextDimensions(cols, rows, pointSize, boxWidth, boxHeight int) (int, int, error) {
	if cols < 2 || rows < 1 {
		return 0, 0, errmsg.Configuration("measurement block %dx%d is too small", cols, rows)
	}
	out, err := run(c.Convert,
		"-size", fmt.Sprintf("%dx%d", boxWidth, boxHeight),
		"xc:white",
		"-gravity", GravityTopLeft,
		"-font", c.Font,
		"-pointsize", strconv.Itoa(pointSize),
		"-fill", "black",
		"-undercolor", "none",
		"-annotate", "+0+0", measureBlock(cols, rows),
		"-trim", "info:")
	if err != nil {
		return 0, 0, errmsg.Tool(errmsg.OpTextMeasure, out, err)
	}
	w, h, err := parseTrimInfo(out)
	if err != nil {
		return 0, 0, errmsg.Tool(errmsg.OpTextMeasure, "", fmt.Errorf("unexpected trim output %q: %w", out, err))
	}
	return w, h, nil
}

// measureBlock builds the rectangular test text drawn for measurement.
func measureBlock(cols, rows int) string {
	line := "#" + strings.Repeat("|", cols-2) + "#"
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// parseDimensions parses a "WxH" geometry string.
func parseDimensions(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("missing x separator in %q", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

// parseTrimInfo extracts the trimmed geometry from `convert ... -trim info:`
// output, whose third field holds the WxH of the trimmed region.
func parseTrimInfo(s string) (int, int, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return 0, 0, fmt.Errorf("want at least 3 fields, got %d", len(fields))
	}
	return parseDimensions(fields[2])
}
