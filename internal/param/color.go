package param

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/llehouerou/charcoal/internal/errmsg"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Gray broadcasts a single luminance value to all three channels.
func Gray(l uint8) Color {
	return Color{R: l, G: l, B: l}
}

// Fill returns the ImageMagick fill expression for the color.
func (c Color) Fill() string {
	return fmt.Sprintf("rgba(%d,%d,%d,1)", c.R, c.G, c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// ParseColor reads a color from its textual form: a bare luminance value
// ("30"), an r,g,b triple ("80,10,10"), or a hex string ("#1e1e1e").
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, errmsg.Configuration("empty color value")
	}

	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return Color{}, errmsg.Configuration("invalid hex color %q", s)
		}
		r, g, b := c.RGB255()
		return Color{R: r, G: g, B: b}, nil
	}

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return Color{}, errmsg.Configuration("color %q must have exactly three channels", s)
		}
		var ch [3]uint8
		for i, p := range parts {
			v, err := parseChannel(strings.TrimSpace(p))
			if err != nil {
				return Color{}, errmsg.Configuration("invalid color %q: %v", s, err)
			}
			ch[i] = v
		}
		return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
	}

	l, err := parseChannel(s)
	if err != nil {
		return Color{}, errmsg.Configuration("invalid color %q: %v", s, err)
	}
	return Gray(l), nil
}

func parseChannel(s string) (uint8, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%d is outside 0-255", v)
	}
	return uint8(v), nil
}
