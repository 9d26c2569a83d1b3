package sheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Tolerance is the inclusive per-channel distance at which a pixel still
// matches a background color.
const Tolerance = 5

var ErrBadColor = errors.New("invalid color")

// Color is an RGB triple. Alpha never takes part in background matching.
type Color struct {
	R, G, B uint8
}

// ParseHex parses "#RRGGBB" (the leading '#' is optional).
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("parse %q: %w", s, ErrBadColor)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("parse %q: %w", s, ErrBadColor)
	}

	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed

	return nil
}

// Matches reports whether every channel lies within Tolerance of c.
func (c Color) Matches(r, g, b uint8) bool {
	return near(r, c.R) && near(g, c.G) && near(b, c.B)
}

func near(a, b uint8) bool {
	if a > b {
		return a-b <= Tolerance
	}

	return b-a <= Tolerance
}

// IsBackground reports whether pixel (x, y) matches any of colors. The caller
// guarantees the coordinates are in range.
func (b *Buffer) IsBackground(x, y int, colors []Color) bool {
	i := b.offset(x, y)
	for _, c := range colors {
		if c.Matches(b.Pix[i], b.Pix[i+1], b.Pix[i+2]) {
			return true
		}
	}

	return false
}

// Mode selects how background colors are chosen.
type Mode string

const (
	ModeOff    Mode = "off"
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

// Background is the background-removal policy of a sheet.
type Background struct {
	Mode   Mode    `json:"mode"`
	Colors []Color `json:"colors,omitempty"`
}

// ParseBackground builds a policy from a mode name and hex colors. Colors that
// fail to parse are skipped; an unknown mode turns removal off.
func ParseBackground(mode string, hex []string) Background {
	switch Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case ModeAuto:
		return Background{Mode: ModeAuto}
	case ModeManual:
		bg := Background{Mode: ModeManual}
		for _, h := range hex {
			c, err := ParseHex(h)
			if err != nil {
				continue
			}
			bg.Colors = append(bg.Colors, c)
		}
		return bg
	default:
		return Background{Mode: ModeOff}
	}
}

// Enabled reports whether background removal is on.
func (bg Background) Enabled() bool {
	return bg.Mode == ModeAuto || bg.Mode == ModeManual
}

// Resolve returns the colors to strip from b: the pixel at (0,0) in auto mode,
// the manual colors in manual mode, nothing when removal is off.
func (bg Background) Resolve(b *Buffer) []Color {
	switch bg.Mode {
	case ModeAuto:
		if b.Width == 0 || b.Height == 0 {
			return nil
		}
		return []Color{{R: b.Pix[0], G: b.Pix[1], B: b.Pix[2]}}
	case ModeManual:
		return append([]Color(nil), bg.Colors...)
	default:
		return nil
	}
}

// Strip forces the alpha of every pixel matching colors to 0, in place. Color
// channels and non-matching pixels are untouched. With no colors the buffer is
// returned as is.
func Strip(b *Buffer, colors []Color) *Buffer {
	if len(colors) == 0 {
		return b
	}

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.IsBackground(x, y, colors) {
				b.Pix[b.offset(x, y)+3] = 0
			}
		}
	}

	return b
}
