// Package metadata builds the JSON descriptions written next to exported
// sheets.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/liondadev/sprite-toolkit/sequence"
	"github.com/liondadev/sprite-toolkit/sheet"
)

// Format selects the JSON shape written by Encode.
type Format string

const (
	FormatArray         Format = "json-array"
	FormatTexturePacker Format = "texturepacker"
	FormatAseprite      Format = "aseprite"
	FormatFull          Format = "full"
)

// ParseFormat maps a user supplied name to a format. Unknown names fall back
// to FormatArray.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-")) {
	case string(FormatTexturePacker):
		return FormatTexturePacker
	case string(FormatAseprite):
		return FormatAseprite
	case string(FormatFull):
		return FormatFull
	default:
		return FormatArray
	}
}

// Rect is one frame of the exported sheet, ID being its index.
type Rect struct {
	ID     int `json:"id"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Animation struct {
	Name   string `json:"name"`
	Frames []int  `json:"frames"`
	FPS    int    `json:"fps"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Meta struct {
	Image string `json:"image"`
	Size  Size   `json:"size"`
	Scale int    `json:"scale"`
}

// Export is a read-only description of one export action.
type Export struct {
	Frames     []Rect      `json:"frames"`
	Animations []Animation `json:"animations"`
	Meta       Meta        `json:"meta"`
}

// Build snapshots frames and the "default" animation. The sequence is
// filtered to valid indices; image is the exported sheet's file name.
func Build(frames []sheet.Frame, seq []int, fps int, image string, width, height, scale int) Export {
	rects := make([]Rect, len(frames))
	for i, f := range frames {
		rects[i] = Rect{ID: i, X: f.X, Y: f.Y, Width: f.Width, Height: f.Height}
	}

	return Export{
		Frames: rects,
		Animations: []Animation{{
			Name:   "default",
			Frames: sequence.Filter(seq, len(frames)),
			FPS:    fps,
		}},
		Meta: Meta{
			Image: image,
			Size:  Size{Width: width, Height: height},
			Scale: max(scale, 1),
		},
	}
}

type shortSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type texturePacker struct {
	Frames map[string]any `json:"frames"`
	Meta   struct {
		Image string    `json:"image"`
		Size  shortSize `json:"size"`
	} `json:"meta"`
}

type aseprite struct {
	Frames []any `json:"frames"`
	Meta   struct {
		Image     string    `json:"image"`
		Size      shortSize `json:"size"`
		FrameTags []any     `json:"frameTags"`
	} `json:"meta"`
}

type array struct {
	Frames []Rect `json:"frames"`
}

// Shape returns the value Encode writes for format f. The TexturePacker and
// Aseprite shapes only carry the top-level layout and meta; their frame
// collections are empty.
func (e Export) Shape(f Format) any {
	size := shortSize{W: e.Meta.Size.Width, H: e.Meta.Size.Height}

	switch f {
	case FormatTexturePacker:
		var tp texturePacker
		tp.Frames = map[string]any{}
		tp.Meta.Image = e.Meta.Image
		tp.Meta.Size = size
		return tp
	case FormatAseprite:
		var as aseprite
		as.Frames = []any{}
		as.Meta.Image = e.Meta.Image
		as.Meta.Size = size
		as.Meta.FrameTags = []any{}
		return as
	case FormatFull:
		return e
	default:
		return array{Frames: e.Frames}
	}
}

// Encode writes e in format f as indented JSON.
func Encode(w io.Writer, e Export, f Format) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e.Shape(f)); err != nil {
		return fmt.Errorf("encode %s metadata: %w", f, err)
	}

	return nil
}
