package sheet

import (
	"errors"
	"fmt"
	"slices"

	"github.com/liondadev/sprite-toolkit/sequence"
)

var (
	ErrMergeTooFew = errors.New("merge needs at least two frames")
	ErrIndexRange  = errors.New("frame index out of range")
)

// DefaultFPS is the preview speed of a freshly loaded sheet.
const DefaultFPS = 5

// SetOffset returns a copy of frames with the offset of frames[index]
// replaced. An out of range index leaves the copy unchanged.
func SetOffset(frames []Frame, index, dx, dy int) []Frame {
	out := slices.Clone(frames)
	if index < 0 || index >= len(out) {
		return out
	}
	out[index].OffsetX = dx
	out[index].OffsetY = dy

	return out
}

// Merge replaces the frames at indices with their enclosing rectangle, placed
// at the smallest selected index. Offsets of the merged frame are reset.
func Merge(frames []Frame, indices []int) ([]Frame, error) {
	sel := slices.Clone(indices)
	slices.Sort(sel)
	sel = slices.Compact(sel)
	if len(sel) < 2 {
		return nil, ErrMergeTooFew
	}
	for _, i := range sel {
		if i < 0 || i >= len(frames) {
			return nil, fmt.Errorf("merge %d: %w", i, ErrIndexRange)
		}
	}

	first := frames[sel[0]]
	minX, minY := first.X, first.Y
	maxX, maxY := first.X+first.Width, first.Y+first.Height
	for _, i := range sel[1:] {
		f := frames[i]
		minX = min(minX, f.X)
		minY = min(minY, f.Y)
		maxX = max(maxX, f.X+f.Width)
		maxY = max(maxY, f.Y+f.Height)
	}
	merged := Frame{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}

	out := make([]Frame, 0, len(frames)-len(sel)+1)
	for i, f := range frames {
		if i == sel[0] {
			out = append(out, merged)
			continue
		}
		if _, found := slices.BinarySearch(sel, i); found {
			continue
		}
		out = append(out, f)
	}

	return out, nil
}

// Split re-scans the region of frames[index] in src and replaces that frame
// with the sub-frames found, translated back to sheet coordinates. When nothing
// is found the frames are returned unchanged and found is 0.
func Split(frames []Frame, index int, src *Buffer, colors []Color) (out []Frame, found int, err error) {
	if index < 0 || index >= len(frames) {
		return nil, 0, fmt.Errorf("split %d: %w", index, ErrIndexRange)
	}

	f := frames[index]
	region := src.Crop(f.Rect())
	subs := Scan(region, EmptyFor(region, colors))
	if len(subs) == 0 {
		return slices.Clone(frames), 0, nil
	}

	for i := range subs {
		subs[i].X += f.X
		subs[i].Y += f.Y
	}

	out = make([]Frame, 0, len(frames)-1+len(subs))
	out = append(out, frames[:index]...)
	out = append(out, subs...)
	out = append(out, frames[index+1:]...)

	return out, len(subs), nil
}

// Snapshot is an immutable view of an editor, safe to render or encode.
type Snapshot struct {
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Background   Background `json:"background"`
	Colors       []Color    `json:"colors"`
	Frames       []Frame    `json:"frames"`
	Sequence     []int      `json:"sequence"`
	SequenceText string     `json:"sequenceText"`
	FPS          int        `json:"fps"`
}

// Editor owns one sheet: its decoded pixels, the stripped copy frames are
// detected on, and the frame list. Every structural change swaps the frame
// list as a whole.
type Editor struct {
	source     *Buffer
	processed  *Buffer
	background Background
	colors     []Color

	frames       []Frame
	sequence     []int
	sequenceText string
	explicitSeq  bool
	fps          int
}

// NewEditor takes ownership of src and runs detection with bg.
func NewEditor(src *Buffer, bg Background) *Editor {
	e := &Editor{source: src, fps: DefaultFPS}
	e.Detect(bg)

	return e
}

// Detect strips the sheet with bg and replaces the frame list with a fresh
// scan. The animation sequence resets to every frame.
func (e *Editor) Detect(bg Background) {
	e.background = bg
	e.processed, e.colors, e.frames = Detect(e.source, bg)
	e.resetSequence()
}

// UseGrid replaces the frame list with a fixed cols x rows grid.
func (e *Editor) UseGrid(cols, rows int) {
	e.frames = Grid(e.source.Width, e.source.Height, cols, rows)
	e.resetSequence()
}

func (e *Editor) resetSequence() {
	e.sequence = sequence.All(len(e.frames))
	e.sequenceText = ""
	e.explicitSeq = false
}

// SetOffset changes the render offset of one frame. It reports false when
// index is out of range.
func (e *Editor) SetOffset(index, dx, dy int) bool {
	if index < 0 || index >= len(e.frames) {
		return false
	}
	e.frames = SetOffset(e.frames, index, dx, dy)

	return true
}

func (e *Editor) Merge(indices []int) error {
	merged, err := Merge(e.frames, indices)
	if err != nil {
		return err
	}
	e.frames = merged
	e.refreshSequence()

	return nil
}

func (e *Editor) Split(index int) (int, error) {
	split, found, err := Split(e.frames, index, e.processed, e.colors)
	if err != nil {
		return 0, err
	}
	e.frames = split
	e.refreshSequence()

	return found, nil
}

// refreshSequence keeps the implicit "every frame" sequence in step with the
// frame count. A sequence typed by the user is left alone and filtered on use.
func (e *Editor) refreshSequence() {
	if !e.explicitSeq {
		e.sequence = sequence.All(len(e.frames))
	}
}

// SetSequence parses text as the animation sequence.
func (e *Editor) SetSequence(text string) {
	e.sequenceText = text
	e.sequence = sequence.Parse(text)
	e.explicitSeq = true
}

// SetFPS sets the preview speed, values below 1 clamp to 1.
func (e *Editor) SetFPS(fps int) {
	e.fps = max(fps, 1)
}

// Processed returns the stripped buffer frames are cut from.
func (e *Editor) Processed() *Buffer {
	return e.processed
}

// Recompute returns a snapshot of the current state with the sequence
// filtered to valid frame indices.
func (e *Editor) Recompute() Snapshot {
	return Snapshot{
		Width:        e.source.Width,
		Height:       e.source.Height,
		Background:   e.background,
		Colors:       slices.Clone(e.colors),
		Frames:       slices.Clone(e.frames),
		Sequence:     sequence.Filter(e.sequence, len(e.frames)),
		SequenceText: e.sequenceText,
		FPS:          e.fps,
	}
}
