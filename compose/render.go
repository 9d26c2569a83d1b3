// Package compose renders frames of a sheet into new images: the animation
// preview, individual and combined exports, animated GIFs and generated grids.
package compose

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"time"

	"github.com/liondadev/sprite-toolkit/sequence"
	"github.com/liondadev/sprite-toolkit/sheet"
)

var ErrNoFrames = errors.New("no frames to render")

// Render copies the frame's rectangle from src into dst with its top-left at
// (dx+OffsetX, dy+OffsetY). Content is never resampled and anything falling
// outside dst is clipped.
func Render(src *sheet.Buffer, f sheet.Frame, dst *sheet.Buffer, dx, dy int) {
	at := image.Pt(dx+f.OffsetX, dy+f.OffsetY)
	r := image.Rectangle{Min: at, Max: at.Add(image.Pt(f.Width, f.Height))}
	draw.Draw(dst.Image(), r, src.Image(), image.Pt(f.X, f.Y), draw.Over)
}

// RenderFrame renders one frame into a buffer of the frame's own size.
func RenderFrame(src *sheet.Buffer, f sheet.Frame) *sheet.Buffer {
	dst := sheet.NewBuffer(f.Width, f.Height)
	Render(src, f, dst, 0, 0)

	return dst
}

// Preview cycles through an animation sequence, rendering one frame per tick.
type Preview struct {
	src    *sheet.Buffer
	frames []sheet.Frame
	seq    []int
	pos    int
}

// NewPreview builds a preview over seq, dropping indices that do not name a
// frame.
func NewPreview(src *sheet.Buffer, frames []sheet.Frame, seq []int) *Preview {
	return &Preview{
		src:    src,
		frames: frames,
		seq:    sequence.Filter(seq, len(frames)),
	}
}

// Len is the number of steps in one cycle.
func (p *Preview) Len() int {
	return len(p.seq)
}

// Tick renders the current step, advances the cycle and reports the index of
// the frame just rendered. ok is false when the sequence is empty.
func (p *Preview) Tick() (index int, img *sheet.Buffer, ok bool) {
	if len(p.seq) == 0 {
		return 0, nil, false
	}

	index = p.seq[p.pos]
	img = RenderFrame(p.src, p.frames[index])
	p.pos = (p.pos + 1) % len(p.seq)

	return index, img, true
}

// Interval is the time between ticks at fps frames per second.
func Interval(fps int) time.Duration {
	fps = max(fps, 1)
	return time.Second / time.Duration(fps)
}

// Run ticks every Interval(fps) until ctx is done or emit fails. Changing the
// speed, sequence or sheet means cancelling ctx and starting a new preview.
func (p *Preview) Run(ctx context.Context, fps int, emit func(index int, img *sheet.Buffer) error) error {
	if p.Len() == 0 {
		return ErrNoFrames
	}

	ticker := time.NewTicker(Interval(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			index, img, _ := p.Tick()
			if err := emit(index, img); err != nil {
				return err
			}
		}
	}
}
