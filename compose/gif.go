package compose

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/liondadev/sprite-toolkit/sheet"
)

// TransparentQuantizer is a median cut quantizer whose palette always starts
// with a fully transparent entry. The remaining capacity of p is filled by the
// median cut.
type TransparentQuantizer struct {
	quantize.MedianCutQuantizer
}

var transparent = color.RGBA{0, 0, 0, 0}

func (q TransparentQuantizer) Quantize(p color.Palette, m image.Image) color.Palette {
	if cap(p) == 0 {
		p = make(color.Palette, 0, 256)
	}
	p = append(p[:0], transparent)

	return q.MedianCutQuantizer.Quantize(p, m)
}

// TransparentDrawer dithers with Floyd-Steinberg but maps every fully
// transparent source pixel to palette index 0 instead of dithering it.
type TransparentDrawer struct {
	dr draw.Drawer
}

func NewTransparentDrawer() TransparentDrawer {
	return TransparentDrawer{draw.FloydSteinberg}
}

func (td TransparentDrawer) Draw(dst draw.Image, r image.Rectangle, src image.Image, sp image.Point) {
	td.dr.Draw(dst, r, src, sp)

	pal, ok := dst.(*image.Paletted)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			_, _, _, a := src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y).RGBA()
			if a != 0 {
				continue
			}
			if ok {
				pal.SetColorIndex(x, y, 0)
				continue
			}
			dst.Set(x, y, transparent)
		}
	}
}

// EncodeGIF writes one animation cycle of seq as a looping GIF. Every frame is
// drawn at the top-left of a canvas as large as the largest frame in seq.
func EncodeGIF(w io.Writer, src *sheet.Buffer, frames []sheet.Frame, seq []int, fps int, o Options) error {
	p := NewPreview(src, frames, seq)
	if p.Len() == 0 {
		return ErrNoFrames
	}

	width, height := 0, 0
	for _, i := range p.seq {
		width = max(width, frames[i].Width)
		height = max(height, frames[i].Height)
	}
	if err := o.Check(width, height); err != nil {
		return err
	}

	delay := 100 / max(fps, 1)
	quantizer := TransparentQuantizer{quantize.MedianCutQuantizer{}}
	drawer := NewTransparentDrawer()

	anim := &gif.GIF{LoopCount: 0}
	for step := 0; step < p.Len(); step++ {
		_, img, _ := p.Tick()

		canvas := sheet.NewBuffer(width, height)
		Render(img, sheet.Frame{Width: img.Width, Height: img.Height}, canvas, 0, 0)
		scaled := o.Scaled(canvas)

		bounds := scaled.Bounds()
		palette := quantizer.Quantize(make(color.Palette, 0, 256), scaled)
		paletted := image.NewPaletted(bounds, palette)
		drawer.Draw(paletted, bounds, scaled, bounds.Min)

		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}

	return nil
}
