package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Buffer is a width x height RGBA pixel buffer. Pix holds 4 channel values
// (red, green, blue, alpha) per pixel, row-major, origin top-left. Colors are
// not premultiplied.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBuffer returns a fully transparent buffer.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// FromImage copies img into a new buffer. NRGBA sources are copied row by row
// so channel values survive untouched, everything else is drawn onto an NRGBA
// canvas.
func FromImage(img image.Image) *Buffer {
	b := img.Bounds()
	buf := NewBuffer(b.Dx(), b.Dy())

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < buf.Height; y++ {
			start := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(buf.Pix[y*buf.Width*4:(y+1)*buf.Width*4], src.Pix[start:start+buf.Width*4])
		}

		return buf
	}

	draw.Draw(buf.Image(), buf.Image().Bounds(), img, b.Min, draw.Src)
	return buf
}

// ErrTooLarge is returned when an image would hold more pixels than allowed.
var ErrTooLarge = errors.New("image too large")

// Fits reports whether a width x height image stays within maxPixels. A
// maxPixels of zero or less means no limit.
func Fits(width, height, maxPixels int) bool {
	if maxPixels <= 0 {
		return true
	}

	return float64(width)*float64(height) <= float64(maxPixels)
}

// Decode reads an encoded image (png, jpeg, gif, bmp, tiff or webp) into a buffer.
func Decode(data []byte) (*Buffer, string, error) {
	return DecodeLimited(data, 0)
}

// DecodeLimited is Decode, but reads the image header first and refuses images
// with more than maxPixels pixels before any pixel data is allocated.
func DecodeLimited(data []byte, maxPixels int) (*Buffer, string, error) {
	if maxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("decode image: %w", err)
		}
		if !Fits(cfg.Width, cfg.Height, maxPixels) {
			return nil, "", fmt.Errorf("decode image: %dx%d: %w", cfg.Width, cfg.Height, ErrTooLarge)
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	return FromImage(img), format, nil
}

// Image exposes the buffer as an *image.NRGBA sharing the same pixels.
func (b *Buffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(c.Pix, b.Pix)

	return c
}

// Crop copies the rectangle r (clipped to the buffer) into a new buffer whose
// origin is r.Min.
func (b *Buffer) Crop(r image.Rectangle) *Buffer {
	r = r.Intersect(image.Rect(0, 0, b.Width, b.Height))
	c := NewBuffer(r.Dx(), r.Dy())
	for y := 0; y < c.Height; y++ {
		start := b.offset(r.Min.X, r.Min.Y+y)
		copy(c.Pix[y*c.Width*4:(y+1)*c.Width*4], b.Pix[start:start+c.Width*4])
	}

	return c
}

// Contains reports whether (x, y) lies inside the buffer.
func (b *Buffer) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// Alpha returns the alpha channel of pixel (x, y).
func (b *Buffer) Alpha(x, y int) uint8 {
	return b.Pix[b.offset(x, y)+3]
}

// Set writes one pixel.
func (b *Buffer) Set(x, y int, r, g, bl, a uint8) {
	i := b.offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = r, g, bl, a
}

// Fill paints rectangle r (clipped) with one color.
func (b *Buffer) Fill(r image.Rectangle, c Color, a uint8) {
	r = r.Intersect(image.Rect(0, 0, b.Width, b.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			b.Set(x, y, c.R, c.G, c.B, a)
		}
	}
}

func (b *Buffer) offset(x, y int) int {
	return (y*b.Width + x) * 4
}
