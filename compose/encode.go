package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/liondadev/sprite-toolkit/sheet"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ParseFormat maps a user supplied name to a format, defaulting to png.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatBMP:
		return FormatBMP
	case FormatTIFF, "tif":
		return FormatTIFF
	default:
		return FormatPNG
	}
}

// MimeType is the content type of encoded output.
func (f Format) MimeType() string {
	switch f {
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

// MaxScale is the largest upscale factor Options accepts, larger values are
// clamped.
const MaxScale = 16

// ErrTooLarge is returned when an output image would exceed its pixel limit.
var ErrTooLarge = sheet.ErrTooLarge

// Options controls how rendered images are written.
type Options struct {
	Format Format
	// Scale is an integer upscale factor, clamped to [1, MaxScale].
	Scale int
	// Antialias selects bilinear instead of nearest-neighbour scaling.
	Antialias bool
	// MaxPixels caps width*height of the scaled output. Zero means no cap.
	MaxPixels int
}

func (o Options) scale() int {
	return min(max(o.Scale, 1), MaxScale)
}

// Check returns ErrTooLarge when a width x height image, once scaled, would
// hold more than o.MaxPixels pixels.
func (o Options) Check(width, height int) error {
	s := o.scale()
	if !sheet.Fits(width*s, height*s, o.MaxPixels) {
		return fmt.Errorf("%dx%d at scale %d: %w", width, height, s, ErrTooLarge)
	}

	return nil
}

// Ext is the file extension for o.Format, without the dot.
func (o Options) Ext() string {
	if o.Format == "" {
		return string(FormatPNG)
	}

	return string(o.Format)
}

// Scaled applies the clamped o.Scale to b.
func (o Options) Scaled(b *sheet.Buffer) image.Image {
	s := o.scale()
	if s == 1 || b.Width == 0 || b.Height == 0 {
		return b.Image()
	}

	interp := resize.NearestNeighbor
	if o.Antialias {
		interp = resize.Bilinear
	}

	return resize.Resize(uint(b.Width*s), uint(b.Height*s), b.Image(), interp)
}

// Encode writes b to w.
func Encode(w io.Writer, b *sheet.Buffer, o Options) error {
	if err := o.Check(b.Width, b.Height); err != nil {
		return err
	}
	img := o.Scaled(b)

	var err error
	switch o.Format {
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", o.Ext(), err)
	}

	return nil
}

// EncodeBytes is Encode into a fresh byte slice.
func EncodeBytes(b *sheet.Buffer, o Options) ([]byte, error) {
	buff := new(bytes.Buffer)
	if err := Encode(buff, b, o); err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}
