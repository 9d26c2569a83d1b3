package compose

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/liondadev/sprite-toolkit/sheet"
	"github.com/nfnt/resize"
)

// DefaultCellSize is the cell size of a grid holding no sprites.
const DefaultCellSize = 64

// Sprite is one image placed by Pack.
type Sprite struct {
	Image   *sheet.Buffer
	OffsetX int
	OffsetY int
}

// PackOptions describes the generated grid.
type PackOptions struct {
	Rows      int
	Cols      int
	Padding   int
	Antialias bool
	// MaxPixels caps the size of the generated sheet. Zero means no cap.
	MaxPixels int
}

// CellSize is the side of one square cell: the largest sprite dimension plus
// padding on both sides.
func CellSize(sprites []Sprite, padding int) int {
	if len(sprites) == 0 {
		return DefaultCellSize
	}

	largest := 0
	for _, s := range sprites {
		largest = max(largest, s.Image.Width, s.Image.Height)
	}

	return largest + max(padding, 0)*2
}

// Pack places sprites into a Rows x Cols grid in row-major order. Each sprite
// is scaled to fit its cell minus padding, keeping its aspect ratio, centered
// and then moved by its offset. Sprites that do not fit in the grid are
// dropped. A grid larger than o.MaxPixels fails with ErrTooLarge.
func Pack(sprites []Sprite, o PackOptions) (*sheet.Buffer, error) {
	rows, cols := max(o.Rows, 1), max(o.Cols, 1)
	padding := max(o.Padding, 0)
	cell := CellSize(sprites, padding)
	avail := cell - padding*2

	interp := resize.NearestNeighbor
	if o.Antialias {
		interp = resize.Bilinear
	}

	// Compared as floats so huge rows or cols cannot overflow.
	limit := float64(math.MaxInt32)
	if o.MaxPixels > 0 {
		limit = min(limit, float64(o.MaxPixels))
	}
	if float64(cols)*float64(cell)*float64(rows)*float64(cell) > limit {
		return nil, fmt.Errorf("%dx%d cells of %d pixels: %w", cols, rows, cell, ErrTooLarge)
	}

	dst := sheet.NewBuffer(cols*cell, rows*cell)
	for i, s := range sprites {
		if i >= rows*cols {
			break
		}
		if s.Image.Width == 0 || s.Image.Height == 0 || avail <= 0 {
			continue
		}

		scale := math.Min(float64(avail)/float64(s.Image.Width), float64(avail)/float64(s.Image.Height))
		w := max(int(math.Round(float64(s.Image.Width)*scale)), 1)
		h := max(int(math.Round(float64(s.Image.Height)*scale)), 1)

		var img image.Image = s.Image.Image()
		if w != s.Image.Width || h != s.Image.Height {
			img = resize.Resize(uint(w), uint(h), img, interp)
		}

		x := (i%cols)*cell + (cell-w)/2 + s.OffsetX
		y := (i/cols)*cell + (cell-h)/2 + s.OffsetY
		r := image.Rect(x, y, x+w, y+h)
		draw.Draw(dst.Image(), r, img, img.Bounds().Min, draw.Over)
	}

	return dst, nil
}
