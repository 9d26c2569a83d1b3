package compose

import (
	"image"
	"math"

	"github.com/liondadev/sprite-toolkit/sheet"
)

// DefaultBlockSize is the pixelate block size used when none is given.
const DefaultBlockSize = 10

var (
	black = sheet.Color{}
	white = sheet.Color{R: 255, G: 255, B: 255}
)

// Pixelate converts src into a two-tone pixel-art image. Each size x size block
// is averaged over its pixels with alpha above 128 and filled with opaque white
// when the average brightness is above 128, black otherwise. Blocks without
// such pixels stay transparent.
func Pixelate(src *sheet.Buffer, size int) *sheet.Buffer {
	if size <= 0 {
		size = DefaultBlockSize
	}

	dst := sheet.NewBuffer(src.Width, src.Height)
	for by := 0; by < src.Height; by += size {
		for bx := 0; bx < src.Width; bx += size {
			var r, g, b, count int
			for y := by; y < by+size && y < src.Height; y++ {
				for x := bx; x < bx+size && x < src.Width; x++ {
					i := (y*src.Width + x) * 4
					if src.Pix[i+3] <= 128 {
						continue
					}
					r += int(src.Pix[i])
					g += int(src.Pix[i+1])
					b += int(src.Pix[i+2])
					count++
				}
			}
			if count == 0 {
				continue
			}

			avg := func(sum int) float64 { return math.Round(float64(sum) / float64(count)) }
			brightness := (avg(r) + avg(g) + avg(b)) / 3
			fill := black
			if brightness > 128 {
				fill = white
			}
			dst.Fill(image.Rect(bx, by, bx+size, by+size), fill, 255)
		}
	}

	return dst
}
