package compose

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/gif"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/liondadev/sprite-toolkit/sheet"
	"github.com/stretchr/testify/require"
)

var (
	red  = sheet.Color{R: 220}
	blue = sheet.Color{B: 220}
)

// fixture is a 20x10 transparent sheet with a red 4x4 sprite at (1,1), a blue
// 6x8 sprite at (8,1) and a red 2x2 sprite at (16,3).
func fixture() (*sheet.Buffer, []sheet.Frame) {
	b := sheet.NewBuffer(20, 10)
	b.Fill(image.Rect(1, 1, 5, 5), red, 255)
	b.Fill(image.Rect(8, 1, 14, 9), blue, 255)
	b.Fill(image.Rect(16, 3, 18, 5), red, 255)

	return b, sheet.Scan(b, sheet.Transparent(b))
}

func pixel(b *sheet.Buffer, x, y int) [4]uint8 {
	i := (y*b.Width + x) * 4
	return [4]uint8{b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]}
}

func TestFixtureFrames(t *testing.T) {
	_, frames := fixture()
	require.Len(t, frames, 3)
}

func TestRender(t *testing.T) {
	src, frames := fixture()

	dst := sheet.NewBuffer(10, 10)
	Render(src, frames[0], dst, 2, 3)
	require.Equal(t, [4]uint8{220, 0, 0, 255}, pixel(dst, 2, 3))
	require.Equal(t, [4]uint8{}, pixel(dst, 1, 3))

	moved := frames[0]
	moved.OffsetX, moved.OffsetY = 1, -1
	dst = sheet.NewBuffer(10, 10)
	Render(src, moved, dst, 2, 3)
	require.Equal(t, [4]uint8{220, 0, 0, 255}, pixel(dst, 3, 2))
	require.Equal(t, [4]uint8{}, pixel(dst, 2, 3))
}

func TestRenderFrameClipsOffset(t *testing.T) {
	src, frames := fixture()
	f := frames[0]
	f.OffsetX = 3

	img := RenderFrame(src, f)
	require.Equal(t, f.Width, img.Width)
	require.Equal(t, [4]uint8{}, pixel(img, 0, 0))
	require.Equal(t, [4]uint8{220, 0, 0, 255}, pixel(img, 3, 0))
}

func TestPreviewCycles(t *testing.T) {
	src := sheet.NewBuffer(8, 1)
	frames := make([]sheet.Frame, 8)
	for i := range frames {
		frames[i] = sheet.Frame{X: i, Width: 1, Height: 1}
	}

	p := NewPreview(src, frames, []int{2, 4, 6})
	var got []int
	for i := 0; i < 7; i++ {
		index, img, ok := p.Tick()
		require.True(t, ok)
		require.Equal(t, 1, img.Width)
		got = append(got, index)
	}
	require.Equal(t, []int{2, 4, 6, 2, 4, 6, 2}, got)
}

func TestPreviewEmpty(t *testing.T) {
	src, frames := fixture()

	p := NewPreview(src, frames, []int{7, -1})
	require.Zero(t, p.Len())
	_, _, ok := p.Tick()
	require.False(t, ok)

	err := p.Run(context.Background(), 10, func(int, *sheet.Buffer) error { return nil })
	require.ErrorIs(t, err, ErrNoFrames)
}

func TestPreviewRun(t *testing.T) {
	src, frames := fixture()
	p := NewPreview(src, frames, []int{1, 0})

	stop := errors.New("stop")
	var got []int
	err := p.Run(context.Background(), 200, func(index int, _ *sheet.Buffer) error {
		got = append(got, index)
		if len(got) == 3 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, []int{1, 0, 1}, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Run(ctx, 1, func(int, *sheet.Buffer) error { return nil }), context.Canceled)
}

func TestInterval(t *testing.T) {
	require.Equal(t, 200*time.Millisecond, Interval(5))
	require.Equal(t, time.Second, Interval(0))
}

func TestIndividual(t *testing.T) {
	src, frames := fixture()

	blobs, err := Individual(src, frames, []int{0, 1, 2}, Options{})
	require.NoError(t, err)
	require.Len(t, blobs, len(frames))
	require.Equal(t, "frame_0.png", blobs[0].Name)
	require.Equal(t, "frame_2.png", blobs[2].Name)

	decoded, format, err := sheet.Decode(blobs[1].Data)
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, frames[1].Width, decoded.Width)
	require.Equal(t, frames[1].Height, decoded.Height)

	blobs, err = Individual(src, frames, []int{2, 9}, Options{Format: FormatBMP})
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	require.Equal(t, "frame_2.bmp", blobs[0].Name)

	_, err = Individual(src, frames, nil, Options{})
	require.ErrorIs(t, err, ErrNoFrames)
}

func TestCombined(t *testing.T) {
	src, frames := fixture()

	out, err := Combined(src, frames, []int{0, 1, 2}, Options{})
	require.NoError(t, err)
	require.Equal(t, frames[0].Width+frames[1].Width+frames[2].Width, out.Width)
	require.Equal(t, frames[1].Height, out.Height)
	require.Equal(t, [4]uint8{0, 0, 220, 255}, pixel(out, frames[0].Width, 0))

	frames[1].OffsetX, frames[1].OffsetY = 1, 2
	out, err = Combined(src, frames, []int{1}, Options{})
	require.NoError(t, err)
	require.Equal(t, [4]uint8{}, pixel(out, 0, 0))
	require.Equal(t, [4]uint8{0, 0, 220, 255}, pixel(out, 1, 2))

	_, err = Combined(src, frames, []int{5}, Options{})
	require.ErrorIs(t, err, ErrNoFrames)
}

func TestWriteArchive(t *testing.T) {
	src, frames := fixture()
	blobs, err := Individual(src, frames, []int{0, 1, 2}, Options{})
	require.NoError(t, err)

	buff := new(bytes.Buffer)
	require.NoError(t, WriteArchive(buff, blobs))

	zr, err := zip.NewReader(bytes.NewReader(buff.Bytes()), int64(buff.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)

	f, err := zr.File[2].Open()
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "frame_2.png", zr.File[2].Name)
	require.Equal(t, blobs[2].Data, data)
}

func TestGridBlobs(t *testing.T) {
	src := sheet.NewBuffer(8, 8)
	src.Fill(image.Rect(0, 0, 8, 8), red, 255)

	blobs, err := GridBlobs(src, sheet.Grid(8, 8, 2, 2), 2, "hero", Options{})
	require.NoError(t, err)
	require.Len(t, blobs, 4)
	require.Equal(t, "hero-row1-col1.png", blobs[0].Name)
	require.Equal(t, "hero-row1-col2.png", blobs[1].Name)
	require.Equal(t, "hero-row2-col1.png", blobs[2].Name)
}

func TestEncodeScale(t *testing.T) {
	src, frames := fixture()
	img := RenderFrame(src, frames[0])

	for _, format := range []Format{FormatPNG, FormatBMP, FormatTIFF} {
		t.Run(string(format), func(t *testing.T) {
			data, err := EncodeBytes(img, Options{Format: format, Scale: 3})
			require.NoError(t, err)

			decoded, _, err := sheet.Decode(data)
			require.NoError(t, err)
			require.Equal(t, img.Width*3, decoded.Width)
			require.Equal(t, img.Height*3, decoded.Height)
		})
	}
}

func TestScaleIsClamped(t *testing.T) {
	img := sheet.NewBuffer(2, 1)

	data, err := EncodeBytes(img, Options{Scale: 1 << 22})
	require.NoError(t, err)
	decoded, _, err := sheet.Decode(data)
	require.NoError(t, err)
	require.Equal(t, 2*MaxScale, decoded.Width)
	require.Equal(t, MaxScale, decoded.Height)

	data, err = EncodeBytes(img, Options{Scale: -3})
	require.NoError(t, err)
	decoded, _, err = sheet.Decode(data)
	require.NoError(t, err)
	require.Equal(t, 2, decoded.Width)
}

func TestOutputLimit(t *testing.T) {
	src, frames := fixture()
	width := frames[0].Width + frames[1].Width + frames[2].Width

	o := Options{Scale: 2, MaxPixels: width * frames[1].Height * 4}
	require.NoError(t, o.Check(width, frames[1].Height))
	_, err := Combined(src, frames, []int{0, 1, 2}, o)
	require.NoError(t, err)

	o.MaxPixels--
	_, err = Combined(src, frames, []int{0, 1, 2}, o)
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = EncodeBytes(src, Options{MaxPixels: src.Width*src.Height - 1})
	require.ErrorIs(t, err, ErrTooLarge)

	err = EncodeGIF(new(bytes.Buffer), src, frames, []int{0, 1}, 10, Options{Scale: MaxScale, MaxPixels: 16})
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestParseFormat(t *testing.T) {
	require.Equal(t, FormatPNG, ParseFormat(""))
	require.Equal(t, FormatPNG, ParseFormat("jpeg"))
	require.Equal(t, FormatBMP, ParseFormat(" BMP "))
	require.Equal(t, FormatTIFF, ParseFormat("tif"))
	require.Equal(t, "image/tiff", FormatTIFF.MimeType())
	require.Equal(t, "png", Options{}.Ext())
}

func TestFilename(t *testing.T) {
	require.Equal(t, DefaultFilename, Filename("", DefaultFilename))
	require.Equal(t, DefaultFilename, Filename(" \t ", DefaultFilename))
	require.Equal(t, "walk", Filename(" walk ", DefaultFilename))
}

func TestEncodeGIF(t *testing.T) {
	src, frames := fixture()

	buff := new(bytes.Buffer)
	require.NoError(t, EncodeGIF(buff, src, frames, []int{0, 1, 2, 1}, 10, Options{}))

	anim, err := gif.DecodeAll(buff)
	require.NoError(t, err)
	require.Len(t, anim.Image, 4)
	require.Equal(t, []int{10, 10, 10, 10}, anim.Delay)
	require.Equal(t, frames[1].Width, anim.Config.Width)
	require.Equal(t, frames[1].Height, anim.Config.Height)

	// The small red frame leaves the rest of the canvas transparent.
	_, _, _, a := anim.Image[2].At(frames[2].Width, 0).RGBA()
	require.Zero(t, a)

	require.ErrorIs(t, EncodeGIF(buff, src, frames, nil, 10, Options{}), ErrNoFrames)
}

func TestPack(t *testing.T) {
	big := sheet.NewBuffer(8, 4)
	big.Fill(image.Rect(0, 0, 8, 4), red, 255)
	small := sheet.NewBuffer(2, 2)
	small.Fill(image.Rect(0, 0, 2, 2), blue, 255)

	sprites := []Sprite{{Image: big}, {Image: small}, {Image: big}}
	require.Equal(t, 12, CellSize(sprites, 2))

	out, err := Pack(sprites, PackOptions{Rows: 1, Cols: 2, Padding: 2})
	require.NoError(t, err)
	require.Equal(t, 24, out.Width)
	require.Equal(t, 12, out.Height)

	// big fills the first cell's 8 pixel wide area, centered vertically.
	require.Equal(t, [4]uint8{220, 0, 0, 255}, pixel(out, 2, 4))
	require.Equal(t, [4]uint8{}, pixel(out, 2, 3))
	// small is scaled up to 8x8.
	require.Equal(t, [4]uint8{0, 0, 220, 255}, pixel(out, 14, 2))
	require.Equal(t, [4]uint8{0, 0, 220, 255}, pixel(out, 21, 9))

	empty, err := Pack(nil, PackOptions{Rows: 2, Cols: 0})
	require.NoError(t, err)
	require.Equal(t, DefaultCellSize, empty.Width)
	require.Equal(t, DefaultCellSize*2, empty.Height)
}

func TestPackTooLarge(t *testing.T) {
	sprites := []Sprite{{Image: sheet.NewBuffer(4, 4)}}

	_, err := Pack(sprites, PackOptions{Rows: 100000, Cols: 100000})
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = Pack(sprites, PackOptions{Rows: 1 << 40, Cols: 1 << 40})
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = Pack(sprites, PackOptions{Rows: 4, Cols: 4, MaxPixels: 15 * 16})
	require.ErrorIs(t, err, ErrTooLarge)

	out, err := Pack(sprites, PackOptions{Rows: 4, Cols: 4, MaxPixels: 16 * 16})
	require.NoError(t, err)
	require.Equal(t, 16, out.Width)
}

func TestPixelate(t *testing.T) {
	src := sheet.NewBuffer(4, 2)
	src.Fill(image.Rect(0, 0, 2, 2), sheet.Color{R: 250, G: 250, B: 250}, 255)
	src.Fill(image.Rect(2, 0, 3, 1), sheet.Color{R: 30, G: 30, B: 30}, 255)

	out := Pixelate(src, 2)
	require.Equal(t, [4]uint8{255, 255, 255, 255}, pixel(out, 1, 1))
	require.Equal(t, [4]uint8{0, 0, 0, 255}, pixel(out, 3, 1))

	src = sheet.NewBuffer(3, 3)
	out = Pixelate(src, 0)
	require.Equal(t, [4]uint8{}, pixel(out, 0, 0))
}
