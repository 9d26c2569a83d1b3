package compose

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/liondadev/sprite-toolkit/sequence"
	"github.com/liondadev/sprite-toolkit/sheet"
)

// DefaultFilename is used whenever the user leaves the output name blank.
const DefaultFilename = "auto_detected_frames"

// Filename trims name and falls back to fallback when nothing is left.
func Filename(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}

	return name
}

// Blob is one named file of an export.
type Blob struct {
	Name string
	Data []byte
}

// Individual renders every frame named by indices into its own image, named
// frame_<index>.<ext>. Indices outside frames are skipped.
func Individual(src *sheet.Buffer, frames []sheet.Frame, indices []int, o Options) ([]Blob, error) {
	indices = sequence.Filter(indices, len(frames))
	if len(indices) == 0 {
		return nil, ErrNoFrames
	}

	blobs := make([]Blob, 0, len(indices))
	for _, i := range indices {
		data, err := EncodeBytes(RenderFrame(src, frames[i]), o)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		blobs = append(blobs, Blob{Name: fmt.Sprintf("frame_%d.%s", i, o.Ext()), Data: data})
	}

	return blobs, nil
}

// GridBlobs renders frames laid out as a cols-wide grid, named
// <base>-row<r>-col<c>.<ext> with 1-based row and column numbers.
func GridBlobs(src *sheet.Buffer, frames []sheet.Frame, cols int, base string, o Options) ([]Blob, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	cols = max(cols, 1)

	blobs := make([]Blob, 0, len(frames))
	for i, f := range frames {
		data, err := EncodeBytes(RenderFrame(src, f), o)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		name := fmt.Sprintf("%s-row%d-col%d.%s", base, i/cols+1, i%cols+1, o.Ext())
		blobs = append(blobs, Blob{Name: name, Data: data})
	}

	return blobs, nil
}

// Combined lays the chosen frames out left to right with no gaps. The sheet is
// as wide as all frames together and as tall as the tallest one; offsets move
// a frame inside its slot. The strip is refused when o.Check rejects it.
func Combined(src *sheet.Buffer, frames []sheet.Frame, indices []int, o Options) (*sheet.Buffer, error) {
	indices = sequence.Filter(indices, len(frames))
	if len(indices) == 0 {
		return nil, ErrNoFrames
	}

	width, height := 0, 0
	for _, i := range indices {
		width += frames[i].Width
		height = max(height, frames[i].Height)
	}
	if err := o.Check(width, height); err != nil {
		return nil, err
	}

	dst := sheet.NewBuffer(width, height)
	x := 0
	for _, i := range indices {
		Render(src, frames[i], dst, x, 0)
		x += frames[i].Width
	}

	return dst, nil
}

// WriteArchive writes blobs into a zip archive on w.
func WriteArchive(w io.Writer, blobs []Blob) error {
	zw := zip.NewWriter(w)
	for _, b := range blobs {
		fw, err := zw.Create(b.Name)
		if err != nil {
			return fmt.Errorf("create %s: %w", b.Name, err)
		}
		if _, err := fw.Write(b.Data); err != nil {
			return fmt.Errorf("write %s: %w", b.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	return nil
}
