package sheet

// EmptyFunc reports whether pixel (x, y) counts as empty for row segmentation.
type EmptyFunc func(x, y int) bool

// Transparent treats fully transparent pixels as empty.
func Transparent(b *Buffer) EmptyFunc {
	return func(x, y int) bool {
		return b.Alpha(x, y) == 0
	}
}

// MatchingAny treats pixels matching any of colors as empty.
func MatchingAny(b *Buffer, colors []Color) EmptyFunc {
	return func(x, y int) bool {
		return b.IsBackground(x, y, colors)
	}
}

// EmptyFor returns the row classifier for a resolved color set: color matching
// when there are colors, transparency otherwise.
func EmptyFor(b *Buffer, colors []Color) EmptyFunc {
	if len(colors) > 0 {
		return MatchingAny(b, colors)
	}

	return Transparent(b)
}

type span struct {
	start, end int
}

// Scan segments b into frames. Rows are grouped into bands of consecutive rows
// holding at least one non-empty pixel; each band is then cut into columns
// holding at least one pixel with alpha > 0 inside the band. Frames come out
// band by band, left to right.
//
// This is not a connected-component labeler: sprites are assumed to sit in
// clean horizontal bands. Column emptiness always looks at raw alpha.
func Scan(b *Buffer, empty EmptyFunc) []Frame {
	var frames []Frame

	for _, band := range rowBands(b, empty) {
		for _, col := range columnSpans(b, band) {
			frames = append(frames, Frame{
				X:      col.start,
				Y:      band.start,
				Width:  col.end - col.start,
				Height: band.end - band.start,
			})
		}
	}

	return frames
}

func rowBands(b *Buffer, empty EmptyFunc) []span {
	var bands []span
	start, in := 0, false

	for y := 0; y < b.Height; y++ {
		rowEmpty := true
		for x := 0; x < b.Width; x++ {
			if !empty(x, y) {
				rowEmpty = false
				break
			}
		}

		if !rowEmpty && !in {
			start, in = y, true
		} else if rowEmpty && in {
			bands = append(bands, span{start, y})
			in = false
		}
	}
	if in {
		bands = append(bands, span{start, b.Height})
	}

	return bands
}

func columnSpans(b *Buffer, band span) []span {
	var cols []span
	start, in := 0, false

	for x := 0; x < b.Width; x++ {
		colEmpty := true
		for y := band.start; y < band.end; y++ {
			if b.Alpha(x, y) > 0 {
				colEmpty = false
				break
			}
		}

		if !colEmpty && !in {
			start, in = x, true
		} else if colEmpty && in {
			cols = append(cols, span{start, x})
			in = false
		}
	}
	if in {
		cols = append(cols, span{start, b.Width})
	}

	return cols
}

// Detect copies src, strips the background colors bg resolves to and scans the
// result. It returns the stripped copy, the colors used and the frames found.
func Detect(src *Buffer, bg Background) (*Buffer, []Color, []Frame) {
	colors := bg.Resolve(src)
	processed := Strip(src.Clone(), colors)

	return processed, colors, Scan(processed, EmptyFor(processed, colors))
}
