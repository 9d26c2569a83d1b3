package sheet

import "image"

// Frame is a rectangular region of a sheet in source pixel coordinates plus a
// translation applied only when the frame is composited.
type Frame struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Width   int `json:"width"`
	Height  int `json:"height"`
	OffsetX int `json:"offsetX"`
	OffsetY int `json:"offsetY"`
}

// Rect returns the frame's source rectangle.
func (f Frame) Rect() image.Rectangle {
	return image.Rect(f.X, f.Y, f.X+f.Width, f.Y+f.Height)
}

// Grid slices a width x height sheet into cols*rows equally sized frames in
// row-major order. Non-positive dimensions fall back to 1.
func Grid(width, height, cols, rows int) []Frame {
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}

	cw, ch := width/cols, height/rows
	if cw == 0 || ch == 0 {
		return nil
	}

	frames := make([]Frame, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			frames = append(frames, Frame{X: col * cw, Y: row * ch, Width: cw, Height: ch})
		}
	}

	return frames
}
