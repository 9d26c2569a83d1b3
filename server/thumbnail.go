package server

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/liondadev/sprite-toolkit/sheet"
	"github.com/nfnt/resize"
)

// MakeThumbnail creates a thumbnail (png) of a sheet that fits inside the configured
// thumbnail size. Pixel art is scaled with nearest neighbour so it stays crisp.
func (s *Server) MakeThumbnail(buf *sheet.Buffer) (io.Reader, error) {
	if buf.Width == 0 || buf.Height == 0 {
		return nil, fmt.Errorf("can't create a thumbnail of an empty %dx%d sheet", buf.Width, buf.Height)
	}

	thumbImg := resize.Thumbnail(s.cfg.ThumbnailWidth, s.cfg.ThumbnailHeight, buf.Image(), resize.NearestNeighbor)
	buff := new(bytes.Buffer)
	if err := png.Encode(buff, thumbImg); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return buff, nil
}
