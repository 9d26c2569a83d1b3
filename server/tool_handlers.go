package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/liondadev/sprite-toolkit/compose"
	"github.com/liondadev/sprite-toolkit/sheet"
)

// formInt reads an integer form field, returning def when it's missing or bad.
func formInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	if err != nil {
		return def
	}

	return n
}

func formBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.FormValue(name))
	return b
}

// handleSliceTool cuts an upload into an even grid and returns the cells as a zip.
func (s *Server) handleSliceTool(w http.ResponseWriter, r *http.Request) error {
	data, uploadedAs, err := s.readUpload(w, r, "upload")
	if err != nil {
		return err
	}

	buf, _, err := s.decodeUpload(data)
	if err != nil {
		return err
	}

	cols := formInt(r, "cols", 1)
	rows := formInt(r, "rows", 1)
	frames := sheet.Grid(buf.Width, buf.Height, cols, rows)
	if len(frames) == 0 {
		return PublicError{http.StatusBadRequest, "The image is smaller than the grid."}
	}

	base := compose.Filename(r.FormValue("filename"), strings.TrimSuffix(path.Base(uploadedAs), path.Ext(uploadedAs)))
	if base == "" || base == "." {
		base = "sprite"
	}

	blobs, err := compose.GridBlobs(buf, frames, max(cols, 1), base, compose.Options{MaxPixels: s.cfg.MaxOutputPixels})
	if err != nil {
		return tooLarge(err)
	}

	out := new(bytes.Buffer)
	if err := compose.WriteArchive(out, blobs); err != nil {
		return err
	}

	attachment(w, "application/zip", base+"-slices.zip")
	_, err = w.Write(out.Bytes())

	return err
}

// handleGenerateTool packs several uploaded sprites into one grid sheet.
func (s *Server) handleGenerateTool(w http.ResponseWriter, r *http.Request) error {
	limit := s.cfg.MaxUploadBytes
	if limit <= 0 {
		limit = 32 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(1024 * 8); err != nil {
		return PublicError{http.StatusBadRequest, "Upload is too large or not a multipart form."}
	}

	headers := r.MultipartForm.File["sprites"]
	if len(headers) == 0 {
		return PublicError{http.StatusBadRequest, "Add at least one sprite."}
	}

	offsetsX := r.MultipartForm.Value["offset_x"]
	offsetsY := r.MultipartForm.Value["offset_y"]
	offsetAt := func(values []string, i int) int {
		if i >= len(values) {
			return 0
		}
		n, _ := strconv.Atoi(values[i])
		return n
	}

	sprites := make([]compose.Sprite, 0, len(headers))
	for i, h := range headers {
		f, err := h.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}

		buf, _, err := s.decodeUpload(data)
		if err != nil {
			var perr PublicError
			if errors.As(err, &perr) && perr.Code == http.StatusBadRequest {
				return PublicError{http.StatusBadRequest, "'" + h.Filename + "' is too large."}
			}
			return PublicError{http.StatusUnsupportedMediaType, "'" + h.Filename + "' isn't an image that can be read."}
		}

		sprites = append(sprites, compose.Sprite{
			Image:   buf,
			OffsetX: offsetAt(offsetsX, i),
			OffsetY: offsetAt(offsetsY, i),
		})
	}

	// With no grid given, lay everything out on one row.
	cols := formInt(r, "cols", len(sprites))
	rows := formInt(r, "rows", 1)
	packed, err := compose.Pack(sprites, compose.PackOptions{
		Rows:      rows,
		Cols:      cols,
		Padding:   formInt(r, "padding", 0),
		Antialias: formBool(r, "antialias"),
		MaxPixels: s.cfg.MaxOutputPixels,
	})
	if err != nil {
		return tooLarge(err)
	}

	data, err := compose.EncodeBytes(packed, compose.Options{MaxPixels: s.cfg.MaxOutputPixels})
	if err != nil {
		return err
	}

	attachment(w, "image/png", compose.Filename(r.FormValue("filename"), "spritesheet")+".png")
	_, err = w.Write(data)

	return err
}

// handlePixelateTool turns an upload into black and white blocks.
func (s *Server) handlePixelateTool(w http.ResponseWriter, r *http.Request) error {
	data, _, err := s.readUpload(w, r, "upload")
	if err != nil {
		return err
	}

	buf, _, err := s.decodeUpload(data)
	if err != nil {
		return err
	}

	size := formInt(r, "size", compose.DefaultBlockSize)
	out, err := compose.EncodeBytes(compose.Pixelate(buf, size), compose.Options{MaxPixels: s.cfg.MaxOutputPixels})
	if err != nil {
		return tooLarge(err)
	}

	attachment(w, "image/png", "pixelated-image.png")
	_, err = w.Write(out)

	return err
}
