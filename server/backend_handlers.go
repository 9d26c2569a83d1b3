package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/liondadev/sprite-toolkit/compose"
	"github.com/liondadev/sprite-toolkit/sheet"
	"github.com/liondadev/sprite-toolkit/types"
)

// handleNotFound is called when no other handlers match the request. In other words, this is called
// when the page is not found or the route doesn't exist.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) error {
	return PublicError{http.StatusNotFound, "Page not found."}
}

// readUpload reads the multipart file field name into memory.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, error) {
	limit := s.cfg.MaxUploadBytes
	if limit <= 0 {
		limit = 32 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(1024 * 8); err != nil {
		return nil, "", PublicError{http.StatusBadRequest, "Upload is too large or not a multipart form."}
	}

	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", PublicError{http.StatusBadRequest, "Missing '" + field + "' file."}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}

	return data, header.Filename, nil
}

// tooLarge turns a size limit failure into the error users see.
func tooLarge(err error) error {
	if errors.Is(err, sheet.ErrTooLarge) {
		return PublicError{http.StatusBadRequest, "The output image would be too large."}
	}

	return err
}

func (s *Server) decodeUpload(data []byte) (*sheet.Buffer, string, error) {
	buf, format, err := sheet.DecodeLimited(data, s.cfg.MaxOutputPixels)
	if errors.Is(err, sheet.ErrTooLarge) {
		return nil, "", PublicError{http.StatusBadRequest, "The uploaded image is too large."}
	}
	if err != nil {
		return nil, "", PublicError{http.StatusUnsupportedMediaType, "The upload isn't an image that can be read."}
	}
	if buf.Width == 0 || buf.Height == 0 {
		return nil, "", PublicError{http.StatusUnsupportedMediaType, "The uploaded image is empty."}
	}

	return buf, format, nil
}

// handleSheetUpload is called when someone uploads a sprite sheet. The sheet is stored,
// detected with background removal off and its editor session is created.
func (s *Server) handleSheetUpload(w http.ResponseWriter, r *http.Request) error {
	userName := userFromContext(r)

	data, uploadedAs, err := s.readUpload(w, r, "upload")
	if err != nil {
		return err
	}

	buf, format, err := s.decodeUpload(data)
	if err != nil {
		return err
	}

	sheetId, err := s.newSheetId()
	if err != nil {
		log.Println(err)
		return PublicError{http.StatusInternalServerError, "failed to generate id"}
	}
	deleteToken, err := randomString(deleteTokenLength)
	if err != nil {
		return err
	}

	ext := strings.ToLower(path.Ext(uploadedAs))
	if ext == "" || len(ext) > 6 {
		ext = "." + format
	}
	diskName := sheetId + ext

	// Handle storing the file
	fullPath := path.Join(s.cfg.FSPath, diskName)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return err
	}

	log.Printf("User '%s' uploaded sheet '%s' (%s) %dx%d, n=%d\n", userName, uploadedAs, diskName, buf.Width, buf.Height, len(data))

	// Handle storing the upload in the database
	if err := s.insertSheet(types.Sheet{
		Id:          sheetId,
		MimeType:    "image/" + format,
		User:        userName,
		Timestamp:   uint64(time.Now().Unix()),
		UploadedAs:  uploadedAs,
		Extension:   ext,
		Width:       buf.Width,
		Height:      buf.Height,
		DeleteToken: deleteToken,
	}); err != nil {
		// If we fail the database query we need to delete the file
		_ = os.Remove(fullPath) // if we error here it's already too late

		return err
	}

	editor := s.newEditor(buf)
	s.sessions.put(sheetId, editor)

	editorUrl, err := s.link("/app/sheets/", sheetId)
	if err != nil {
		return err
	}

	imageUrl, err := s.link("/sheets/", sheetId, "/image")
	if err != nil {
		return err
	}

	thumbUrl, err := s.link("/sheets/", sheetId, "/thumb")
	if err != nil {
		return err
	}

	deleteUrl, err := s.link("/delete/", sheetId, "/", deleteToken)
	if err != nil {
		return err
	}

	writeJson(w, http.StatusCreated, jMap{ // it was a success!
		"id":            sheetId,
		"editor_url":    editorUrl,
		"image_url":     imageUrl,
		"thumbnail_url": thumbUrl,
		"delete_url":    deleteUrl,
		"state":         editor.Recompute(),
	})
	return nil
}

// handleSheetImage serves the sheet as frames are cut from it, i.e. with the
// background removed when removal is on.
func (s *Server) handleSheetImage(w http.ResponseWriter, r *http.Request) error {
	_, _, processed, err := s.withSheet(r, nil)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	return compose.Encode(w, processed, compose.Options{})
}

// handleFrameImage renders one frame, offsets applied, as a png.
func (s *Server) handleFrameImage(w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.Atoi(strings.TrimSuffix(chi.URLParam(r, "index"), ".png"))
	if err != nil {
		return PublicError{http.StatusBadRequest, "Frame index must be a number."}
	}

	_, snap, processed, err := s.withSheet(r, nil)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(snap.Frames) {
		return PublicError{http.StatusNotFound, "Frame not found."}
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	return compose.Encode(w, compose.RenderFrame(processed, snap.Frames[index]), compose.Options{})
}

// handleThumbnailView handles people viewing the thumbnail images of sheets. Thumbnails
// are pngs cached next to the upload.
func (s *Server) handleThumbnailView(w http.ResponseWriter, r *http.Request) error {
	sh, err := s.ownedSheet(r)
	if err != nil {
		return err
	}
	diskPath := path.Join(s.cfg.FSPath, sh.Id+".thumbnail.png")

	// We already have the thumbnail image cached.
	if f, err := os.Open(diskPath); err == nil {
		defer f.Close()
		setCacheControlHeaders(w)
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, err = io.Copy(w, f)

		return err
	}

	data, err := os.ReadFile(path.Join(s.cfg.FSPath, sh.Id+sh.Extension))
	if err != nil {
		return err
	}

	buf, _, err := sheet.Decode(data)
	if err != nil {
		return err
	}

	thumb, err := s.MakeThumbnail(buf)
	if err != nil {
		return err
	}

	thumbBytes, err := io.ReadAll(thumb)
	if err != nil {
		return err
	}

	if err := os.WriteFile(diskPath, thumbBytes, 0o644); err != nil {
		log.Printf("Failed to cache thumbnail for sheet %s: %s", sh.Id, err.Error())
	}

	setCacheControlHeaders(w)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(thumbBytes)

	return err
}

func (s *Server) handleDeleteSheet(w http.ResponseWriter, r *http.Request) error {
	sheetId := chi.URLParam(r, "sheetId")
	deleteToken := chi.URLParam(r, "deleteToken")

	ext, err := s.deleteSheet(sheetId, deleteToken)
	if err != nil {
		return PublicError{http.StatusNotFound, "Sprite sheet not found or delete token is incorrect."}
	}

	s.sessions.drop(sheetId)

	if err := os.Remove(path.Join(s.cfg.FSPath, sheetId+ext)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.Remove(path.Join(s.cfg.FSPath, sheetId+".thumbnail.png")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	writeJson(w, http.StatusOK, jMap{"message": "Sprite sheet deleted"})
	return nil
}

func setCacheControlHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "public, max-age=1800") // 30 min cache time
}
