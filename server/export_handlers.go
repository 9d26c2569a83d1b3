package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/liondadev/sprite-toolkit/compose"
	"github.com/liondadev/sprite-toolkit/metadata"
	"github.com/liondadev/sprite-toolkit/sequence"
	"github.com/liondadev/sprite-toolkit/sheet"
)

type exportRequest struct {
	Mode      string `json:"mode"`      // individual, combined or gif
	Selection string `json:"selection"` // all or sequence
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Scale     int    `json:"scale"`
	Antialias bool   `json:"antialias"`
}

// indices picks the frames an export covers.
func (req exportRequest) indices(snap sheet.Snapshot) []int {
	if req.Selection == "sequence" || req.Mode == "gif" {
		return snap.Sequence
	}

	return sequence.All(len(snap.Frames))
}

// exportName is the base name of a download, falling back to the configured default.
func (s *Server) exportName(name string) string {
	return compose.Filename(name, compose.Filename(s.cfg.DefaultFilename, compose.DefaultFilename))
}

func attachment(w http.ResponseWriter, mime, filename string) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
}

// handleExport renders frames of a sheet into a download: a zip of individual
// images, one combined strip or an animated gif of the sequence.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) error {
	var req exportRequest
	if err := readJson(r, &req); err != nil {
		return err
	}

	sh, snap, processed, err := s.withSheet(r, nil)
	if err != nil {
		return err
	}

	indices := req.indices(snap)
	if len(indices) == 0 {
		return PublicError{http.StatusBadRequest, "There are no frames to export."}
	}

	name := s.exportName(req.Filename)
	opts := compose.Options{
		Format:    compose.ParseFormat(req.Format),
		Scale:     req.Scale,
		Antialias: req.Antialias,
		MaxPixels: s.cfg.MaxOutputPixels,
	}

	var (
		data     []byte
		mime     string
		filename string
	)
	switch req.Mode {
	case "", "individual":
		blobs, err := compose.Individual(processed, snap.Frames, indices, opts)
		if err != nil {
			return tooLarge(err)
		}

		buf := new(bytes.Buffer)
		if err := compose.WriteArchive(buf, blobs); err != nil {
			return err
		}
		data, mime, filename = buf.Bytes(), "application/zip", name+".zip"
	case "combined":
		strip, err := compose.Combined(processed, snap.Frames, indices, opts)
		if err != nil {
			return tooLarge(err)
		}

		data, err = compose.EncodeBytes(strip, opts)
		if err != nil {
			return tooLarge(err)
		}
		mime, filename = opts.Format.MimeType(), name+"."+opts.Ext()
	case "gif":
		buf := new(bytes.Buffer)
		if err := compose.EncodeGIF(buf, processed, snap.Frames, indices, snap.FPS, opts); err != nil {
			if errors.Is(err, compose.ErrNoFrames) {
				return PublicError{http.StatusBadRequest, "There are no frames to export."}
			}
			return tooLarge(err)
		}
		data, mime, filename = buf.Bytes(), "image/gif", name+".gif"
	default:
		return PublicError{http.StatusBadRequest, "Unknown export mode '" + req.Mode + "'."}
	}

	if err := s.logExport(sh.Id, req.modeName(), filename, len(indices)); err != nil {
		log.Printf("Failed to record export of sheet %s: %s", sh.Id, err.Error())
	}

	attachment(w, mime, filename)
	_, err = w.Write(data)

	return err
}

func (req exportRequest) modeName() string {
	if req.Mode == "" {
		return "individual"
	}

	return req.Mode
}

type metadataRequest struct {
	Format   string `json:"format"`
	Filename string `json:"filename"`
	Scale    int    `json:"scale"`
}

// handleMetadata describes the frames of a sheet as a json document in one of
// the supported layouts.
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) error {
	var req metadataRequest
	if err := readJson(r, &req); err != nil {
		return err
	}

	sh, snap, _, err := s.withSheet(r, nil)
	if err != nil {
		return err
	}

	name := s.exportName(req.Filename)
	format := metadata.ParseFormat(req.Format)
	export := metadata.Build(snap.Frames, snap.Sequence, snap.FPS, name+".png", snap.Width, snap.Height, req.Scale)

	buf := new(bytes.Buffer)
	if err := metadata.Encode(buf, export, format); err != nil {
		return err
	}

	filename := name + ".json"
	if err := s.logExport(sh.Id, "metadata-"+string(format), filename, len(snap.Frames)); err != nil {
		log.Printf("Failed to record export of sheet %s: %s", sh.Id, err.Error())
	}

	attachment(w, "application/json", filename)
	_, err = w.Write(buf.Bytes())

	return err
}

// handlePreviewStream plays the sheet's animation sequence as server sent
// events, one "frame" event per tick, until the client goes away. Editing the
// sheet or changing speed means reconnecting.
func (s *Server) handlePreviewStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	wf, ok := w.(http.Flusher)
	if !ok {
		panic("Handler is not a flusher.")
	}

	writeMessage := func(name string, content []byte) error {
		message := "event: " + name + "\n"
		message = message + "data: "
		messageBytes := append([]byte(message), content...)
		messageBytes = append(messageBytes, '\n', '\n')

		_, err := w.Write(messageBytes)
		if err != nil {
			return err
		}

		wf.Flush()
		return nil
	}

	writeJsonMessage := func(name string, data any) error {
		jsb, err := json.Marshal(data)
		if err != nil {
			return err
		}

		return writeMessage(name, jsb)
	}

	_, snap, processed, err := s.withSheet(r, nil)
	if err != nil {
		var perr PublicError
		if errors.As(err, &perr) {
			_ = writeJsonMessage("fail", jMap{"error": perr.Message})
			return
		}

		log.Printf("Failed to start preview for (%s) %s: %s", r.RemoteAddr, r.RequestURI, err.Error())
		_ = writeJsonMessage("fail", jMap{"error": "Internal Server Error!"})
		return
	}

	fps := snap.FPS
	if q := r.URL.Query().Get("fps"); q != "" {
		if n, err := strconv.Atoi(q); err == nil {
			fps = n
		}
	}

	preview := compose.NewPreview(processed, snap.Frames, snap.Sequence)
	err = preview.Run(r.Context(), fps, func(index int, img *sheet.Buffer) error {
		data, err := compose.EncodeBytes(img, compose.Options{})
		if err != nil {
			return err
		}

		return writeJsonMessage("frame", jMap{
			"index": index,
			"image": "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
		})
	})
	if errors.Is(err, compose.ErrNoFrames) {
		_ = writeJsonMessage("fail", jMap{"error": "The animation sequence has no frames."})
	}
}
