package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/liondadev/sprite-toolkit/sheet"
	"github.com/liondadev/sprite-toolkit/types"
)

// editorError turns editor preconditions into messages for the user.
func editorError(err error) error {
	switch {
	case errors.Is(err, sheet.ErrMergeTooFew):
		return PublicError{http.StatusBadRequest, "Select at least two frames to merge."}
	case errors.Is(err, sheet.ErrIndexRange):
		return PublicError{http.StatusBadRequest, "That frame doesn't exist."}
	default:
		return err
	}
}

// ownedSheet loads the sheet named in the url. A sheet uploaded by someone
// else answers exactly like a missing one.
func (s *Server) ownedSheet(r *http.Request) (types.Sheet, error) {
	sh, err := s.getSheet(chi.URLParam(r, "sheet"))
	if err != nil {
		return types.Sheet{}, err
	}
	if sh.User != userFromContext(r) {
		return types.Sheet{}, errSheetNotFound
	}

	return sh, nil
}

// withSheet runs fn on the editor of the sheet named in the url once the
// requesting user is known to own it.
func (s *Server) withSheet(r *http.Request, fn func(e *sheet.Editor) error) (types.Sheet, sheet.Snapshot, *sheet.Buffer, error) {
	sh, err := s.ownedSheet(r)
	if err != nil {
		return sh, sheet.Snapshot{}, nil, err
	}

	snap, processed, err := s.sessions.with(sh.Id, fn)
	return sh, snap, processed, err
}

// edit applies fn to the sheet's editor and responds with the new state.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(e *sheet.Editor) error, extra jMap) error {
	_, snap, _, err := s.withSheet(r, fn)
	if err != nil {
		return editorError(err)
	}

	body := jMap{"state": snap}
	for k, v := range extra {
		body[k] = v
	}
	writeJson(w, http.StatusOK, body)

	return nil
}

func (s *Server) handleSheetState(w http.ResponseWriter, r *http.Request) error {
	return s.edit(w, r, nil, nil)
}

type detectRequest struct {
	Mode   string   `json:"mode"`
	Colors []string `json:"colors"`
}

// handleDetect re-runs background removal and detection, replacing every frame.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) error {
	var req detectRequest
	if err := readJson(r, &req); err != nil {
		return err
	}

	bg := sheet.ParseBackground(req.Mode, req.Colors)
	return s.edit(w, r, func(e *sheet.Editor) error {
		e.Detect(bg)
		return nil
	}, nil)
}

type gridRequest struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) error {
	var req gridRequest
	if err := readJson(r, &req); err != nil {
		return err
	}

	return s.edit(w, r, func(e *sheet.Editor) error {
		e.UseGrid(req.Cols, req.Rows)
		return nil
	}, nil)
}

type offsetRequest struct {
	Index int `json:"index"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// handleOffset changes a frame's render offset. An unknown index changes nothing.
func (s *Server) handleOffset(w http.ResponseWriter, r *http.Request) error {
	var req offsetRequest
	if err := readJson(r, &req); err != nil {
		return err
	}

	return s.edit(w, r, func(e *sheet.Editor) error {
		e.SetOffset(req.Index, req.X, req.Y)
		return nil
	}, nil)
}

type mergeRequest struct {
	Indices []int `json:"indices"`
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) error {
	var req mergeRequest
	if err := readJson(r, &req); err != nil {
		return err
	}

	return s.edit(w, r, func(e *sheet.Editor) error {
		return e.Merge(req.Indices)
	}, nil)
}

type splitRequest struct {
	Index *int `json:"index"`
}

// handleSplit re-detects inside one frame. Finding nothing keeps the frame.
func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) error {
	var req splitRequest
	if err := readJson(r, &req); err != nil {
		return err
	}
	if req.Index == nil {
		return PublicError{http.StatusBadRequest, "Select a frame to split."}
	}

	extra := jMap{}
	return s.edit(w, r, func(e *sheet.Editor) error {
		n, err := e.Split(*req.Index)
		extra["found"] = n
		if err == nil && n == 0 {
			extra["message"] = "No separate sprites were found inside that frame."
		}
		return err
	}, extra)
}

type sequenceRequest struct {
	Text string `json:"text"`
	FPS  *int   `json:"fps"`
}

func (s *Server) handleSequence(w http.ResponseWriter, r *http.Request) error {
	var req sequenceRequest
	if err := readJson(r, &req); err != nil {
		return err
	}

	return s.edit(w, r, func(e *sheet.Editor) error {
		e.SetSequence(req.Text)
		if req.FPS != nil {
			e.SetFPS(*req.FPS)
		}
		return nil
	}, nil)
}
