package server

import (
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/liondadev/sprite-toolkit/sheet"
)

// session is the editor of one sheet. All operations on it hold mu, so each
// one completes before the next starts. The editor is loaded once, by
// whichever request asks for it first.
type session struct {
	mu     sync.Mutex
	once   sync.Once
	editor *sheet.Editor
	err    error
}

// sessions keeps editors in memory, keyed by sheet id.
type sessions struct {
	mu     sync.Mutex
	byId   map[string]*session
	loader func(id string) (*sheet.Editor, error)
}

func newSessions(loader func(id string) (*sheet.Editor, error)) *sessions {
	return &sessions{
		byId:   make(map[string]*session),
		loader: loader,
	}
}

// put registers a freshly created editor, replacing any older session.
func (ss *sessions) put(id string, e *sheet.Editor) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	sess := &session{editor: e}
	sess.once.Do(func() {})
	ss.byId[id] = sess
}

// get returns the session for id, rebuilding it from the stored upload when it
// is not in memory. Only callers asking for the same id wait on a rebuild;
// ss.mu is held just long enough to find or register the session.
func (ss *sessions) get(id string) (*session, error) {
	ss.mu.Lock()
	sess, ok := ss.byId[id]
	if !ok {
		sess = &session{}
		ss.byId[id] = sess
	}
	ss.mu.Unlock()

	sess.once.Do(func() {
		sess.editor, sess.err = ss.loader(id)
	})
	if sess.err != nil {
		// Forget the failure so the next request tries again.
		ss.mu.Lock()
		if ss.byId[id] == sess {
			delete(ss.byId, id)
		}
		ss.mu.Unlock()

		return nil, sess.err
	}

	return sess, nil
}

func (ss *sessions) drop(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	delete(ss.byId, id)
}

// with runs fn on the editor of sheet id under the session lock and returns
// the resulting snapshot together with the buffer frames are cut from.
// Buffers are replaced, never written, once an editor hands them out.
func (ss *sessions) with(id string, fn func(e *sheet.Editor) error) (sheet.Snapshot, *sheet.Buffer, error) {
	sess, err := ss.get(id)
	if err != nil {
		return sheet.Snapshot{}, nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if fn != nil {
		if err := fn(sess.editor); err != nil {
			return sheet.Snapshot{}, nil, err
		}
	}

	return sess.editor.Recompute(), sess.editor.Processed(), nil
}

// loadEditor rebuilds an editor from the stored upload with default detection.
func (s *Server) loadEditor(id string) (*sheet.Editor, error) {
	sh, err := s.getSheet(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path.Join(s.cfg.FSPath, sh.Id+sh.Extension))
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", id, err)
	}

	buf, _, err := sheet.Decode(data)
	if err != nil {
		return nil, err
	}

	return s.newEditor(buf), nil
}

func (s *Server) newEditor(buf *sheet.Buffer) *sheet.Editor {
	e := sheet.NewEditor(buf, sheet.Background{Mode: sheet.ModeOff})
	e.SetFPS(s.cfg.DefaultFPS)

	return e
}
