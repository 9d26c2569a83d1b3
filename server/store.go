package server

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/liondadev/sprite-toolkit/types"
)

var errSheetNotFound = PublicError{http.StatusNotFound, "Sprite sheet not found."}

const sheetColumns = `"id", "mime", "user", "uploaded_at", "uploaded_as", "ext", "width", "height", "delete_token"`

func (s *Server) insertSheet(sh types.Sheet) error {
	_, err := s.db.NamedExec(`INSERT INTO "sheets" (`+sheetColumns+`) VALUES (:id, :mime, :user, :uploaded_at, :uploaded_as, :ext, :width, :height, :delete_token)`, sh)
	return err
}

// getSheet loads one sheet row, turning a missing row into a 404.
func (s *Server) getSheet(id string) (types.Sheet, error) {
	var sh types.Sheet
	if err := s.db.Get(&sh, `SELECT `+sheetColumns+` FROM "sheets" WHERE "id" = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sh, errSheetNotFound
		}

		return sh, err
	}

	return sh, nil
}

func (s *Server) sheetExists(id string) (bool, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM "sheets" WHERE "id" = $1`, id); err != nil {
		return false, err
	}

	return n > 0, nil
}

func (s *Server) recentSheets(user string, limit int) ([]types.Sheet, error) {
	sheets := make([]types.Sheet, 0, limit)
	if err := s.db.Select(&sheets, `SELECT `+sheetColumns+` FROM "sheets" WHERE "user" = $1 ORDER BY "uploaded_at" DESC LIMIT $2`, user, limit); err != nil {
		return nil, err
	}

	return sheets, nil
}

// deleteSheet removes the row matching id and token and returns its extension.
func (s *Server) deleteSheet(id, token string) (string, error) {
	var ext string
	err := s.db.Get(&ext, `DELETE FROM "sheets" WHERE "id" = $1 AND "delete_token" = $2 RETURNING "ext"`, id, token)
	return ext, err
}

func (s *Server) logExport(sheetId, kind, filename string, frameCount int) error {
	_, err := s.db.NamedExec(`INSERT INTO "exports" ("sheet_id", "kind", "filename", "frame_count", "exported_at") VALUES (:sheet_id, :kind, :filename, :frame_count, :exported_at)`, types.Export{
		SheetId:    sheetId,
		Kind:       kind,
		Filename:   filename,
		FrameCount: frameCount,
		Timestamp:  uint64(time.Now().Unix()),
	})
	return err
}

func (s *Server) exportsFor(sheetId string, limit int) ([]types.Export, error) {
	exports := make([]types.Export, 0, limit)
	if err := s.db.Select(&exports, `SELECT "sheet_id", "kind", "filename", "frame_count", "exported_at" FROM "exports" WHERE "sheet_id" = $1 ORDER BY "exported_at" DESC LIMIT $2`, sheetId, limit); err != nil {
		return nil, err
	}

	return exports, nil
}

// userStats counts a user's sheets and exports.
func (s *Server) userStats(user string) (sheets int, exports int, err error) {
	if err = s.db.Get(&sheets, `SELECT COUNT(*) FROM "sheets" WHERE "user" = $1`, user); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, err
	}

	err = s.db.Get(&exports, `SELECT COUNT(*) FROM "exports" e JOIN "sheets" s ON s."id" = e."sheet_id" WHERE s."user" = $1`, user)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, err
	}

	return sheets, exports, nil
}
