package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zip"
	"github.com/liondadev/sprite-toolkit/config"
	"github.com/liondadev/sprite-toolkit/sheet"
	"github.com/stretchr/testify/require"

	_ "github.com/glebarez/go-sqlite"
)

func newTestServer(t *testing.T, users map[string]string) *Server {
	t.Helper()

	cfg := config.New()
	cfg.FSPath = t.TempDir()
	if users != nil {
		cfg.Users = users
	}

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := New(cfg, db)
	require.NoError(t, s.SetupHTTP())
	require.NoError(t, s.ApplyMigrations())

	return s
}

// sheetPNG is a 20x10 transparent sheet with three sprites side by side.
func sheetPNG(t *testing.T) []byte {
	t.Helper()

	b := sheet.NewBuffer(20, 10)
	b.Fill(image.Rect(1, 1, 5, 5), sheet.Color{R: 220}, 255)
	b.Fill(image.Rect(8, 1, 14, 9), sheet.Color{B: 220}, 255)
	b.Fill(image.Rect(16, 3, 18, 5), sheet.Color{R: 220}, 255)

	out := new(bytes.Buffer)
	require.NoError(t, png.Encode(out, b.Image()))

	return out.Bytes()
}

type upload struct {
	field    string
	filename string
	data     []byte
}

func multipartRequest(t *testing.T, target string, files []upload, fields map[string]string) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, target, body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	return r
}

func serve(s *Server, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, r)

	return w
}

type uploadResponse struct {
	Id        string         `json:"id"`
	DeleteUrl string         `json:"delete_url"`
	State     sheet.Snapshot `json:"state"`
}

func uploadSheet(t *testing.T, s *Server) uploadResponse {
	t.Helper()

	w := serve(s, multipartRequest(t, "/sheets", []upload{{"upload", "hero.png", sheetPNG(t)}}, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	return res
}

type editResponse struct {
	State   sheet.Snapshot `json:"state"`
	Found   int            `json:"found"`
	Message string         `json:"message"`
	Error   string         `json:"error"`
}

func postJson(t *testing.T, s *Server, target string, body any) (int, editResponse) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	w := serve(s, r)

	var res editResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())

	return w.Code, res
}

func TestUploadDetectsFrames(t *testing.T) {
	s := newTestServer(t, nil)
	res := uploadSheet(t, s)

	require.Len(t, res.Id, SheetIdLength)
	require.Equal(t, 20, res.State.Width)
	require.Equal(t, []sheet.Frame{
		{X: 1, Y: 1, Width: 4, Height: 8},
		{X: 8, Y: 1, Width: 6, Height: 8},
		{X: 16, Y: 1, Width: 2, Height: 8},
	}, res.State.Frames)
	require.Equal(t, []int{0, 1, 2}, res.State.Sequence)
	require.Equal(t, 5, res.State.FPS)
}

func TestUploadRejectsNonImages(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, multipartRequest(t, "/sheets", []upload{{"upload", "notes.txt", []byte("hello")}}, nil))
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = serve(s, multipartRequest(t, "/sheets", nil, map[string]string{"cols": "2"}))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, map[string]string{"secret": "alice"})

	w := serve(s, multipartRequest(t, "/sheets", []upload{{"upload", "hero.png", sheetPNG(t)}}, nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	r := multipartRequest(t, "/sheets", []upload{{"upload", "hero.png", sheetPNG(t)}}, nil)
	r.Header.Set("X-Server-Api-Key", "secret")
	w = serve(s, r)
	require.Equal(t, http.StatusCreated, w.Code)

	var res uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	sh, err := s.getSheet(res.Id)
	require.NoError(t, err)
	require.Equal(t, "alice", sh.User)
}

func TestEditing(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSheet(t, s).Id
	base := "/sheets/" + id

	t.Run("merge needs two frames", func(t *testing.T) {
		code, res := postJson(t, s, base+"/merge", jMap{"indices": []int{0}})
		require.Equal(t, http.StatusBadRequest, code)
		require.Equal(t, "Select at least two frames to merge.", res.Error)
	})

	t.Run("merge out of range", func(t *testing.T) {
		code, _ := postJson(t, s, base+"/merge", jMap{"indices": []int{0, 7}})
		require.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("merge", func(t *testing.T) {
		code, res := postJson(t, s, base+"/merge", jMap{"indices": []int{1, 0}})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, []sheet.Frame{
			{X: 1, Y: 1, Width: 13, Height: 8},
			{X: 16, Y: 1, Width: 2, Height: 8},
		}, res.State.Frames)
		require.Equal(t, []int{0, 1}, res.State.Sequence)
	})

	t.Run("split needs a frame", func(t *testing.T) {
		code, res := postJson(t, s, base+"/split", jMap{})
		require.Equal(t, http.StatusBadRequest, code)
		require.Equal(t, "Select a frame to split.", res.Error)
	})

	t.Run("split", func(t *testing.T) {
		code, res := postJson(t, s, base+"/split", jMap{"index": 0})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, 2, res.Found)
		require.Len(t, res.State.Frames, 3)
		require.Equal(t, sheet.Frame{X: 8, Y: 1, Width: 6, Height: 8}, res.State.Frames[1])
	})

	t.Run("offset", func(t *testing.T) {
		code, res := postJson(t, s, base+"/offset", jMap{"index": 2, "x": 3, "y": -2})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, 3, res.State.Frames[2].OffsetX)
		require.Equal(t, -2, res.State.Frames[2].OffsetY)

		code, after := postJson(t, s, base+"/offset", jMap{"index": 9, "x": 1, "y": 1})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, res.State.Frames, after.State.Frames)
	})

	t.Run("sequence", func(t *testing.T) {
		code, res := postJson(t, s, base+"/sequence", jMap{"text": "2, 0-1, 5", "fps": 12})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, []int{2, 0, 1}, res.State.Sequence)
		require.Equal(t, "2, 0-1, 5", res.State.SequenceText)
		require.Equal(t, 12, res.State.FPS)
	})

	t.Run("detect resets", func(t *testing.T) {
		code, res := postJson(t, s, base+"/detect", jMap{"mode": "auto"})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, sheet.ModeAuto, res.State.Background.Mode)
		// (0,0) is transparent black, so nothing visible matches it
		require.Len(t, res.State.Frames, 3)
		require.Equal(t, []int{0, 1, 2}, res.State.Sequence)
		require.Equal(t, 0, res.State.Frames[2].OffsetX)
	})

	t.Run("grid", func(t *testing.T) {
		code, res := postJson(t, s, base+"/grid", jMap{"cols": 2, "rows": 2})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, []sheet.Frame{
			{X: 0, Y: 0, Width: 10, Height: 5},
			{X: 10, Y: 0, Width: 10, Height: 5},
			{X: 0, Y: 5, Width: 10, Height: 5},
			{X: 10, Y: 5, Width: 10, Height: 5},
		}, res.State.Frames)
	})
}

func TestUnknownSheet(t *testing.T) {
	s := newTestServer(t, nil)

	code, res := postJson(t, s, "/sheets/nope/merge", jMap{"indices": []int{0, 1}})
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Sprite sheet not found.", res.Error)
}

func TestSessionRebuildsFromStorage(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSheet(t, s).Id
	postJson(t, s, "/sheets/"+id+"/merge", jMap{"indices": []int{0, 1, 2}})

	s.sessions.drop(id)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/sheets/"+id+"/state", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res editResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.State.Frames, 3)
}

func TestFrameImage(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSheet(t, s).Id

	w := serve(s, httptest.NewRequest(http.MethodGet, "/sheets/"+id+"/frames/1.png", nil))
	require.Equal(t, http.StatusOK, w.Code)

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 6, 8), img.Bounds())

	w = serve(s, httptest.NewRequest(http.MethodGet, "/sheets/"+id+"/frames/3", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func exportRequestBody(t *testing.T, target string, body any) *http.Request {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	return httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSheet(t, s).Id
	base := "/sheets/" + id

	t.Run("individual", func(t *testing.T) {
		w := serve(s, exportRequestBody(t, base+"/export", jMap{"mode": "individual"}))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/zip", w.Header().Get("Content-Type"))
		require.Equal(t, `attachment; filename="auto_detected_frames.zip"`, w.Header().Get("Content-Disposition"))

		zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
		require.NoError(t, err)

		names := make([]string, 0, len(zr.File))
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		require.Equal(t, []string{"frame_0.png", "frame_1.png", "frame_2.png"}, names)
	})

	t.Run("combined", func(t *testing.T) {
		w := serve(s, exportRequestBody(t, base+"/export", jMap{"mode": "combined", "filename": "strip", "scale": 2}))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, `attachment; filename="strip.png"`, w.Header().Get("Content-Disposition"))

		img, err := png.Decode(w.Body)
		require.NoError(t, err)
		require.Equal(t, image.Rect(0, 0, (4+6+2)*2, 8*2), img.Bounds())
	})

	t.Run("gif of empty sequence", func(t *testing.T) {
		postJson(t, s, base+"/sequence", jMap{"text": "3-1"})

		w := serve(s, exportRequestBody(t, base+"/export", jMap{"mode": "gif"}))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("gif", func(t *testing.T) {
		postJson(t, s, base+"/sequence", jMap{"text": "0, 2"})

		w := serve(s, exportRequestBody(t, base+"/export", jMap{"mode": "gif", "filename": "walk"}))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "image/gif", w.Header().Get("Content-Type"))
		require.Equal(t, `attachment; filename="walk.gif"`, w.Header().Get("Content-Disposition"))
	})

	exports, err := s.exportsFor(id, 10)
	require.NoError(t, err)
	require.Len(t, exports, 3)
}

func TestMetadata(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSheet(t, s).Id

	w := serve(s, exportRequestBody(t, "/sheets/"+id+"/metadata", jMap{"format": "TexturePacker", "filename": "hero"}))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `attachment; filename="hero.json"`, w.Header().Get("Content-Disposition"))

	var doc struct {
		Frames map[string]json.RawMessage `json:"frames"`
		Meta   struct {
			Image string `json:"image"`
			Size  struct {
				W int `json:"w"`
				H int `json:"h"`
			} `json:"size"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Empty(t, doc.Frames)
	require.Equal(t, "hero.png", doc.Meta.Image)
	require.Equal(t, 20, doc.Meta.Size.W)
	require.Equal(t, 10, doc.Meta.Size.H)
}

func TestPreviewStream(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSheet(t, s).Id
	postJson(t, s, "/sheets/"+id+"/sequence", jMap{"text": "2"})

	ts := httptest.NewServer(s.mux)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sheets/"+id+"/preview?fps=30", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	br := bufio.NewReader(res.Body)
	line, err := br.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: frame\n", line)

	line, err = br.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var ev struct {
		Index int    `json:"index"`
		Image string `json:"image"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
	require.Equal(t, 2, ev.Index)
	require.True(t, strings.HasPrefix(ev.Image, "data:image/png;base64,"))
}

func TestDeleteSheet(t *testing.T) {
	s := newTestServer(t, nil)
	res := uploadSheet(t, s)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/delete/"+res.Id+"/wrong", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, res.DeleteUrl, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(s, httptest.NewRequest(http.MethodGet, "/sheets/"+res.Id+"/state", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSliceTool(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, multipartRequest(t, "/tools/slice",
		[]upload{{"upload", "hero.png", sheetPNG(t)}},
		map[string]string{"cols": "2", "rows": "1"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, `attachment; filename="hero-slices.zip"`, w.Header().Get("Content-Disposition"))

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	require.Equal(t, "hero-row1-col1.png", zr.File[0].Name)
	require.Equal(t, "hero-row1-col2.png", zr.File[1].Name)

	f, err := zr.File[1].Open()
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 10, 10), img.Bounds())
}

func TestGenerateTool(t *testing.T) {
	s := newTestServer(t, nil)
	sprite := sheetPNG(t)

	w := serve(s, multipartRequest(t, "/tools/generate",
		[]upload{{"sprites", "a.png", sprite}, {"sprites", "b.png", sprite}},
		map[string]string{"cols": "2", "rows": "1", "padding": "2"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, `attachment; filename="spritesheet.png"`, w.Header().Get("Content-Disposition"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	// cells are the largest side plus padding on both sides
	require.Equal(t, image.Rect(0, 0, 2*24, 24), img.Bounds())
}

func TestPixelateTool(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, multipartRequest(t, "/tools/pixelate",
		[]upload{{"upload", "hero.png", sheetPNG(t)}},
		map[string]string{"size": "5"}))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `attachment; filename="pixelated-image.png"`, w.Header().Get("Content-Disposition"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())
}

func TestFrontendPages(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSheet(t, s).Id

	for _, target := range []string{"/app", "/app/tools", "/app/sheets/" + id} {
		w := serve(s, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, w.Code, target)
		require.Equal(t, "text/html", w.Header().Get("Content-Type"))

		body, err := io.ReadAll(w.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), "Sprite Toolkit")
	}

	w := serve(s, httptest.NewRequest(http.MethodGet, "/app/sheets/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Sprite sheet not found.")
}

func TestExportLimits(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSheet(t, s).Id
	base := "/sheets/" + id

	t.Run("scale is clamped", func(t *testing.T) {
		w := serve(s, exportRequestBody(t, base+"/export", jMap{"mode": "combined", "scale": 1 << 22}))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		img, err := png.Decode(w.Body)
		require.NoError(t, err)
		require.Equal(t, image.Rect(0, 0, (4+6+2)*16, 8*16), img.Bounds())
	})

	s.cfg.MaxOutputPixels = (4 + 6 + 2) * 8 * 4

	t.Run("combined within the limit", func(t *testing.T) {
		w := serve(s, exportRequestBody(t, base+"/export", jMap{"mode": "combined", "scale": 2}))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	for _, mode := range []string{"combined", "individual", "gif"} {
		t.Run(mode+" over the limit", func(t *testing.T) {
			w := serve(s, exportRequestBody(t, base+"/export", jMap{"mode": mode, "scale": 3}))
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			require.Contains(t, w.Body.String(), "The output image would be too large.")
		})
	}
}

func TestToolLimits(t *testing.T) {
	s := newTestServer(t, nil)
	sprite := sheetPNG(t)

	w := serve(s, multipartRequest(t, "/tools/generate",
		[]upload{{"sprites", "a.png", sprite}},
		map[string]string{"cols": "100000", "rows": "100000"}))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "The output image would be too large.")

	w = serve(s, multipartRequest(t, "/tools/generate",
		[]upload{{"sprites", "a.png", sprite}},
		map[string]string{"cols": "4611686018427387904", "rows": "4611686018427387904"}))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	s.cfg.MaxOutputPixels = 20*10 - 1

	w = serve(s, multipartRequest(t, "/tools/pixelate", []upload{{"upload", "hero.png", sprite}}, nil))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "The uploaded image is too large.")

	w = serve(s, multipartRequest(t, "/sheets", []upload{{"upload", "hero.png", sprite}}, nil))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestSheetsBelongToTheirUploader(t *testing.T) {
	s := newTestServer(t, map[string]string{"alice-key": "alice", "bob-key": "bob"})

	as := func(key string, r *http.Request) *http.Request {
		r.Header.Set("X-Server-Api-Key", key)
		return r
	}
	jsonRequest := func(target string, body any) *http.Request {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		return httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	}

	w := serve(s, as("alice-key", multipartRequest(t, "/sheets", []upload{{"upload", "hero.png", sheetPNG(t)}}, nil)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	base := "/sheets/" + res.Id

	w = serve(s, as("bob-key", jsonRequest(base+"/merge", jMap{"indices": []int{0, 1}})))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Sprite sheet not found.")

	for _, r := range []*http.Request{
		jsonRequest(base+"/detect", jMap{"mode": "auto"}),
		jsonRequest(base+"/grid", jMap{"cols": 2, "rows": 1}),
		jsonRequest(base+"/offset", jMap{"index": 0, "x": 1}),
		jsonRequest(base+"/split", jMap{"index": 0}),
		jsonRequest(base+"/sequence", jMap{"text": "0"}),
		jsonRequest(base+"/export", jMap{"mode": "combined"}),
		jsonRequest(base+"/metadata", jMap{}),
		httptest.NewRequest(http.MethodGet, base+"/state", nil),
		httptest.NewRequest(http.MethodGet, base+"/image", nil),
		httptest.NewRequest(http.MethodGet, base+"/thumb", nil),
		httptest.NewRequest(http.MethodGet, base+"/frames/0", nil),
		httptest.NewRequest(http.MethodGet, "/app/sheets/"+res.Id, nil),
	} {
		w := serve(s, as("bob-key", r))
		require.Equal(t, http.StatusNotFound, w.Code, r.URL.Path)
	}

	w = serve(s, httptest.NewRequest(http.MethodGet, base+"/image", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// bob's attempts changed nothing
	w = serve(s, as("alice-key", jsonRequest(base+"/merge", jMap{"indices": []int{0, 1}})))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var edited editResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &edited))
	require.Len(t, edited.State.Frames, 2)
	require.Equal(t, 0, edited.State.Frames[0].OffsetX)

	w = serve(s, as("alice-key", httptest.NewRequest(http.MethodGet, base+"/image", nil)))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPagesFollowBasePath(t *testing.T) {
	s := newTestServer(t, nil)
	s.cfg.BasePath = "/sprites"
	id := uploadSheet(t, s).Id

	w := serve(s, httptest.NewRequest(http.MethodGet, "/app", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, `<body data-base="/sprites">`)
	require.Contains(t, body, `href="/sprites/app/sheets/`+id+`"`)
	require.Contains(t, body, `src="/sprites/sheets/`+id+`/thumb"`)
	require.NotContains(t, body, `href="/app`)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Equal(t, "/sprites/app", w.Header().Get("Location"))

	s = newTestServer(t, map[string]string{"alice-key": "alice"})
	s.cfg.BasePath = "https://example.com/sprites/"
	r := httptest.NewRequest(http.MethodPost, "/app/login", strings.NewReader("api_key=alice-key"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = serve(s, r)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "https://example.com/sprites/app", w.Header().Get("Location"))
	require.Contains(t, w.Header().Get("Set-Cookie"), "Path=/sprites/")
}
