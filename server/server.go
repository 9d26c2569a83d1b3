package server

import (
	"embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/liondadev/sprite-toolkit/config"
)

//go:embed assets/*
var assetFs embed.FS

type PublicError struct {
	Code    int
	Message string
}

func (pe PublicError) Error() string {
	return fmt.Sprintf("(%d) %s", pe.Code, pe.Message)
}

// HandlerWithError is a wrapper around a http.Handler that allows you to return an error.
type HandlerWithError func(w http.ResponseWriter, r *http.Request) error

func (h HandlerWithError) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if err := recover(); err != nil {
			log.Printf("Recovered from panic while handling request for (%s) %s: %s", r.RemoteAddr, r.RequestURI, err)

			writeJson(w, http.StatusInternalServerError, jMap{
				"error": "Unrecoverable Serverside Panic!",
			})
		}
	}()

	err := h(w, r)
	if err != nil {
		var perr PublicError
		if errors.As(err, &perr) {
			log.Printf("Encountered public error when serving request for (%s) %s: %s", r.RemoteAddr, r.RequestURI, err.Error())
			writeJson(w, perr.Code, jMap{
				"error": perr.Message,
			})

			return
		}

		log.Printf("Encountered error when serving request for (%s) %s: %s", r.RemoteAddr, r.RequestURI, err.Error())
		writeJson(w, http.StatusInternalServerError, jMap{
			"error": "Internal Server Error!",
		})
	}
}

type Server struct {
	db       *sqlx.DB
	cfg      *config.Config
	mux      *chi.Mux
	sessions *sessions
}

// New creates a new server instance from the config and database instance.
func New(cfg *config.Config, db *sqlx.DB) *Server {
	s := &Server{
		cfg: cfg,
		db:  db,
	}
	s.sessions = newSessions(s.loadEditor)

	return s
}

func (s *Server) SetupHTTP() error {
	mux := chi.NewMux()

	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.CleanPath)
	mux.Use(s.preHandleBasePath)

	authed := mux.With(s.preHandleAuthentication).With(s.preHandleRequireAuthentication)
	compressed := authed.With(middleware.Compress(5))

	// Sheet API
	authed.Handle("POST /sheets", HandlerWithError(s.handleSheetUpload))
	compressed.Handle("GET /sheets/{sheet}/state", HandlerWithError(s.handleSheetState))
	authed.Handle("GET /sheets/{sheet}/image", HandlerWithError(s.handleSheetImage))
	authed.Handle("GET /sheets/{sheet}/thumb", HandlerWithError(s.handleThumbnailView))
	authed.Handle("GET /sheets/{sheet}/frames/{index}", HandlerWithError(s.handleFrameImage))
	compressed.Handle("POST /sheets/{sheet}/detect", HandlerWithError(s.handleDetect))
	compressed.Handle("POST /sheets/{sheet}/grid", HandlerWithError(s.handleGrid))
	compressed.Handle("POST /sheets/{sheet}/offset", HandlerWithError(s.handleOffset))
	compressed.Handle("POST /sheets/{sheet}/merge", HandlerWithError(s.handleMerge))
	compressed.Handle("POST /sheets/{sheet}/split", HandlerWithError(s.handleSplit))
	compressed.Handle("POST /sheets/{sheet}/sequence", HandlerWithError(s.handleSequence))
	authed.Handle("GET /sheets/{sheet}/preview", http.HandlerFunc(s.handlePreviewStream))
	authed.Handle("POST /sheets/{sheet}/export", HandlerWithError(s.handleExport))
	authed.Handle("POST /sheets/{sheet}/metadata", HandlerWithError(s.handleMetadata))
	mux.Handle("GET /delete/{sheetId}/{deleteToken}", HandlerWithError(s.handleDeleteSheet))

	// Stateless tools
	authed.Handle("POST /tools/slice", HandlerWithError(s.handleSliceTool))
	authed.Handle("POST /tools/generate", HandlerWithError(s.handleGenerateTool))
	authed.Handle("POST /tools/pixelate", HandlerWithError(s.handlePixelateTool))

	// Frontend Routes
	mux.Handle("GET /", HandlerWithError(func(w http.ResponseWriter, r *http.Request) error {
		return s.redirect(w, r, "/app", http.StatusTemporaryRedirect)
	}))
	mux.Handle("GET /app/login", FrontendHandlerWithError(s.handleLoginPage))
	mux.Handle("POST /app/login", FrontendHandlerWithError(s.handlePostLoginPage))
	authed.Handle("GET /app", FrontendHandlerWithError(s.handleDashboardPage))
	authed.Handle("GET /app/sheets/{sheet}", FrontendHandlerWithError(s.handleEditorPage))
	authed.Handle("GET /app/tools", FrontendHandlerWithError(s.handleToolsPage))

	// Redirects favicon to /assets/img/favicon.svg
	mux.Handle("GET /favicon.ico", HandlerWithError(func(w http.ResponseWriter, r *http.Request) error {
		path, err := s.link("/assets/img/favicon.svg")
		if err != nil {
			return err
		}
		http.Redirect(w, r, path, http.StatusPermanentRedirect)

		return nil
	}))

	// Static Assets
	httpFs := http.FileServerFS(assetFs)
	mux.Mount("/assets/", httpFs)

	// Not found handler
	mux.NotFound(FrontendHandlerWithError(s.handleNotFound).ServeHTTP)

	s.mux = mux

	return nil
}

// link joins elem onto the configured base path. Without a base path links
// are absolute paths on this host.
func (s *Server) link(elem ...string) (string, error) {
	base := s.cfg.BasePath
	if base == "" {
		base = "/"
	}

	return url.JoinPath(base, elem...)
}

func (s *Server) Run(addr string) error {
	if s.mux == nil {
		return errors.New("the http mux hasn't been configured yet, call setuphttp()")
	}

	return http.ListenAndServe(addr, s.mux)
}

// ApplyMigrations creates all the SQL tables and stuff needed for the service to work.
func (s *Server) ApplyMigrations() error {
	// 001 - sheets
	stmt := `CREATE TABLE IF NOT EXISTS "sheets" ("id" TEXT PRIMARY KEY, "mime" TEXT, "user" TEXT, "uploaded_at" INTEGER, "uploaded_as" TEXT, "ext" TEXT, "width" INTEGER, "height" INTEGER, "delete_token" TEXT)`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("create sheets schema: %w", err)
	}

	// 002 - export log
	stmt = `CREATE TABLE IF NOT EXISTS "exports" ("sheet_id" TEXT, "kind" TEXT, "filename" TEXT, "frame_count" INTEGER, "exported_at" INTEGER)`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("create exports schema: %w", err)
	}

	return nil
}
