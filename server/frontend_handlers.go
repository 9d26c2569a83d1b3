package server

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/liondadev/sprite-toolkit/server/pages"
)

// FrontendHandlerWithError is almost identical to HandlerWithError, but it handles
// erroneous responses by responding with an error page, not json
type FrontendHandlerWithError func(w http.ResponseWriter, r *http.Request) error

func (h FrontendHandlerWithError) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if err := recover(); err != nil {
			log.Printf("Recovered from panic while handling frontend request for (%s) %s: %s", r.RemoteAddr, r.RequestURI, err)
			_ = writeHTML(w, r, http.StatusInternalServerError, pages.Error("PANIC", "500 - Internal Server Error", "Unrecoverable Server Panic"))
		}
	}()

	start := time.Now()
	err := h(w, r)
	dur := time.Since(start).String()
	if err != nil {
		var perr PublicError
		if errors.As(err, &perr) {
			log.Printf("Encountered public error when serving frontend request for (%s) %s: %s", r.RemoteAddr, r.RequestURI, err.Error())
			_ = writeHTML(w, r, perr.Code, pages.Error(dur, strconv.Itoa(perr.Code)+" - "+http.StatusText(perr.Code), perr.Message))

			return
		}

		log.Printf("Encountered error when serving frontend request for (%s) %s: %s", r.RemoteAddr, r.RequestURI, err.Error())
		_ = writeHTML(w, r, http.StatusInternalServerError, pages.Error(dur, "500 - Internal Server Error", "Internal Server Error"))
	}
}

// writeHTML renders html with the request context, which carries the base
// path page links are built on.
func writeHTML(w http.ResponseWriter, r *http.Request, status int, html templ.Component) error {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	return html.Render(r.Context(), w)
}

// redirect sends the client to p below the configured base path.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, p string, code int) error {
	to, err := s.link(p)
	if err != nil {
		return err
	}
	http.Redirect(w, r, to, code)

	return nil
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) error {
	if s.cfg.Open() {
		return s.redirect(w, r, "/app", http.StatusTemporaryRedirect)
	}

	return writeHTML(w, r, http.StatusOK, pages.Login(""))
}

func (s *Server) handlePostLoginPage(w http.ResponseWriter, r *http.Request) error {
	if s.cfg.Open() {
		return s.redirect(w, r, "/app", http.StatusSeeOther)
	}

	home, err := s.link("/")
	if err != nil {
		return err
	}
	// base_path may be a full url
	cookiePath := "/"
	if u, err := url.Parse(home); err == nil && u.Path != "" {
		cookiePath = u.Path
	}

	err = r.ParseForm()
	if err != nil {
		return err
	}

	apiKey := r.FormValue("api_key")
	if apiKey == "" {
		return writeHTML(w, r, http.StatusBadRequest, pages.Login("Please enter an API key."))
	}

	_, ok := s.cfg.Users[apiKey]
	if !ok {
		return writeHTML(w, r, http.StatusBadRequest, pages.Login("Invalid API Key."))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "sprites_api_key",
		Value:    apiKey,
		Path:     cookiePath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return s.redirect(w, r, "/app", http.StatusSeeOther)
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) error {
	userName := userFromContext(r)

	// Collect some statistics
	totalSheets, totalExports, err := s.userStats(userName)
	if err != nil {
		return err
	}

	// Collect the recent sheets
	sheets, err := s.recentSheets(userName, 10)
	if err != nil {
		return err
	}

	lastUpload := "Never"
	if len(sheets) >= 1 {
		lastUpload = time.Unix(int64(sheets[0].Timestamp), 0).Format(time.RFC1123)
	}

	return writeHTML(w, r, http.StatusOK, pages.Dashboard(userName, map[string]string{
		"Total Sheets":  strconv.Itoa(totalSheets),
		"Total Exports": strconv.Itoa(totalExports),
		"Last Upload":   lastUpload,
	}, sheets))
}

func (s *Server) handleEditorPage(w http.ResponseWriter, r *http.Request) error {
	sh, snap, _, err := s.withSheet(r, nil)
	if err != nil {
		return err
	}

	exports, err := s.exportsFor(sh.Id, 10)
	if err != nil {
		return err
	}

	return writeHTML(w, r, http.StatusOK, pages.Editor(sh, snap, exports))
}

func (s *Server) handleToolsPage(w http.ResponseWriter, r *http.Request) error {
	return writeHTML(w, r, http.StatusOK, pages.Tools())
}
