package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-marathon-server/auth"
	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/render"
	"github.com/jrsteele09/go-marathon-server/static"
	"github.com/rs/zerolog"
)

// pagePath maps a request path to a file: "/" is the index and paths without
// an extension are HTML pages.
func pagePath(path string) string {
	if path == "/" || path == "" {
		return indexFile
	}
	if !strings.Contains(path, ".") {
		path += ".html"
	}
	return path
}

// PageHandler serves site files. HTML pages are wrapped into the site
// template and their expressions expanded for the current visitor.
func (s *Server) PageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := zerolog.Ctx(ctx)
		filePath := pagePath(r.URL.Path)

		data, err := s.files.ReadFile(ctx, filePath)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				http.Error(w, "404 - Page Not Found", http.StatusNotFound)
				return
			}
			logger.Err(err).Str("file", filePath).Msg("reading file")
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}

		ctype := static.MimeType(filePath)
		if ctype == "text/html" {
			page, err := s.renderPage(r, string(data))
			if err != nil {
				logger.Err(err).Str("file", filePath).Msg("rendering page")
				http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
				return
			}
			data = []byte(page)
		}
		if strings.HasPrefix(ctype, "text/") {
			ctype += "; charset=utf-8"
		}
		w.Header().Set("Content-Type", ctype)
		if _, err := w.Write(data); err != nil {
			logger.Debug().Err(err).Msg("writing response")
		}
	}
}

func (s *Server) renderPage(r *http.Request, content string) (string, error) {
	shell, err := s.files.ReadFile(r.Context(), templateFile)
	if err != nil {
		return "", err
	}
	env := render.NewEnv(
		auth.SessionUserFrom(r.Context()),
		r.URL.Path,
		s.config.GetWebRoot(),
		s.config.GetWebsiteHost(),
		s.config.IsDevelopment(),
	)
	return s.expander.Expand(r.Context(), string(shell), content, env)
}
