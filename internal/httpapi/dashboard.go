package httpapi

import (
	"io/fs"
	"net/http"
	"strings"
)

// serveDashboard registers the static dashboard SPA at "/". Any path that
// doesn't resolve to a real embedded file falls back to index.html so
// client-side routing works.
func (s *Server) serveDashboard(mux *http.ServeMux) {
	sub := dashboardFS()
	if sub == nil {
		return
	}
	if _, err := fs.Stat(sub, "index.html"); err != nil {
		s.log.Warn("dashboard assets missing index.html", "error", err)
		return
	}

	handler := &spaHandler{fs: sub, prefix: "/"}
	mux.Handle("/", handler)
}

// spaHandler serves static files from an embedded filesystem with SPA
// fallback: a path that doesn't match a real file serves index.html.
type spaHandler struct {
	fs     fs.FS
	prefix string
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, h.prefix)
	if path == "" {
		path = "index.html"
	}

	f, err := h.fs.Open(path)
	if err == nil {
		_ = f.Close()
		if isStaticAsset(path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		http.StripPrefix(h.prefix, http.FileServer(http.FS(h.fs))).ServeHTTP(w, r)
		return
	}

	indexFile, err := fs.ReadFile(h.fs, "index.html")
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(indexFile)
}

// isStaticAsset reports whether path is a hashed static asset under
// /assets/ eligible for aggressive caching.
func isStaticAsset(path string) bool {
	return strings.HasPrefix(path, "assets/")
}
