//go:build dev

package resources

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

// getStaticDir derives the absolute path to the static directory relative
// to this source file, regardless of where the binary is run from.
func getStaticDir() string {
	return filepath.Join(sourceRoot(), "static")
}

// Handler returns an HTTP handler for serving static files. In dev mode
// files are served straight from the filesystem so edits show up on
// refresh.
func Handler() http.Handler {
	staticDir := getStaticDir()
	slog.Info("static assets served from filesystem", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Browser caching stays on validation (Last-Modified/If-Modified-Since).
		http.StripPrefix("/static/", http.FileServer(http.FS(os.DirFS(staticDir)))).ServeHTTP(w, r)
	})
}

// StaticPath returns the URL path for a static asset.
func StaticPath(path string) string {
	return "/static/" + path
}
