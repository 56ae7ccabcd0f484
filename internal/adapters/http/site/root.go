// Package site serves the embedded operator documentation under /docs/.
package site

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
)

// Error constants
var (
	ErrServe = errors.New("docs site serve failed")
)

//go:embed static
var static embed.FS

// cacheControl applies to every docs page.
const cacheControl = "public, max-age=300"

// Register attaches the embedded documentation routes to mux.
//
//	GET /docs   -> 301 to /docs/
//	GET /docs/* -> embedded static pages
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	root, err := fs.Sub(static, "static")
	if err != nil {
		panic(errors.Join(ErrServe, err))
	}
	files := http.StripPrefix("/docs/", http.FileServer(http.FS(root)))

	mux.HandleFunc("/docs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Cache-Control", cacheControl)
		files.ServeHTTP(w, r)
	})
	mux.Handle("/docs", http.RedirectHandler("/docs/", http.StatusMovedPermanently))
}
