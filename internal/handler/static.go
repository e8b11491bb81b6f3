package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPA serves a built single-page app from dir. Paths that do not name a file
// fall back to index.html so client-side routes resolve.
func SPA(dir string) http.Handler {
	root := http.Dir(dir)
	files := http.FileServer(root)
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		f, err := root.Open(path.Clean("/" + r.URL.Path))
		if err == nil {
			st, statErr := f.Stat()
			_ = f.Close()
			if statErr == nil && !st.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		} else if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, os.ErrPermission) {
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		http.ServeFile(w, r, index)
	})
}
