package httpapi

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// spaHandler serves files from dir and falls back to index.html so client-side
// routes resolve.
func spaHandler(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeErrorMessage(w, http.StatusNotFound, "not found")
			return
		}

		name := path.Clean("/" + r.URL.Path)
		if strings.HasPrefix(name, "/api/") {
			writeErrorMessage(w, http.StatusNotFound, "not found")
			return
		}

		if name != "/" {
			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
			if err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				writeErrorMessage(w, http.StatusInternalServerError, genericServerError)
				return
			}
		}

		http.ServeFile(w, r, index)
	}
}
