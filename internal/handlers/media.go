package handlers

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

// MediaSource returns stored bytes by media ID
type MediaSource interface {
	Data(id string) ([]byte, bool)
}

// MediaHandler serves files held by the in-memory store so its URLs resolve
func MediaHandler(source MediaSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(chi.URLParam(r, "*"))
		if name == "." || name == "/" || strings.Contains(name, "..") {
			http.Error(w, "Invalid file path", http.StatusBadRequest)
			return
		}

		data, ok := source.Data(strings.TrimSuffix(name, path.Ext(name)))
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", http.DetectContentType(data))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(data)
	}
}
