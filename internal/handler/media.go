package handler

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/forumcore/forum/internal/logger"
	"github.com/forumcore/forum/internal/utils"

	"github.com/go-chi/chi/v5"
)

// ServeMedia streams a stored upload. The wildcard is the file reference.
func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "*")
	file, err := h.media.Read(ref)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer file.Close()

	if contentType := mime.TypeByExtension(path.Ext(ref)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, file); err != nil {
		logger.Log.Warn("failed to stream media", "ref", ref, "error", err)
	}
}
