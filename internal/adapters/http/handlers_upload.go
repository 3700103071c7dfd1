package web

import (
	"errors"
	"io"
	"net/http"
	"path"

	"formations/internal/adapters/upload"
)

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 64 << 10

type uploadResponse struct {
	URL string `json:"url"`
}

// handleUpload stores a photo or logo and returns its public URL.
// The multipart form carries `file` and `path`; files land below the caller's own folder.
// On failure nothing is replaced, so the client keeps its previous URL.
// POST /api/uploads
func handleUpload(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	if uploads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "uploads are disabled"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxSize+multipartOverhead)
	if err := r.ParseMultipartForm(upload.MaxSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, upload.ErrTooLarge)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	rel := r.FormValue("path")
	if err := upload.ValidatePath(rel); err != nil {
		writeError(w, err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, upload.MaxSize+1))
	if err != nil {
		internalError(w, err)
		return
	}

	url, err := uploads.Put(r.Context(), path.Join("accounts", actor.AccountID, rel), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
