package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"capi/internal/resume"
)

// multipartOverhead covers form boundaries and the other form fields.
const multipartOverhead = 64 << 10

// ResumeService is the resume upload pipeline.
type ResumeService interface {
	Upload(ctx context.Context, u resume.Upload) (string, error)
	Remove(ctx context.Context, userID string) error
	MaxSize() int64
}

type ResumeHandler struct {
	service ResumeService
}

func NewResumeHandler(service ResumeService) *ResumeHandler {
	return &ResumeHandler{service: service}
}

// HandleUpload accepts a multipart form with a "resume" file and the user id
// in the uid header or form field.
func (h *ResumeHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := h.service.MaxSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, fmt.Errorf("%w: limit %d bytes", resume.ErrTooLarge, maxSize))
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid multipart form"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("resume")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "resume file is required"})
		return
	}
	defer file.Close()

	// one extra byte lets the service see an oversized file
	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		writeError(w, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	userID := r.Header.Get("uid")
	if userID == "" {
		userID = r.FormValue("uid")
	}

	url, err := h.service.Upload(r.Context(), resume.Upload{
		UserID:   userID,
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// HandleRemove clears the resume of the user named by the uid header.
func (h *ResumeHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("uid")

	if err := h.service.Remove(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Resume removed successfully",
	})
}

// FileServer streams stored files.
type FileServer interface {
	ServeFile(w http.ResponseWriter, r *http.Request, key string) error
}

// HandleFile serves a stored resume by key. Keys outside the resume
// directory are not served.
func HandleFile(files FileServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		if !resume.ValidKey(key) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		if err := files.ServeFile(w, r, key); err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
		}
	}
}
