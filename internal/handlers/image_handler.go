package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Kohanchuk66/anime-back/internal/middleware"
	"github.com/Kohanchuk66/anime-back/internal/models"
	"github.com/Kohanchuk66/anime-back/internal/services"
)

// ImageUploader stores and removes user-submitted image files.
type ImageUploader interface {
	Upload(userID, filename string, file io.Reader) (*services.ImageUpload, error)
	Delete(userID, imageID string) error
}

type ImageHandler struct {
	images   ImageUploader
	maxBytes int64
}

func NewImageHandler(images ImageUploader, maxUploadSizeMB int64) *ImageHandler {
	return &ImageHandler{images: images, maxBytes: maxUploadSizeMB << 20}
}

func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Image is too large or the form is malformed")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	upload, err := h.images.Upload(claims.UserID, header.Filename, file)
	if err != nil {
		if err == services.ErrInvalidImage {
			writeError(w, http.StatusBadRequest, "Unsupported image format")
			return
		}
		zap.L().Error("image upload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to upload image")
		return
	}
	writeJSON(w, http.StatusCreated, upload)
}

func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())
	imageID := chi.URLParam(r, "id")

	if err := h.images.Delete(claims.UserID, imageID); err != nil {
		switch err {
		case services.ErrImageNotFound:
			writeError(w, http.StatusNotFound, "Image not found")
		case services.ErrNotImageOwner:
			writeError(w, http.StatusForbidden, "You can only delete your own images")
		default:
			zap.L().Error("image delete failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to delete image")
		}
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Image deleted"})
}
