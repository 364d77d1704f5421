package handlers

import (
	"net/http"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

// ImageHandler accepts recipe image uploads. Files are served from
// services.UploadURLPrefix by the router.
type ImageHandler struct {
	images    *services.ImageService
	maxSizeMB int64
}

func NewImageHandler(images *services.ImageService, maxSizeMB int64) *ImageHandler {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &ImageHandler{images: images, maxSizeMB: maxSizeMB}
}

func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.maxSizeMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File too large or invalid form data"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("No image file provided"))
		return
	}
	defer file.Close()

	if !isValidImageType(header.Header.Get("Content-Type")) {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid image type. Allowed: JPEG, PNG, GIF, WebP"))
		return
	}

	res, err := h.images.Upload(middleware.GetUserID(r.Context()).Hex(), header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(res))
}

func isValidImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
