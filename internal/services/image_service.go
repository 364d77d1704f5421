package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
)

// UploadURLPrefix is the path uploaded files are served under.
const UploadURLPrefix = "/uploads/"

var allowedImageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// ImageService stores recipe images on local disk.
type ImageService struct {
	uploadDir string
	log       zerolog.Logger
}

func NewImageService(uploadDir string) (*ImageService, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageService{uploadDir: uploadDir, log: logging.Component("images")}, nil
}

func (s *ImageService) Dir() string { return s.uploadDir }

// Upload writes file under a fresh random name and returns its public URL.
func (s *ImageService) Upload(userID, filename string, file io.Reader) (*models.ImageUploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	if !allowedImageExt[ext] {
		return nil, ErrInvalidImage
	}

	imageID := uuid.New().String()
	newFilename := imageID + ext
	filePath := filepath.Join(s.uploadDir, newFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	s.log.Debug().Str("user_id", userID).Str("file", newFilename).Msg("image uploaded")
	return &models.ImageUploadResponse{
		ID:       imageID,
		URL:      UploadURLPrefix + newFilename,
		Filename: newFilename,
	}, nil
}

// RemoveURLs deletes the local files behind upload URLs, skipping anything
// that is not one of ours. It returns how many files were removed.
func (s *ImageService) RemoveURLs(urls []string) int {
	removed := 0
	for _, u := range urls {
		name, ok := strings.CutPrefix(u, UploadURLPrefix)
		if !ok || name == "" || name != filepath.Base(name) {
			continue
		}
		err := os.Remove(filepath.Join(s.uploadDir, name))
		switch {
		case err == nil:
			removed++
		case !os.IsNotExist(err):
			s.log.Warn().Err(err).Str("file", name).Msg("remove image failed")
		}
	}
	return removed
}
