package services

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidImage  = errors.New("invalid image file")
	ErrNotImageOwner = errors.New("image belongs to another user")
)

// ImageService stores avatar and cover uploads on local disk under uuid
// filenames and remembers which user uploaded what.
type ImageService struct {
	mu        sync.RWMutex
	uploadDir string
	images    map[string]*imageRecord // imageID -> image info
}

type imageRecord struct {
	ID       string
	Filename string
	Path     string
	UserID   string
}

type ImageUpload struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

var allowedImageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
}

func NewImageService(uploadDir string) *ImageService {
	os.MkdirAll(uploadDir, 0o755)
	return &ImageService{
		uploadDir: uploadDir,
		images:    make(map[string]*imageRecord),
	}
}

func (s *ImageService) Upload(userID, filename string, file io.Reader) (*ImageUpload, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedImageExts[ext]; !ok {
		return nil, ErrInvalidImage
	}

	imageID := uuid.New().String()
	newFilename := imageID + ext
	filePath := filepath.Join(s.uploadDir, newFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		return nil, err
	}

	s.mu.Lock()
	s.images[imageID] = &imageRecord{
		ID:       imageID,
		Filename: newFilename,
		Path:     filePath,
		UserID:   userID,
	}
	s.mu.Unlock()

	return &ImageUpload{
		ID:       imageID,
		URL:      "/uploads/" + newFilename,
		Filename: newFilename,
	}, nil
}

func (s *ImageService) Delete(userID, imageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.images[imageID]
	if !ok {
		return ErrImageNotFound
	}
	if rec.UserID != userID {
		return ErrNotImageOwner
	}
	if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	delete(s.images, imageID)
	return nil
}
