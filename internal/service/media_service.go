package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/luminedu/assess-engine/internal/config"
	"github.com/luminedu/assess-engine/internal/model"
)

// Sentinel errors for evidence uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Allowed evidence MIME types. Written answers are photographed or scanned
// worksheets, so only image formats are accepted.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaService handles evidence file uploads.
type MediaService struct {
	cfg *config.Config
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config) *MediaService {
	return &MediaService{cfg: cfg}
}

// SaveEvidence saves an uploaded evidence file to local storage with a UUID
// filename and returns a reference carrying the relative URL and size.
func (s *MediaService) SaveEvidence(file multipart.File, header *multipart.FileHeader) (model.EvidenceRef, error) {
	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedMIMETypes[contentType]
	if !ok {
		return model.EvidenceRef{}, fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(), ", "))
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return model.EvidenceRef{}, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return model.EvidenceRef{}, fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	destPath := filepath.Join(s.cfg.UploadDir, filename)

	dst, err := os.Create(destPath)
	if err != nil {
		return model.EvidenceRef{}, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		return model.EvidenceRef{}, fmt.Errorf("write file: %w", err)
	}

	return model.EvidenceRef{URL: "/uploads/" + filename, SizeBytes: written}, nil
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	return types
}
