package attachment

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo      Repository
	uploadDir string
	maxSize   int64
	logger    *slog.Logger
}

func NewService(repo Repository, uploadDir string, maxSize int64, logger *slog.Logger) *Service {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	return &Service{
		repo:      repo,
		uploadDir: uploadDir,
		maxSize:   maxSize,
		logger:    logger,
	}
}

// Upload stores the file on disk under a generated name and records the
// attachment. The content type is sniffed from the payload, not trusted
// from the client header.
func (s *Service) Upload(ownerType string, ownerID int64, fileName string, size int64, file io.Reader, userID int64) (*Attachment, error) {
	if size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !AllowedContentType(contentType) {
		return nil, ErrUnsupportedFileType
	}

	dir := filepath.Join(s.uploadDir, ownerType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	storedName := fmt.Sprintf("%d_%s_%s%s", ownerID, time.Now().Format("20060102T150405"), uuid.New().String()[:8], ExtensionFor(contentType))
	storagePath := filepath.Join(dir, storedName)

	dst, err := os.Create(storagePath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), io.LimitReader(file, s.maxSize)))
	if err != nil {
		os.Remove(storagePath)
		return nil, fmt.Errorf("write file: %w", err)
	}

	a := &Attachment{
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		FileName:    fileName,
		StoragePath: storagePath,
		ContentType: contentType,
		Size:        written,
		UploadedBy:  userID,
	}
	if err := s.repo.Create(a); err != nil {
		os.Remove(storagePath)
		return nil, err
	}

	s.logger.Info("attachment uploaded",
		"attachment_id", a.ID,
		"owner_type", ownerType,
		"owner_id", ownerID,
		"content_type", contentType,
		"size", written)

	return a, nil
}

func (s *Service) GetAttachment(id int64) (*Attachment, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListByOwner(ownerType string, ownerID int64) ([]*Attachment, error) {
	return s.repo.ListByOwner(ownerType, ownerID)
}

// Verify marks an attachment as reviewed with the reviewer's notes.
func (s *Service) Verify(id, userID int64, notes string) (*Attachment, error) {
	a, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	a.Verified = true
	a.VerifiedBy = &userID
	a.VerifiedAt = &now
	a.VerificationNotes = notes

	if err := s.repo.Update(a); err != nil {
		return nil, err
	}

	s.logger.Info("attachment verified", "attachment_id", a.ID, "verified_by", userID)
	return a, nil
}
