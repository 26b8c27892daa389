package attachment

import (
	"time"

	"github.com/civicworks/revenue-tracker/internal"
)

// Attachment is an uploaded supporting document (receipt, invoice,
// retirement evidence) stored on local disk and verified by a reviewer.
type Attachment struct {
	ID                int64      `json:"id" gorm:"primaryKey"`
	OwnerType         string     `json:"owner_type" gorm:"column:owner_type;not null"`
	OwnerID           int64      `json:"owner_id" gorm:"column:owner_id;not null"`
	FileName          string     `json:"file_name" gorm:"column:file_name;not null"`
	StoragePath       string     `json:"-" gorm:"column:storage_path;not null"`
	ContentType       string     `json:"content_type" gorm:"column:content_type;not null"`
	Size              int64      `json:"size" gorm:"not null"`
	UploadedBy        int64      `json:"uploaded_by" gorm:"column:uploaded_by;not null"`
	Verified          bool       `json:"verified" gorm:"default:false"`
	VerifiedBy        *int64     `json:"verified_by,omitempty" gorm:"column:verified_by"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty" gorm:"column:verified_at"`
	VerificationNotes string     `json:"verification_notes,omitempty" gorm:"column:verification_notes"`
	CreatedAt         time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// Owner kinds
const (
	OwnerExpenditure = "expenditure"
	OwnerRetirement  = "retirement"
)

// Upload limits. Types outside the allowlist are refused regardless of
// extension.
const MaxFileSize = 10 << 20

var allowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
}

func AllowedContentType(contentType string) bool {
	_, ok := allowedContentTypes[contentType]
	return ok
}

func ExtensionFor(contentType string) string {
	return allowedContentTypes[contentType]
}

type Repository interface {
	Create(a *Attachment) error
	GetByID(id int64) (*Attachment, error)
	ListByOwner(ownerType string, ownerID int64) ([]*Attachment, error)
	Update(a *Attachment) error
}

var (
	ErrAttachmentNotFound  = internal.NewNotFoundError("Attachment not found", internal.ErrCodeAttachmentNotFound)
	ErrFileTooLarge        = internal.NewValidationError("file exceeds the 10MB upload limit", internal.ErrCodeFileTooLarge)
	ErrUnsupportedFileType = internal.NewValidationError("unsupported file type", internal.ErrCodeUnsupportedFileType)
)
