package postgres

import (
	"errors"

	"github.com/civicworks/revenue-tracker/internal/attachment"
	"gorm.io/gorm"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(a *attachment.Attachment) error {
	return r.db.Create(a).Error
}

func (r *AttachmentRepository) GetByID(id int64) (*attachment.Attachment, error) {
	var a attachment.Attachment
	if err := r.db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attachment.ErrAttachmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AttachmentRepository) ListByOwner(ownerType string, ownerID int64) ([]*attachment.Attachment, error) {
	var attachments []*attachment.Attachment
	err := r.db.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("created_at DESC").
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *AttachmentRepository) Update(a *attachment.Attachment) error {
	return r.db.Save(a).Error
}
