package postgres

import (
	"errors"

	"github.com/civicworks/revenue-tracker/internal/workflow"
	"gorm.io/gorm"
)

// HistoryRepository persists approval history rows. Writes take the
// engine's transaction; reads outside a workflow call use the base handle.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(tx *gorm.DB, h *workflow.ApprovalHistory) error {
	return tx.Create(h).Error
}

func (r *HistoryRepository) LatestSubmission(tx *gorm.DB, kind workflow.EntityKind, entityID int64) (*workflow.ApprovalHistory, error) {
	var h workflow.ApprovalHistory
	err := tx.Where("entity_type = ? AND entity_id = ? AND action = ?", string(kind), entityID, workflow.ActionSubmitted).
		Order("created_at DESC, id DESC").
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (r *HistoryRepository) List(kind workflow.EntityKind, entityID int64, limit, offset int) ([]*workflow.ApprovalHistory, error) {
	var rows []*workflow.ApprovalHistory
	err := r.db.Where("entity_type = ? AND entity_id = ?", string(kind), entityID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
