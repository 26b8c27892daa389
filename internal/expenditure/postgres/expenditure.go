package postgres

import (
	"time"

	"github.com/civicworks/revenue-tracker/internal/expenditure"
	"gorm.io/gorm"
)

// ExpenditureRepository implements the expenditure.Repository interface using GORM
type ExpenditureRepository struct {
	db *gorm.DB
}

func NewExpenditureRepository(db *gorm.DB) expenditure.Repository {
	return &ExpenditureRepository{db: db}
}

func (r *ExpenditureRepository) Create(e *expenditure.Expenditure) error {
	return r.db.Create(e).Error
}

func (r *ExpenditureRepository) GetByID(id int64) (*expenditure.Expenditure, error) {
	var e expenditure.Expenditure
	err := r.db.Where("id = ?", id).First(&e).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, expenditure.ErrExpenditureNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *ExpenditureRepository) List(mdaID, lineItemID int64, status string, limit, offset int) ([]*expenditure.Expenditure, error) {
	query := r.db.Model(&expenditure.Expenditure{})
	if mdaID > 0 {
		query = query.Where("mda_id = ?", mdaID)
	}
	if lineItemID > 0 {
		query = query.Where("line_item_id = ?", lineItemID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var expenditures []*expenditure.Expenditure
	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&expenditures).Error
	return expenditures, err
}

func (r *ExpenditureRepository) Update(e *expenditure.Expenditure) error {
	e.UpdatedAt = time.Now()
	return r.db.Save(e).Error
}
