package postgres

import (
	"errors"

	"github.com/civicworks/revenue-tracker/internal/retirement"
	"gorm.io/gorm"
)

type RetirementRepository struct {
	db *gorm.DB
}

func NewRetirementRepository(db *gorm.DB) *RetirementRepository {
	return &RetirementRepository{db: db}
}

func (r *RetirementRepository) Create(ret *retirement.ExpenditureRetirement) error {
	return r.db.Create(ret).Error
}

func (r *RetirementRepository) GetByID(id int64) (*retirement.ExpenditureRetirement, error) {
	var ret retirement.ExpenditureRetirement
	if err := r.db.First(&ret, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, retirement.ErrRetirementNotFound
		}
		return nil, err
	}
	return &ret, nil
}

func (r *RetirementRepository) GetByExpenditureID(expenditureID int64) (*retirement.ExpenditureRetirement, error) {
	var ret retirement.ExpenditureRetirement
	err := r.db.Where("expenditure_id = ?", expenditureID).First(&ret).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, retirement.ErrRetirementNotFound
		}
		return nil, err
	}
	return &ret, nil
}

func (r *RetirementRepository) List(status string, limit, offset int) ([]*retirement.ExpenditureRetirement, error) {
	q := r.db.Model(&retirement.ExpenditureRetirement{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var rets []*retirement.ExpenditureRetirement
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rets).Error; err != nil {
		return nil, err
	}
	return rets, nil
}

func (r *RetirementRepository) Update(ret *retirement.ExpenditureRetirement) error {
	return r.db.Save(ret).Error
}
