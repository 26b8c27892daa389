package postgres

import (
	"time"

	"github.com/civicworks/revenue-tracker/internal/mda"
	"gorm.io/gorm"
)

// MDARepository implements the mda.Repository interface using GORM
type MDARepository struct {
	db *gorm.DB
}

func NewMDARepository(db *gorm.DB) mda.Repository {
	return &MDARepository{db: db}
}

func (r *MDARepository) Create(m *mda.MDA) error {
	return r.db.Create(m).Error
}

func (r *MDARepository) GetByID(id int64) (*mda.MDA, error) {
	var m mda.MDA
	err := r.db.Where("id = ?", id).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, mda.ErrMDANotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MDARepository) GetByCode(code string) (*mda.MDA, error) {
	var m mda.MDA
	err := r.db.Where("code = ?", code).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, mda.ErrMDANotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MDARepository) List(limit, offset int) ([]*mda.MDA, error) {
	var mdas []*mda.MDA
	err := r.db.Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&mdas).Error
	return mdas, err
}

func (r *MDARepository) Update(m *mda.MDA) error {
	m.UpdatedAt = time.Now()
	return r.db.Save(m).Error
}

func (r *MDARepository) Deactivate(id int64) error {
	return r.db.Model(&mda.MDA{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}
