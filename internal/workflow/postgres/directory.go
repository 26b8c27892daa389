package postgres

import (
	"errors"

	"gorm.io/gorm"
)

// ApproverDirectory resolves the active user holding an approval role
// within an MDA. Where several users match, the longest-serving one wins
// so chains stay stable between submission and approval.
type ApproverDirectory struct{}

func NewApproverDirectory() *ApproverDirectory {
	return &ApproverDirectory{}
}

func (d *ApproverDirectory) FindApprover(tx *gorm.DB, role string, mdaID int64) (int64, bool, error) {
	var userID int64
	err := tx.Raw(`
		SELECT u.id
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE r.name = ? AND u.mda_id = ? AND u.is_active = true
		ORDER BY u.created_at ASC, u.id ASC
		LIMIT 1
	`, role, mdaID).Scan(&userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if userID == 0 {
		return 0, false, nil
	}
	return userID, true, nil
}
