package workflow

import (
	"github.com/civicworks/revenue-tracker/internal/auth"
	"gorm.io/gorm"
)

// Amount thresholds that pull higher tiers into the approver chain.
const (
	PermanentSecretaryThreshold = 1_000_000
	CommissionerThreshold       = 5_000_000
)

// DetermineApprovers builds the ordered approver chain for an entity: the
// MDA's director always when one exists, the permanent secretary above
// 1,000,000 and the commissioner above 5,000,000. Tiers with no matching
// user are skipped.
func DetermineApprovers(tx *gorm.DB, directory ApproverDirectory, mdaID, amount int64) ([]int64, error) {
	type tier struct {
		role     string
		required bool
	}

	tiers := []tier{
		{role: auth.RoleDirector, required: true},
		{role: auth.RolePermanentSecretary, required: amount > PermanentSecretaryThreshold},
		{role: auth.RoleCommissioner, required: amount > CommissionerThreshold},
	}

	var chain []int64
	for _, t := range tiers {
		if !t.required {
			continue
		}
		userID, found, err := directory.FindApprover(tx, t.role, mdaID)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		chain = append(chain, userID)
	}

	return chain, nil
}
