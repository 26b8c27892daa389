package workflow_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/civicworks/revenue-tracker/internal/budget"
	"github.com/civicworks/revenue-tracker/internal/expenditure"
	"github.com/civicworks/revenue-tracker/internal/workflow"
)

// SQLite mirrors of the tables the entity stores touch, without the
// Postgres column defaults.
type SQLiteBudgetLineItem struct {
	ID        int64  `gorm:"primaryKey"`
	BudgetID  int64  `gorm:"column:budget_id;not null"`
	Code      string `gorm:"not null"`
	Name      string `gorm:"not null"`
	Category  string `gorm:"not null"`
	Amount    int64  `gorm:"not null"`
	Balance   int64
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SQLiteBudgetLineItem) TableName() string {
	return "budget_line_items"
}

type SQLiteExpenditure struct {
	ID                int64  `gorm:"primaryKey"`
	LineItemID        int64  `gorm:"column:line_item_id;not null"`
	MDAID             int64  `gorm:"column:mda_id;not null"`
	RequestedBy       int64  `gorm:"column:requested_by;not null"`
	Amount            int64  `gorm:"not null"`
	Description       string `gorm:"not null"`
	Status            string
	CurrentApproverID *int64 `gorm:"column:current_approver_id"`
	CurrentStep       int    `gorm:"column:current_step"`
	SubmittedAt       *time.Time
	SubmittedBy       *int64
	ApprovedAt        *time.Time
	ApprovedBy        *int64
	RejectedAt        *time.Time
	RejectedBy        *int64
	RejectionReason   string    `gorm:"column:rejection_reason"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (SQLiteExpenditure) TableName() string {
	return "expenditures"
}

var _ = Describe("ExpenditureStore", func() {
	var (
		db    *gorm.DB
		store *workflow.ExpenditureStore
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteBudgetLineItem{}, &SQLiteExpenditure{})
		Expect(err).NotTo(HaveOccurred())

		store = workflow.NewExpenditureStore()
	})

	seedLineItem := func(amount int64) int64 {
		now := time.Now()
		li := &budget.BudgetLineItem{
			BudgetID:  1,
			Code:      "P-01",
			Name:      "Salaries",
			Category:  budget.CategoryPersonnel,
			Amount:    amount,
			Balance:   amount,
			CreatedAt: now,
			UpdatedAt: now,
		}
		Expect(db.Create(li).Error).To(Succeed())
		return li.ID
	}

	seedExpenditure := func(lineItemID, amount int64, status string) *expenditure.Expenditure {
		now := time.Now()
		e := &expenditure.Expenditure{
			LineItemID:  lineItemID,
			MDAID:       1,
			RequestedBy: 7,
			Amount:      amount,
			Description: "office supplies",
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		Expect(db.Create(e).Error).To(Succeed())
		return e
	}

	Describe("ValidateSubmit", func() {
		It("rejects an amount above the live balance", func() {
			liID := seedLineItem(100)
			seedExpenditure(liID, 60, workflow.StatusApproved)
			e := seedExpenditure(liID, 150, workflow.StatusDraft)

			st, err := store.Load(db, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.ValidateSubmit(db, st)).To(MatchError(expenditure.ErrInsufficientBalance))
		})

		It("accepts an amount equal to the live balance", func() {
			liID := seedLineItem(100)
			seedExpenditure(liID, 60, workflow.StatusApproved)
			e := seedExpenditure(liID, 40, workflow.StatusDraft)

			st, err := store.Load(db, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.ValidateSubmit(db, st)).To(Succeed())
		})

		It("checks against the approved sum, not the cached balance", func() {
			liID := seedLineItem(100)
			seedExpenditure(liID, 60, workflow.StatusApproved)
			// Stale cache pretending nothing was spent.
			Expect(db.Model(&budget.BudgetLineItem{}).Where("id = ?", liID).
				Update("balance", 100).Error).To(Succeed())
			e := seedExpenditure(liID, 50, workflow.StatusDraft)

			st, err := store.Load(db, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.ValidateSubmit(db, st)).To(MatchError(expenditure.ErrInsufficientBalance))
		})
	})

	Describe("FinalizeApprove", func() {
		It("approves the expenditure and refreshes the cached balance", func() {
			liID := seedLineItem(100)
			seedExpenditure(liID, 60, workflow.StatusApproved)
			e := seedExpenditure(liID, 40, workflow.StatusPendingApproval)

			st, err := store.Load(db, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.FinalizeApprove(db, st, 77)).To(Succeed())
			Expect(st.Status).To(Equal(workflow.StatusApproved))

			var got expenditure.Expenditure
			Expect(db.First(&got, e.ID).Error).To(Succeed())
			Expect(got.Status).To(Equal(workflow.StatusApproved))
			Expect(got.ApprovedBy).NotTo(BeNil())
			Expect(*got.ApprovedBy).To(Equal(int64(77)))

			var item budget.BudgetLineItem
			Expect(db.First(&item, liID).Error).To(Succeed())
			Expect(item.Balance).To(Equal(int64(0)))
		})

		It("re-checks the balance when approvals landed after submission", func() {
			liID := seedLineItem(100)
			// Fit at submission time, overdrawn by the time the chain
			// completes.
			e := seedExpenditure(liID, 80, workflow.StatusPendingApproval)
			seedExpenditure(liID, 60, workflow.StatusApproved)

			st, err := store.Load(db, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.FinalizeApprove(db, st, 77)).To(MatchError(expenditure.ErrInsufficientBalance))

			var got expenditure.Expenditure
			Expect(db.First(&got, e.ID).Error).To(Succeed())
			Expect(got.Status).To(Equal(workflow.StatusPendingApproval))
		})
	})
})

var _ = Describe("BudgetStore", func() {
	var (
		db    *gorm.DB
		store *workflow.BudgetStore
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteBudgetLineItem{})
		Expect(err).NotTo(HaveOccurred())

		store = workflow.NewBudgetStore()
	})

	Describe("ValidateSubmit", func() {
		It("refuses a budget with no line items", func() {
			st := &workflow.EntityState{ID: 42}
			Expect(store.ValidateSubmit(db, st)).To(MatchError(budget.ErrNoLineItems))
		})

		It("accepts a budget holding at least one line item", func() {
			now := time.Now()
			li := &budget.BudgetLineItem{
				BudgetID:  42,
				Code:      "P-01",
				Name:      "Salaries",
				Category:  budget.CategoryPersonnel,
				Amount:    100,
				Balance:   100,
				CreatedAt: now,
				UpdatedAt: now,
			}
			Expect(db.Create(li).Error).To(Succeed())

			st := &workflow.EntityState{ID: 42}
			Expect(store.ValidateSubmit(db, st)).To(Succeed())
		})
	})
})
