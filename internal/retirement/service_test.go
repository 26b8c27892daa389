package retirement_test

import (
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/civicworks/revenue-tracker/internal/expenditure"
	"github.com/civicworks/revenue-tracker/internal/retirement"
)

type mockRetirementRepository struct {
	retirements   map[int64]*retirement.ExpenditureRetirement
	byExpenditure map[int64]*retirement.ExpenditureRetirement
	nextID        int64
}

func newMockRetirementRepository() *mockRetirementRepository {
	return &mockRetirementRepository{
		retirements:   make(map[int64]*retirement.ExpenditureRetirement),
		byExpenditure: make(map[int64]*retirement.ExpenditureRetirement),
		nextID:        1,
	}
}

func (m *mockRetirementRepository) Create(r *retirement.ExpenditureRetirement) error {
	r.ID = m.nextID
	m.nextID++
	m.retirements[r.ID] = r
	m.byExpenditure[r.ExpenditureID] = r
	return nil
}

func (m *mockRetirementRepository) GetByID(id int64) (*retirement.ExpenditureRetirement, error) {
	r, ok := m.retirements[id]
	if !ok {
		return nil, retirement.ErrRetirementNotFound
	}
	return r, nil
}

func (m *mockRetirementRepository) GetByExpenditureID(expenditureID int64) (*retirement.ExpenditureRetirement, error) {
	r, ok := m.byExpenditure[expenditureID]
	if !ok {
		return nil, retirement.ErrRetirementNotFound
	}
	return r, nil
}

func (m *mockRetirementRepository) List(status string, limit, offset int) ([]*retirement.ExpenditureRetirement, error) {
	var out []*retirement.ExpenditureRetirement
	for _, r := range m.retirements {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRetirementRepository) Update(r *retirement.ExpenditureRetirement) error {
	m.retirements[r.ID] = r
	return nil
}

type mockExpenditureReader struct {
	expenditures map[int64]*expenditure.Expenditure
}

func (m *mockExpenditureReader) GetByID(id int64) (*expenditure.Expenditure, error) {
	e, ok := m.expenditures[id]
	if !ok {
		return nil, errors.New("expenditure not found")
	}
	return e, nil
}

var _ = Describe("RetirementService", func() {
	var (
		service      *retirement.Service
		mockRepo     *mockRetirementRepository
		expenditures *mockExpenditureReader
	)

	const reviewerID = int64(77)

	BeforeEach(func() {
		mockRepo = newMockRetirementRepository()
		expenditures = &mockExpenditureReader{expenditures: map[int64]*expenditure.Expenditure{
			1: {ID: 1, Amount: 1000, Status: expenditure.StatusApproved},
			2: {ID: 2, Amount: 500, Status: expenditure.StatusDraft},
		}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = retirement.NewService(mockRepo, expenditures, logger)
	})

	createDraft := func(amount int64) *retirement.ExpenditureRetirement {
		r, err := service.CreateRetirement(retirement.CreateRetirementDTO{ExpenditureID: 1, AmountRetired: amount}, 42)
		Expect(err).NotTo(HaveOccurred())
		return r
	}

	Describe("CreateRetirement", func() {
		It("opens a draft with the unretired balance computed", func() {
			r := createDraft(600)
			Expect(r.Status).To(Equal(retirement.StatusDraft))
			Expect(r.BalanceUnretired).To(Equal(int64(400)))
		})

		It("refuses a retired amount above the expenditure amount", func() {
			_, err := service.CreateRetirement(retirement.CreateRetirementDTO{ExpenditureID: 1, AmountRetired: 1001}, 42)
			Expect(err).To(MatchError(retirement.ErrOverRetirement))
		})

		It("allows retiring the full expenditure amount", func() {
			r := createDraft(1000)
			Expect(r.BalanceUnretired).To(Equal(int64(0)))
		})

		It("refuses retirement of an unapproved expenditure", func() {
			_, err := service.CreateRetirement(retirement.CreateRetirementDTO{ExpenditureID: 2, AmountRetired: 100}, 42)
			Expect(err).To(MatchError(retirement.ErrInvalidTransition))
		})

		It("refuses a second retirement for the same expenditure", func() {
			createDraft(100)
			_, err := service.CreateRetirement(retirement.CreateRetirementDTO{ExpenditureID: 1, AmountRetired: 200}, 42)
			Expect(err).To(MatchError(retirement.ErrAlreadyRetired))
		})
	})

	Describe("UpdateRetirement", func() {
		It("re-checks the over-retirement invariant on update", func() {
			r := createDraft(100)

			tooMuch := int64(1200)
			_, err := service.UpdateRetirement(r.ID, retirement.UpdateRetirementDTO{AmountRetired: &tooMuch})
			Expect(err).To(MatchError(retirement.ErrOverRetirement))

			ok := int64(900)
			updated, err := service.UpdateRetirement(r.ID, retirement.UpdateRetirementDTO{AmountRetired: &ok})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.AmountRetired).To(Equal(int64(900)))
			Expect(updated.BalanceUnretired).To(Equal(int64(100)))
		})

		It("refuses updates after submission", func() {
			r := createDraft(100)
			_, err := service.SubmitRetirement(r.ID, 42)
			Expect(err).NotTo(HaveOccurred())

			amount := int64(200)
			_, err = service.UpdateRetirement(r.ID, retirement.UpdateRetirementDTO{AmountRetired: &amount})
			Expect(err).To(MatchError(retirement.ErrInvalidTransition))
		})
	})

	Describe("status transitions", func() {
		It("walks draft, submitted, under review, approved, completed", func() {
			r := createDraft(100)

			r, err := service.SubmitRetirement(r.ID, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Status).To(Equal(retirement.StatusSubmitted))

			r, err = service.ReviewRetirement(r.ID, reviewerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Status).To(Equal(retirement.StatusUnderReview))
			Expect(*r.ReviewedBy).To(Equal(reviewerID))

			r, err = service.ApproveRetirement(r.ID, reviewerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Status).To(Equal(retirement.StatusApproved))

			r, err = service.CompleteRetirement(r.ID, reviewerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Status).To(Equal(retirement.StatusCompleted))
			Expect(r.CompletedAt).NotTo(BeNil())
		})

		It("refuses skipping review", func() {
			r := createDraft(100)
			_, err := service.SubmitRetirement(r.ID, 42)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ApproveRetirement(r.ID, reviewerID)
			Expect(err).To(MatchError(retirement.ErrInvalidTransition))
		})

		It("refuses completing an unapproved retirement", func() {
			r := createDraft(100)
			_, err := service.CompleteRetirement(r.ID, reviewerID)
			Expect(err).To(MatchError(retirement.ErrInvalidTransition))
		})
	})

	Describe("RejectRetirement", func() {
		It("requires a reason", func() {
			r := createDraft(100)
			_, err := service.SubmitRetirement(r.ID, 42)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RejectRetirement(r.ID, reviewerID, "")
			Expect(err).To(MatchError(retirement.ErrReasonRequired))
		})

		It("records the reason and reviewer", func() {
			r := createDraft(100)
			_, err := service.SubmitRetirement(r.ID, 42)
			Expect(err).NotTo(HaveOccurred())

			rejected, err := service.RejectRetirement(r.ID, reviewerID, "receipts missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(retirement.StatusRejected))
			Expect(rejected.RejectionReason).To(Equal("receipts missing"))
			Expect(*rejected.ReviewedBy).To(Equal(reviewerID))
		})
	})
})
