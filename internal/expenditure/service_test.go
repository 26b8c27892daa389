package expenditure_test

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/civicworks/revenue-tracker/internal/budget"
	"github.com/civicworks/revenue-tracker/internal/expenditure"
)

type mockExpenditureRepository struct {
	expenditures map[int64]*expenditure.Expenditure
	createError  error
	nextID       int64
}

func newMockExpenditureRepository() *mockExpenditureRepository {
	return &mockExpenditureRepository{
		expenditures: make(map[int64]*expenditure.Expenditure),
		nextID:       1,
	}
}

func (m *mockExpenditureRepository) Create(e *expenditure.Expenditure) error {
	if m.createError != nil {
		return m.createError
	}
	e.ID = m.nextID
	m.nextID++
	m.expenditures[e.ID] = e
	return nil
}

func (m *mockExpenditureRepository) GetByID(id int64) (*expenditure.Expenditure, error) {
	e, ok := m.expenditures[id]
	if !ok {
		return nil, errors.New("expenditure not found")
	}
	return e, nil
}

func (m *mockExpenditureRepository) List(mdaID, lineItemID int64, status string, limit, offset int) ([]*expenditure.Expenditure, error) {
	var out []*expenditure.Expenditure
	for _, e := range m.expenditures {
		if mdaID > 0 && e.MDAID != mdaID {
			continue
		}
		if lineItemID > 0 && e.LineItemID != lineItemID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockExpenditureRepository) Update(e *expenditure.Expenditure) error {
	m.expenditures[e.ID] = e
	return nil
}

type mockBudgetReader struct {
	lineItems map[int64]*budget.BudgetLineItem
	budgets   map[int64]*budget.Budget
}

func newMockBudgetReader() *mockBudgetReader {
	return &mockBudgetReader{
		lineItems: make(map[int64]*budget.BudgetLineItem),
		budgets:   make(map[int64]*budget.Budget),
	}
}

func (m *mockBudgetReader) GetLineItem(id int64) (*budget.BudgetLineItem, error) {
	li, ok := m.lineItems[id]
	if !ok {
		return nil, errors.New("line item not found")
	}
	return li, nil
}

func (m *mockBudgetReader) GetByID(id int64) (*budget.Budget, error) {
	b, ok := m.budgets[id]
	if !ok {
		return nil, errors.New("budget not found")
	}
	return b, nil
}

var _ = Describe("ExpenditureService", func() {
	var (
		service  *expenditure.Service
		mockRepo *mockExpenditureRepository
		budgets  *mockBudgetReader
	)

	BeforeEach(func() {
		mockRepo = newMockExpenditureRepository()
		budgets = newMockBudgetReader()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = expenditure.NewService(mockRepo, budgets, logger)

		budgets.budgets[5] = &budget.Budget{ID: 5, MDAID: 7, Status: budget.StatusPublished}
		budgets.lineItems[3] = &budget.BudgetLineItem{ID: 3, BudgetID: 5, Code: "P-01", Amount: 1000, Balance: 1000}
	})

	Describe("CreateExpenditure", func() {
		It("drafts an expenditure and resolves the MDA from the line item", func() {
			e, err := service.CreateExpenditure(42, expenditure.CreateExpenditureDTO{
				LineItemID:  3,
				Amount:      250,
				Description: "Office supplies",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(expenditure.StatusDraft))
			Expect(e.MDAID).To(Equal(int64(7)))
			Expect(e.RequestedBy).To(Equal(int64(42)))
		})

		It("rejects a non-positive amount", func() {
			_, err := service.CreateExpenditure(42, expenditure.CreateExpenditureDTO{
				LineItemID:  3,
				Amount:      0,
				Description: "Nothing",
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an overlong description", func() {
			_, err := service.CreateExpenditure(42, expenditure.CreateExpenditureDTO{
				LineItemID:  3,
				Amount:      10,
				Description: strings.Repeat("x", 501),
			})
			Expect(err).To(HaveOccurred())
		})

		It("fails for an unknown line item", func() {
			_, err := service.CreateExpenditure(42, expenditure.CreateExpenditureDTO{
				LineItemID:  999,
				Amount:      10,
				Description: "Missing bucket",
			})
			Expect(err).To(MatchError(budget.ErrLineItemNotFound))
		})
	})

	Describe("ListExpenditures", func() {
		It("filters by status", func() {
			for i, status := range []string{expenditure.StatusDraft, expenditure.StatusApproved, expenditure.StatusApproved} {
				Expect(mockRepo.Create(&expenditure.Expenditure{
					LineItemID: 3, MDAID: 7, RequestedBy: 42,
					Amount: int64(i + 1), Description: "d", Status: status,
				})).To(Succeed())
			}

			approved, err := service.ListExpenditures(0, 0, expenditure.StatusApproved, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved).To(HaveLen(2))
		})
	})
})
