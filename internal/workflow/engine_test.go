package workflow_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/civicworks/revenue-tracker/internal/auth"
	"github.com/civicworks/revenue-tracker/internal/workflow"
	"gorm.io/gorm"
)

// mockTxRunner runs the callback directly; the nil tx is fine because all
// collaborators below ignore it.
type mockTxRunner struct{}

func (m *mockTxRunner) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	return fc(nil)
}

// mockStore keeps entity state in memory and mirrors the persistence
// transitions the real stores perform.
type mockStore struct {
	kind        workflow.EntityKind
	entities    map[int64]*workflow.EntityState
	validateErr error
	loadErr     error
}

func newMockStore(kind workflow.EntityKind) *mockStore {
	return &mockStore{
		kind:     kind,
		entities: make(map[int64]*workflow.EntityState),
	}
}

func (m *mockStore) add(st *workflow.EntityState) {
	m.entities[st.ID] = st
}

func (m *mockStore) Kind() workflow.EntityKind {
	return m.kind
}

func (m *mockStore) Load(tx *gorm.DB, id int64) (*workflow.EntityState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	st, ok := m.entities[id]
	if !ok {
		return nil, errors.New("entity not found")
	}
	copied := *st
	return &copied, nil
}

func (m *mockStore) ValidateSubmit(tx *gorm.DB, st *workflow.EntityState) error {
	return m.validateErr
}

func (m *mockStore) MarkPending(tx *gorm.DB, st *workflow.EntityState, approverID, userID int64) error {
	stored := m.entities[st.ID]
	stored.Status = workflow.StatusPendingApproval
	stored.CurrentApproverID = &approverID
	stored.CurrentStep = 0
	stored.SubmittedBy = &userID
	*st = *stored
	return nil
}

func (m *mockStore) Advance(tx *gorm.DB, st *workflow.EntityState, approverID int64, step int) error {
	stored := m.entities[st.ID]
	stored.CurrentApproverID = &approverID
	stored.CurrentStep = step
	*st = *stored
	return nil
}

func (m *mockStore) FinalizeApprove(tx *gorm.DB, st *workflow.EntityState, userID int64) error {
	stored := m.entities[st.ID]
	stored.Status = workflow.StatusApproved
	stored.CurrentApproverID = nil
	*st = *stored
	return nil
}

func (m *mockStore) MarkRejected(tx *gorm.DB, st *workflow.EntityState, userID int64, reason string) error {
	stored := m.entities[st.ID]
	stored.Status = workflow.StatusRejected
	stored.CurrentApproverID = nil
	*st = *stored
	return nil
}

type mockHistoryRepo struct {
	rows      []*workflow.ApprovalHistory
	createErr error
	nextID    int64
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{nextID: 1}
}

func (m *mockHistoryRepo) Create(tx *gorm.DB, h *workflow.ApprovalHistory) error {
	if m.createErr != nil {
		return m.createErr
	}
	h.ID = m.nextID
	m.nextID++
	m.rows = append(m.rows, h)
	return nil
}

func (m *mockHistoryRepo) LatestSubmission(tx *gorm.DB, kind workflow.EntityKind, entityID int64) (*workflow.ApprovalHistory, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		h := m.rows[i]
		if h.EntityType == string(kind) && h.EntityID == entityID && h.Action == workflow.ActionSubmitted {
			return h, nil
		}
	}
	return nil, nil
}

func (m *mockHistoryRepo) List(kind workflow.EntityKind, entityID int64, limit, offset int) ([]*workflow.ApprovalHistory, error) {
	var out []*workflow.ApprovalHistory
	for i := len(m.rows) - 1; i >= 0; i-- {
		h := m.rows[i]
		if h.EntityType == string(kind) && h.EntityID == entityID {
			out = append(out, h)
		}
	}
	return out, nil
}

// mockDirectory maps role name to user ID; missing roles report not found.
type mockDirectory struct {
	byRole map[string]int64
	err    error
}

func (m *mockDirectory) FindApprover(tx *gorm.DB, role string, mdaID int64) (int64, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	id, ok := m.byRole[role]
	return id, ok, nil
}

const (
	directorID = int64(10)
	permSecID  = int64(20)
	commishID  = int64(30)
	officerID  = int64(99)
)

var _ = Describe("Engine", func() {
	var (
		engine    *workflow.Engine
		store     *mockStore
		history   *mockHistoryRepo
		directory *mockDirectory
		ctx       context.Context
	)

	newEngine := func() *workflow.Engine {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		return workflow.NewEngine(&mockTxRunner{}, history, directory, nil, logger, store)
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = newMockStore(workflow.KindBudget)
		history = newMockHistoryRepo()
		directory = &mockDirectory{byRole: map[string]int64{
			auth.RoleDirector:           directorID,
			auth.RolePermanentSecretary: permSecID,
			auth.RoleCommissioner:       commishID,
		}}
		engine = newEngine()
	})

	draftBudget := func(id, amount int64) {
		store.add(&workflow.EntityState{
			ID:     id,
			MDAID:  1,
			Amount: amount,
			Status: workflow.StatusDraft,
		})
	}

	Describe("SubmitForApproval", func() {
		It("builds a single-step chain when only the director tier applies", func() {
			directory.byRole = map[string]int64{auth.RoleDirector: directorID}
			draftBudget(1, 2_000_000)

			result, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Entity.Status).To(Equal(workflow.StatusPendingApproval))
			Expect(result.Entity.CurrentStep).To(Equal(0))
			Expect(*result.Entity.CurrentApproverID).To(Equal(directorID))

			var meta workflow.ChainMetadata
			Expect(json.Unmarshal(result.History.Metadata, &meta)).To(Succeed())
			Expect(meta.ApproverIDs).To(Equal([]int64{directorID}))
		})

		It("includes all three tiers above the commissioner threshold", func() {
			draftBudget(1, 6_000_000)

			result, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).NotTo(HaveOccurred())

			var meta workflow.ChainMetadata
			Expect(json.Unmarshal(result.History.Metadata, &meta)).To(Succeed())
			Expect(meta.ApproverIDs).To(Equal([]int64{directorID, permSecID, commishID}))
		})

		It("skips the permanent secretary tier when the MDA has none", func() {
			directory.byRole = map[string]int64{
				auth.RoleDirector:     directorID,
				auth.RoleCommissioner: commishID,
			}
			draftBudget(1, 6_000_000)

			result, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).NotTo(HaveOccurred())

			var meta workflow.ChainMetadata
			Expect(json.Unmarshal(result.History.Metadata, &meta)).To(Succeed())
			Expect(meta.ApproverIDs).To(Equal([]int64{directorID, commishID}))
		})

		It("excludes higher tiers at or below their thresholds", func() {
			draftBudget(1, 1_000_000)

			result, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).NotTo(HaveOccurred())

			var meta workflow.ChainMetadata
			Expect(json.Unmarshal(result.History.Metadata, &meta)).To(Succeed())
			Expect(meta.ApproverIDs).To(Equal([]int64{directorID}))
		})

		It("fails when no approver tier resolves", func() {
			directory.byRole = map[string]int64{}
			draftBudget(1, 500_000)

			_, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).To(MatchError(workflow.ErrNoApproversFound))
		})

		It("rejects a second submission while pending", func() {
			draftBudget(1, 500_000)
			_, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).To(MatchError(workflow.ErrAlreadyPending))
		})

		It("rejects submission of an approved entity", func() {
			store.add(&workflow.EntityState{ID: 1, MDAID: 1, Amount: 100, Status: workflow.StatusApproved})

			_, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).To(MatchError(workflow.ErrAlreadyFinal))
		})

		It("allows resubmission after rejection", func() {
			store.add(&workflow.EntityState{ID: 1, MDAID: 1, Amount: 100, Status: workflow.StatusRejected})

			result, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Entity.Status).To(Equal(workflow.StatusPendingApproval))
		})

		It("propagates store validation failures", func() {
			draftBudget(1, 500_000)
			store.validateErr = errors.New("no line items")

			_, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).To(MatchError(store.validateErr))
		})

		It("fails for an unregistered entity kind", func() {
			_, err := engine.SubmitForApproval(ctx, workflow.KindExpenditure, 1, officerID)
			Expect(err).To(MatchError(workflow.ErrUnknownKind))
		})
	})

	Describe("Approve", func() {
		BeforeEach(func() {
			draftBudget(1, 6_000_000)
			_, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("walks the chain sequentially and finalizes on the last step", func() {
			result, err := engine.Approve(ctx, workflow.KindBudget, 1, directorID, workflow.ActionOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Entity.Status).To(Equal(workflow.StatusPendingApproval))
			Expect(result.Entity.CurrentStep).To(Equal(1))
			Expect(*result.Entity.CurrentApproverID).To(Equal(permSecID))

			result, err = engine.Approve(ctx, workflow.KindBudget, 1, permSecID, workflow.ActionOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Entity.Status).To(Equal(workflow.StatusPendingApproval))
			Expect(result.Entity.CurrentStep).To(Equal(2))
			Expect(*result.Entity.CurrentApproverID).To(Equal(commishID))

			result, err = engine.Approve(ctx, workflow.KindBudget, 1, commishID, workflow.ActionOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Entity.Status).To(Equal(workflow.StatusApproved))
			Expect(result.Entity.CurrentApproverID).To(BeNil())
		})

		It("refuses anyone but the current approver", func() {
			_, err := engine.Approve(ctx, workflow.KindBudget, 1, permSecID, workflow.ActionOptions{})
			Expect(err).To(MatchError(workflow.ErrNotCurrentApprover))
		})

		It("refuses approval of an already approved entity", func() {
			for _, approver := range []int64{directorID, permSecID, commishID} {
				_, err := engine.Approve(ctx, workflow.KindBudget, 1, approver, workflow.ActionOptions{})
				Expect(err).NotTo(HaveOccurred())
			}

			_, err := engine.Approve(ctx, workflow.KindBudget, 1, commishID, workflow.ActionOptions{})
			Expect(err).To(MatchError(workflow.ErrAlreadyFinal))
		})

		It("replays the chain frozen at submission even if the directory changed", func() {
			// a new permanent secretary is appointed mid-flight
			directory.byRole[auth.RolePermanentSecretary] = int64(999)

			result, err := engine.Approve(ctx, workflow.KindBudget, 1, directorID, workflow.ActionOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(*result.Entity.CurrentApproverID).To(Equal(permSecID))
		})

		It("records one history row per approval with the acted step", func() {
			_, err := engine.Approve(ctx, workflow.KindBudget, 1, directorID, workflow.ActionOptions{Comment: "ok"})
			Expect(err).NotTo(HaveOccurred())

			rows, err := engine.History(workflow.KindBudget, 1, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Action).To(Equal(workflow.ActionApproved))
			Expect(rows[0].Step).To(Equal(0))
			Expect(rows[0].Comment).To(Equal("ok"))
		})
	})

	Describe("Reject", func() {
		BeforeEach(func() {
			draftBudget(1, 2_000_000)
			_, err := engine.SubmitForApproval(ctx, workflow.KindBudget, 1, officerID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets the current approver reject with a reason", func() {
			result, err := engine.Reject(ctx, workflow.KindBudget, 1, directorID, workflow.ActionOptions{Reason: "over allocation"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Entity.Status).To(Equal(workflow.StatusRejected))
			Expect(result.History.Comment).To(Equal("over allocation"))
		})

		It("refuses rejection by someone else without the admin override", func() {
			_, err := engine.Reject(ctx, workflow.KindBudget, 1, officerID, workflow.ActionOptions{})
			Expect(err).To(MatchError(workflow.ErrNotCurrentApprover))
		})

		It("allows an admin override rejection", func() {
			result, err := engine.Reject(ctx, workflow.KindBudget, 1, officerID, workflow.ActionOptions{AdminOverride: true, Reason: "withdrawn"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Entity.Status).To(Equal(workflow.StatusRejected))
		})

		It("refuses rejection of a terminal entity", func() {
			_, err := engine.Reject(ctx, workflow.KindBudget, 1, directorID, workflow.ActionOptions{Reason: "x"})
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.Reject(ctx, workflow.KindBudget, 1, directorID, workflow.ActionOptions{Reason: "again"})
			Expect(err).To(MatchError(workflow.ErrAlreadyFinal))
		})
	})
})
