package user_test

import (
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/civicworks/revenue-tracker/internal/user"
)

type mockUserRepository struct {
	users   map[int64]*user.User
	byEmail map[string]*user.User
	roles   map[int64][]string
	nextID  int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:   make(map[int64]*user.User),
		byEmail: make(map[string]*user.User),
		roles:   make(map[int64][]string),
		nextID:  1,
	}
}

func (m *mockUserRepository) Create(u *user.User) error {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *mockUserRepository) GetByID(id int64) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByEmail(email string) (*user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) List(mdaID int64, limit, offset int) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.users {
		if mdaID > 0 && (u.MDAID == nil || *u.MDAID != mdaID) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepository) Update(u *user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) ReplaceRoles(userID int64, roles []string) error {
	for _, r := range roles {
		if r == "no_such_role" {
			return user.ErrUnknownRole
		}
	}
	m.roles[userID] = roles
	return nil
}

func (m *mockUserRepository) RolesFor(userID int64) ([]string, error) {
	return m.roles[userID], nil
}

type mockHasher struct{}

func (mockHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

var _ = Describe("UserService", func() {
	var (
		repo    *mockUserRepository
		service *user.Service
	)

	BeforeEach(func() {
		repo = newMockUserRepository()
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		service = user.NewService(repo, mockHasher{}, logger)
	})

	Describe("CreateUser", func() {
		It("hashes the password and assigns roles", func() {
			mdaID := int64(3)
			u, err := service.CreateUser(user.CreateUserDTO{
				Email:    "director@mof.gov",
				Name:     "Ada Obi",
				Password: "s3cure-pass",
				MDAID:    &mdaID,
				Roles:    []string{"director"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(u.PasswordHash).To(Equal("hashed:s3cure-pass"))
			Expect(u.IsActive).To(BeTrue())
			Expect(u.Roles).To(Equal([]string{"director"}))
			Expect(repo.roles[u.ID]).To(Equal([]string{"director"}))
		})

		It("rejects a duplicate email", func() {
			_, err := service.CreateUser(user.CreateUserDTO{
				Email:    "officer@mof.gov",
				Name:     "First",
				Password: "password1",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateUser(user.CreateUserDTO{
				Email:    "officer@mof.gov",
				Name:     "Second",
				Password: "password2",
			})
			Expect(err).To(MatchError(user.ErrEmailTaken))
		})

		It("rejects a short password", func() {
			_, err := service.CreateUser(user.CreateUserDTO{
				Email:    "officer@mof.gov",
				Name:     "Officer",
				Password: "short",
			})
			Expect(err).To(HaveOccurred())
		})

		It("fails on an unknown role name", func() {
			_, err := service.CreateUser(user.CreateUserDTO{
				Email:    "officer@mof.gov",
				Name:     "Officer",
				Password: "password1",
				Roles:    []string{"no_such_role"},
			})
			Expect(err).To(MatchError(user.ErrUnknownRole))
		})
	})

	Describe("GetUser", func() {
		It("loads roles alongside the record", func() {
			u, err := service.CreateUser(user.CreateUserDTO{
				Email:    "ps@mof.gov",
				Name:     "PS",
				Password: "password1",
				Roles:    []string{"permanent_secretary"},
			})
			Expect(err).NotTo(HaveOccurred())

			got, err := service.GetUser(u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Roles).To(Equal([]string{"permanent_secretary"}))
		})

		It("returns not found for a missing id", func() {
			_, err := service.GetUser(999)
			Expect(err).To(MatchError(user.ErrUserNotFound))
		})
	})

	Describe("UpdateUser", func() {
		It("applies partial updates and replaces roles", func() {
			u, err := service.CreateUser(user.CreateUserDTO{
				Email:    "officer@mof.gov",
				Name:     "Officer",
				Password: "password1",
				Roles:    []string{"officer"},
			})
			Expect(err).NotTo(HaveOccurred())

			newName := "Senior Officer"
			inactive := false
			roles := []string{"officer", "budget_manager"}
			got, err := service.UpdateUser(u.ID, user.UpdateUserDTO{
				Name:     &newName,
				IsActive: &inactive,
				Roles:    &roles,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Senior Officer"))
			Expect(got.IsActive).To(BeFalse())
			Expect(got.Roles).To(Equal(roles))
		})

		It("keeps existing roles when none are supplied", func() {
			u, err := service.CreateUser(user.CreateUserDTO{
				Email:    "officer@mof.gov",
				Name:     "Officer",
				Password: "password1",
				Roles:    []string{"officer"},
			})
			Expect(err).NotTo(HaveOccurred())

			newName := "Renamed"
			got, err := service.UpdateUser(u.ID, user.UpdateUserDTO{Name: &newName})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Roles).To(Equal([]string{"officer"}))
		})
	})
})
