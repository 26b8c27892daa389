package auth_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicworks/revenue-tracker/internal/auth"
)

type mockUserRepository struct {
	passwordHash string
	userID       int64
	isActive     bool
	credsErr     error
	user         *auth.ContextUser
	userErr      error
}

func (m *mockUserRepository) GetCredentialsByEmail(email string) (string, int64, bool, error) {
	if m.credsErr != nil {
		return "", 0, false, m.credsErr
	}
	return m.passwordHash, m.userID, m.isActive, nil
}

func (m *mockUserRepository) GetUserWithPermissions(userID int64) (*auth.ContextUser, error) {
	if m.userErr != nil {
		return nil, m.userErr
	}
	return m.user, nil
}

var _ = Describe("AuthService", func() {
	var (
		service  *auth.Service
		mockRepo *mockUserRepository
	)

	const password = "correct-horse"

	BeforeEach(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())

		mockRepo = &mockUserRepository{
			passwordHash: string(hash),
			userID:       42,
			isActive:     true,
		}
		tokenGen := auth.NewJWTTokenGenerator(
			"test-access-secret-0123456789abcdefgh",
			"test-refresh-secret-0123456789abcdefg",
			15*time.Minute,
			7*24*time.Hour,
		)
		service = auth.NewService(mockRepo, tokenGen, bcrypt.MinCost)
	})

	Describe("Authenticate", func() {
		It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "user@mof.gov", Password: password})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("42"))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "user@mof.gov", Password: "wrong"})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("rejects an unknown email without leaking existence", func() {
			mockRepo.credsErr = errors.New("not found")
			_, err := service.Authenticate(auth.LoginDTO{Email: "ghost@mof.gov", Password: password})
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("rejects an inactive account", func() {
			mockRepo.isActive = false
			_, err := service.Authenticate(auth.LoginDTO{Email: "user@mof.gov", Password: password})
			Expect(err).To(MatchError(auth.ErrUserInactive))
		})
	})

	Describe("RefreshTokens", func() {
		It("issues a fresh pair from a valid refresh token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "user@mof.gov", Password: password})
			Expect(err).NotTo(HaveOccurred())

			refreshed, err := service.RefreshTokens(tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed.AccessToken).NotTo(BeEmpty())
		})

		It("rejects garbage tokens", func() {
			_, err := service.RefreshTokens("not-a-token")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("HashPassword", func() {
		It("produces a verifiable bcrypt hash", func() {
			hash, err := service.HashPassword("secret-value")
			Expect(err).NotTo(HaveOccurred())
			Expect(bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret-value"))).To(Succeed())
		})
	})
})

var _ = Describe("ContextUser", func() {
	It("grants admins everything via IsAdmin", func() {
		u := &auth.ContextUser{Roles: []string{auth.RoleAdmin}}
		Expect(u.IsAdmin()).To(BeTrue())
	})

	It("checks permissions by name", func() {
		u := &auth.ContextUser{Permissions: []string{auth.PermSubmitBudgets}}
		Expect(u.HasPermission(auth.PermSubmitBudgets)).To(BeTrue())
		Expect(u.HasPermission(auth.PermApproveBudgets)).To(BeFalse())
	})
})
