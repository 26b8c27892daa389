package auth

import (
	"context"

	"github.com/civicworks/revenue-tracker/internal"
	"github.com/golang-jwt/jwt/v5"
)

// ContextUser is the authenticated principal placed on the request context
// by the auth middleware.
type ContextUser struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	MDAID       *int64   `json:"mda_id,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (u *ContextUser) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *ContextUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *ContextUser) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// Role names. Director, permanent secretary and commissioner are the
// approval chain tiers; the rest are operational roles.
const (
	RoleAdmin              = "admin"
	RoleCommissioner       = "commissioner"
	RolePermanentSecretary = "permanent_secretary"
	RoleDirector           = "director"
	RoleBudgetManager      = "budget_manager"
	RoleOfficer            = "officer"
)

// Permission strings checked by RBAC middleware and services.
const (
	PermSubmitBudgets       = "submit_budgets"
	PermApproveBudgets      = "approve_budgets"
	PermRejectBudgets       = "reject_budgets"
	PermPublishBudgets      = "publish_budgets"
	PermManageBudgets       = "manage_budgets"
	PermSubmitExpenditures  = "submit_expenditures"
	PermApproveExpenditures = "approve_expenditures"
	PermRejectExpenditures  = "reject_expenditures"
	PermReviewRetirements   = "review_retirements"
	PermVerifyAttachments   = "verify_attachments"
	PermManageUsers         = "manage_users"
	PermManageMDAs          = "manage_mdas"
	PermViewReports         = "view_reports"
)

type ctxKey string

const ContextUserKey ctxKey = "auth_user"

func UserFromContext(ctx context.Context) (*ContextUser, bool) {
	user, ok := ctx.Value(ContextUserKey).(*ContextUser)
	return user, ok
}

// Claims carried by access and refresh tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type TokenGenerator interface {
	GenerateAccessToken(userID string) (string, error)
	GenerateRefreshToken(userID string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithPermissions(userID int64) (*ContextUser, error)
}

var (
	ErrInvalidCredentials = internal.ErrInvalidCredentials
	ErrUserInactive       = internal.ErrUserInactive
	ErrInvalidToken       = internal.ErrInvalidToken
	ErrTokenExpired       = internal.ErrTokenExpired
)
