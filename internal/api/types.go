package api

import (
	"fmt"
	"net/http"
)

// User is the authenticated principal's profile as returned by the Account
// API.
type User struct {
	ID               int64            `json:"id"`
	Email            string           `json:"email"`
	FullName         string           `json:"full_name"`
	IsActive         bool             `json:"is_active"`
	IsAdmin          bool             `json:"is_admin"`
	IsScrumMaster    bool             `json:"is_scrum_master"`
	IsProductOwner   bool             `json:"is_product_owner"`
	Timezone         string           `json:"timezone,omitempty"`
	SubscriptionTier string           `json:"subscription_tier,omitempty"`
	Teams            []TeamMembership `json:"teams,omitempty"`
}

// TeamMembership is one team entry on a user profile.
type TeamMembership struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Role names a product role a user may hold.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleScrumMaster  Role = "scrum_master"
	RoleProductOwner Role = "product_owner"
	RoleDeveloper    Role = "developer"
)

// HasRole reports whether the cached profile grants role. The profile
// reflects the last server fetch; the server remains the authority for any
// privileged action and answers 401/403 when the cached answer is stale.
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	switch role {
	case RoleAdmin:
		return u.IsAdmin
	case RoleScrumMaster:
		return u.IsScrumMaster
	case RoleProductOwner:
		return u.IsProductOwner
	case RoleDeveloper:
		// Every authenticated user acts as a developer.
		return true
	default:
		return false
	}
}

// TokenResponse is the payload returned by login, signup and token refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// SignupParams is the request body for account creation.
type SignupParams struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name,omitempty"`
}

// Error is a non-2xx response from the Account API.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("account api: %s (HTTP %d)", e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("account api: HTTP %d", e.StatusCode)
}

// IsUnauthenticated reports whether the server rejected the request's
// credentials or token.
func (e *Error) IsUnauthenticated() bool {
	return e.StatusCode == http.StatusUnauthorized
}
