package domain

import "time"

// Role differentiates end-user vs administrator principals.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Label returns the lowercase role name used in routes and response keys.
func (r Role) Label() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "user"
}

// Principal is the credential record for an authenticated identity.
// Mobile is set for end-users only; RefreshToken holds the single live
// refresh token value, nil when no session is active.
type Principal struct {
	ID           string
	FullName     string
	Email        string
	Mobile       *string
	PasswordHash string
	RefreshToken *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicPrincipal is the client-facing projection of a Principal.
type PublicPrincipal struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Mobile    *string   `json:"mobile,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public strips the password hash and refresh token.
func (p *Principal) Public() PublicPrincipal {
	return PublicPrincipal{
		ID:        p.ID,
		FullName:  p.FullName,
		Email:     p.Email,
		Mobile:    p.Mobile,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
