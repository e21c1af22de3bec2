package models

import "time"

// User roles. Admins receive sync change notifications for every device
// they can see; operators only read.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User represents a console user within a tenant
type User struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	APIKey      string    `json:"-"` // Never expose the API key
	CreatedAt   time.Time `json:"createdAt"`
	IsActive    bool      `json:"isActive"`
}

// IsAdmin reports whether the user holds the elevated role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Actor is the authenticated principal a request runs as
type Actor struct {
	UserID   string
	TenantID string
	Role     string
}

// IsAdmin reports whether the actor holds the elevated role
func (a *Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
