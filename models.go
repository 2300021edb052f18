package session

import "time"

// UserRole is the user's role as reported by the backend
type UserRole string

const (
	// RoleCustomer is a storefront customer (no dashboard access)
	RoleCustomer UserRole = "customer"
	// RoleStoreAdmin manages a single store's catalog and credits
	RoleStoreAdmin UserRole = "store_admin"
	// RoleAdmin is a platform operator with access to every store
	RoleAdmin UserRole = "admin"
)

// User is the authenticated account as the backend reports it. It is owned by
// the session; a serialized copy is persisted whenever it changes.
type User struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Email       string     `json:"email,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	Role        UserRole   `json:"role,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// AuthToken is the opaque bearer credential plus its advertised lifetime in
// seconds from issuance. The client never verifies it cryptographically; the
// backend's validate endpoint is the authority.
type AuthToken struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}
