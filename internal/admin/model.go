// Package admin manages console user accounts.
package admin

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Roles an admin account can hold.
const (
	RoleSuperAdmin = "super_admin"
	RoleManager    = "manager"
	RoleViewer     = "viewer"
)

var validRoles = map[string]struct{}{
	RoleSuperAdmin: {},
	RoleManager:    {},
	RoleViewer:     {},
}

// Sentinel errors surfaced to handlers.
var (
	ErrUserNotFound   = errors.New("admin: user not found")
	ErrEmailTaken     = errors.New("admin: email already registered")
	ErrInvalidRequest = errors.New("admin: invalid request")
)

// User is an admin console account. The password hash never leaves the
// repository layer.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest is the wire shape of an account creation call.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Validate normalizes and checks the request.
func (r *CreateUserRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if r.Role == "" {
		r.Role = RoleViewer
	}

	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrInvalidRequest)
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidRequest)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if _, ok := validRoles[r.Role]; !ok {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, r.Role)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
