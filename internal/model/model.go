// Package model defines the DTOs exchanged with the receivables API.
package model

import (
	"slices"
	"time"
)

// Roles known to the API.
const (
	RoleAdmin   = "ADMIN"
	RoleAnalyst = "ANALYST"
	RoleManager = "MANAGER"
)

// User is the profile returned by /auth/me, /auth/register and /users.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasAnyRole reports whether the user holds at least one of roles.
func (u *User) HasAnyRole(roles ...string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if slices.Contains(roles, r) {
			return true
		}
	}
	return false
}

// Credentials is the /auth/login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the /auth/register request body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials returns the login payload matching this registration.
func (r Registration) Credentials() Credentials {
	return Credentials{Email: r.Email, Password: r.Password}
}

// LoginResponse is the /auth/login response body.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

// UpdateUser is the PUT /users/{id} request body. Nil fields are left unchanged.
type UpdateUser struct {
	Name  *string  `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// UserPage is a page of /users.
type UserPage struct {
	Users  []User `json:"users"`
	Total  int    `json:"total"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// SortOrder is "asc" or "desc".
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListParams are the common list query parameters. Zero values are omitted.
type ListParams struct {
	Limit     int
	Offset    int
	SortBy    string
	SortOrder SortOrder
	Search    string
}
