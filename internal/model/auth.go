package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// User types stored in the session
const (
	UserTypeAdmin = "ADMIN"
	UserTypeOwner = "OWNER"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// Validate checks if the login request is valid
func (r *LoginRequest) Validate() map[string]string {
	r.Username = strings.TrimSpace(r.Username)
	return validateStruct(r)
}

// LoginResponse is the backend's answer to a login attempt
type LoginResponse struct {
	Status bool   `json:"status"`
	JWT    string `json:"jwt"`
	Role   string `json:"role"`
	ID     ID     `json:"id"`
}

// ID accepts both numeric and string identifiers and keeps them as text
type ID string

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// SessionUser is the public view of the signed-in user
type SessionUser struct {
	Username string `json:"username"`
	UserType string `json:"userType"`
	UserID   string `json:"userId"`
}

// NormalizeUserType maps backend role names ("ROLE_ADMIN", "admin") to a user type
func NormalizeUserType(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	role = strings.TrimPrefix(role, "ROLE_")
	switch role {
	case UserTypeAdmin, "ADMINISTRATOR":
		return UserTypeAdmin
	case UserTypeOwner, "USER", "BOAT_OWNER":
		return UserTypeOwner
	}
	return role
}
