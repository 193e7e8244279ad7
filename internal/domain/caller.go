package domain

import "github.com/google/uuid"

// Caller is the identity resolved by the auth middleware for one request.
type Caller struct {
	UserID   string
	Role     Role
	DriverID *uuid.UUID // set when the user has a driver profile
}

func (c Caller) IsAdmin() bool  { return c.Role == RoleAdmin }
func (c Caller) IsDriver() bool { return c.DriverID != nil }
