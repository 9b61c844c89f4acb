// Package models defines server-side data models persisted in the database.
package models

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAdmin:
		return true
	}
	return false
}

// AccountStatus is the closed set of account states. Only active accounts
// may log in.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountActive, AccountInactive:
		return true
	}
	return false
}

// Account is a login identity. Email is unique and compared case-sensitively.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       AccountStatus
	CreatedAt    time.Time
	// LastLogin is nil until the first successful login.
	LastLogin *time.Time
}

// ClientProfile is the client-role extension of an Account.
type ClientProfile struct {
	ID             string
	AccountID      string
	ReferralCode   string
	Phone          *string
	ReferredBy     *string
	TotalReferrals int
	TotalPoints    int
}
