package models

import "time"

// User is an account of the credential store.
type User struct {
	ID             string
	Email          string
	UserName       string
	PasswordHash   string
	EmailConfirmed bool
	CreatedAt      time.Time
}
