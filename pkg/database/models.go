package database

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no row matches
	ErrNotFound = errors.New("not found")
	// ErrEmailExists is returned when an account already uses the email
	ErrEmailExists = errors.New("email already registered")
)

// User is a record of the user resource
type User struct {
	ID      string    `db:"id"`
	Email   string    `db:"email"`
	Name    string    `db:"name"`
	Created time.Time `db:"created"`
}

// Account is a credential record of the identity emulator
type Account struct {
	LocalID      string    `db:"local_id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	DisplayName  string    `db:"display_name"`
	Provider     string    `db:"provider"`
	Disabled     bool      `db:"disabled"`
	Created      time.Time `db:"created"`
}
