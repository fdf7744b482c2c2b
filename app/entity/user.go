package entity

import (
	"database/sql"
	"time"
)

// User is a registered account. ResetTokenID holds the id of the most
// recently issued reset token; only that token can change the password.
type User struct {
	ID             uint64
	Name           string
	Email          string
	CanonicalEmail string
	PasswordHash   string
	ResetTokenID   sql.NullString
	ResetTokenUsed bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
