package models

import (
	"time"

	"github.com/google/uuid"
)

const UsernameMaxLength = 150

type User struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	DateJoined   time.Time `db:"date_joined"`
}

// UserProfile holds the optional extras collected at registration.
// Picture is an object storage key, empty when no picture was uploaded.
type UserProfile struct {
	UserID  uuid.UUID `db:"user_id"`
	Website string    `db:"website"`
	Picture string    `db:"picture"`
}
