package model

import (
	"fmt"
	"time"
)

// User is a remote-store account. Every account owns exactly one inventory.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// ValidatePassword checks a new password against the signup rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
