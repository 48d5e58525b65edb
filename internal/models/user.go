package models

import (
	"time"
)

// DefaultAvatar is assigned to accounts created without a profile picture
const DefaultAvatar = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Avatar       string // URL of the profile picture
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries the optional fields of a profile update; nil means unchanged
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Avatar       *string
}
