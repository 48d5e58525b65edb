package models

import (
	"github.com/golang-jwt/jwt/v5"
)

const TokenTypeSession = "session"

type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// GoogleIdentity is the verified subset of a Google ID token
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}
