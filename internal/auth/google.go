package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BradenHooton/tradepost/internal/models"
	"google.golang.org/api/idtoken"
)

// validateFunc matches idtoken.Validate
type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleVerifier checks Google ID tokens issued for this application's client ID
type GoogleVerifier struct {
	clientID string
	validate validateFunc
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: strings.TrimSpace(clientID),
		validate: idtoken.Validate,
	}
}

// Enabled reports whether a client ID is configured
func (v *GoogleVerifier) Enabled() bool {
	return v != nil && v.clientID != ""
}

// Verify validates the token signature, audience and issuer and returns the identity it asserts
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*models.GoogleIdentity, error) {
	if !v.Enabled() {
		return nil, models.ErrNotConfigured
	}
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("missing id token")
	}

	payload, err := v.validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google id token: %w", err)
	}
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return nil, fmt.Errorf("unexpected issuer: %s", payload.Issuer)
	}

	email := strings.ToLower(strings.TrimSpace(stringClaim(payload.Claims, "email")))
	if email == "" {
		return nil, errors.New("google id token has no email")
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("google email is not verified")
	}

	return &models.GoogleIdentity{
		Subject: payload.Subject,
		Email:   email,
		Name:    stringClaim(payload.Claims, "name"),
		Picture: stringClaim(payload.Claims, "picture"),
	}, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
