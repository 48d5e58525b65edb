package auth

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const MaxEmailLen = 254

var emailValidator = validator.New()

// ValidateEmail reports whether email is a syntactically valid address
func ValidateEmail(email string) error {
	return emailValidator.Var(email, fmt.Sprintf("required,email,max=%d", MaxEmailLen))
}
