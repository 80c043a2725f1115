package auth

import (
	"fmt"
	"net/mail"
	"strings"
)

const maxEmailLength = 254 // RFC 5321

// ValidateEmail validates an email address for format and length.
// The address is compared verbatim elsewhere, so it is not normalized here.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email address is required")
	}

	if len(email) > maxEmailLength {
		return fmt.Errorf("email address is too long (max %d characters)", maxEmailLength)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fmt.Errorf("invalid email address format")
	}

	return nil
}

// Field is a named input value checked by RequireFields.
type Field struct {
	Name  string
	Value string
}

// RequireFields returns the names of the fields that are empty after trimming.
func RequireFields(fields ...Field) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
