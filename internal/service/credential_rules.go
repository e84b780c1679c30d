package service

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const usernameValidatorTag = "username"

var (
	usernamePattern   = regexp.MustCompile(`^[a-z][a-z0-9]{5,11}$`)
	passwordAllowed   = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*\-+=]{10,50}$`)
	passwordHasDigit  = regexp.MustCompile(`[0-9]`)
	passwordHasLower  = regexp.MustCompile(`[a-z]`)
	passwordHasUpper  = regexp.MustCompile(`[A-Z]`)
	passwordHasSymbol = regexp.MustCompile(`[!@#$%^&*\-+=]`)
)

// NewValidator returns a validator with the credential tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation(usernameValidatorTag, func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
	return v
}

// ValidUsername reports whether username is 6 to 12 lowercase letters or
// digits and starts with a letter.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidPassword applies the password composition rules. The password needs a
// digit, a lowercase letter, an uppercase letter and a symbol, must not
// contain three ascending, descending or identical characters in a row, and
// must not contain any three characters of the username in either direction.
func ValidPassword(username, password string) bool {
	if !passwordAllowed.MatchString(password) ||
		!passwordHasDigit.MatchString(password) ||
		!passwordHasLower.MatchString(password) ||
		!passwordHasUpper.MatchString(password) ||
		!passwordHasSymbol.MatchString(password) {
		return false
	}

	lowPW := strings.ToLower(password)
	for i := 0; i+2 < len(lowPW); i++ {
		a, b, c := int(lowPW[i]), int(lowPW[i+1]), int(lowPW[i+2])
		if a-b == 1 && b-c == 1 {
			return false
		}
		if a-b == -1 && b-c == -1 {
			return false
		}
		if a == b && b == c {
			return false
		}
	}

	lowUsername := strings.ToLower(username)
	for i := 0; i+3 <= len(lowUsername); i++ {
		part := lowUsername[i : i+3]
		if strings.Contains(lowPW, part) || strings.Contains(lowPW, reverse(part)) {
			return false
		}
	}

	return true
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
