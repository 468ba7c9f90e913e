package auth

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordPolicyMessage describes the complexity rule to callers.
const PasswordPolicyMessage = "password must be at least 8 characters and contain an uppercase letter, a lowercase letter, a digit and one of @$!%*?&"

var (
	passwordCharset = regexp.MustCompile(`^[A-Za-z0-9@$!%*?&]{8,}$`)
	passwordClasses = []*regexp.Regexp{
		regexp.MustCompile(`[a-z]`),
		regexp.MustCompile(`[A-Z]`),
		regexp.MustCompile(`[0-9]`),
		regexp.MustCompile(`[@$!%*?&]`),
	}
)

// ValidatePassword reports whether password satisfies the complexity policy.
func ValidatePassword(password string) bool {
	if strings.TrimSpace(password) == "" {
		return false
	}
	if !passwordCharset.MatchString(password) {
		return false
	}
	for _, class := range passwordClasses {
		if !class.MatchString(password) {
			return false
		}
	}
	return true
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches the stored hash.
// A malformed hash never matches.
func VerifyPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
