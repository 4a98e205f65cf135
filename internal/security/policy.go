package security

import (
	"strings"
	"unicode/utf8"
)

// PasswordSymbols is the fixed set a password must draw at least one character from.
const PasswordSymbols = `!@#$%^&*(),.?":{}|<>`

const MinPasswordLength = 8

// IsAcceptable reports whether a password satisfies the password policy:
// at least MinPasswordLength characters, at least one ASCII letter and at least
// one character from PasswordSymbols. There is no upper bound.
func IsAcceptable(password string) bool {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return false
	}

	hasLetter := false
	hasSymbol := false

	for _, r := range password {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}

		if hasLetter && hasSymbol {
			return true
		}
	}

	return false
}
