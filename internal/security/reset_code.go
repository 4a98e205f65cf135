package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	ResetCodeLength   = 6
	resetCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// 252 is the largest multiple of 36 below 256; bytes at or above it are
// rejected so every symbol is equally likely.
const resetCodeRejectAbove = 256 - 256%len(resetCodeAlphabet)

// GenerateResetCode returns a short human-typable code drawn uniformly from
// A-Z0-9 using crypto/rand.
func GenerateResetCode() (string, error) {
	out := make([]byte, 0, ResetCodeLength)
	buf := make([]byte, ResetCodeLength*2)

	for len(out) < ResetCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= resetCodeRejectAbove {
				continue
			}
			out = append(out, resetCodeAlphabet[int(b)%len(resetCodeAlphabet)])
			if len(out) == ResetCodeLength {
				break
			}
		}
	}

	return string(out), nil
}

// HashResetCode returns the value stored for a reset code. Codes are matched
// case-insensitively and surrounding whitespace is ignored.
func HashResetCode(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
