package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// GenerateOTP returns a zero-padded numeric one-time code.
func GenerateOTP(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("digits must be positive")
	}

	var sb strings.Builder
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generating otp: %w", err)
		}
		sb.WriteString(n.String())
	}
	return sb.String(), nil
}
