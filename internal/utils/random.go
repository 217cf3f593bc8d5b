package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const OTPLength = 6

var otpUpperBound = big.NewInt(1_000_000)

// GenerateRandomOTP returns a zero padded 6 digit code.
func GenerateRandomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IsOTP reports whether code is exactly 6 ASCII digits.
func IsOTP(code string) bool {
	if len(code) != OTPLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
