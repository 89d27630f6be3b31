package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const referralCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReferralCode produces a short uppercase code without visually
// ambiguous characters (no O/0, I/1).
func GenerateReferralCode(length int) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(referralCodeCharset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = referralCodeCharset[num.Int64()]
	}

	return string(result)
}

// GenerateReference produces a unique reference string for a transaction.
func GenerateReference() string {
	return uuid.NewString()
}
