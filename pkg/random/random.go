// Package random generates the opaque identifiers and secrets used across
// the system. All randomness comes from crypto/rand.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const tokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Identifier lengths used throughout the data model.
const (
	EventIDLength          = 16
	AuditLogIDLength       = 16
	TierIDLength           = 12
	BankAccountIDLength    = 12
	PaymentRequestIDLength = 12
	OrderIDLength          = 8
)

// Token returns a random uppercase alphanumeric string of the given length.
func Token(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	var sb strings.Builder
	sb.Grow(length)
	charsetLen := big.NewInt(int64(len(tokenCharset)))
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		sb.WriteByte(tokenCharset[idx.Int64()])
	}
	return sb.String(), nil
}

// SecurityID returns the per-ticket secret embedded in QR payloads: eight
// random bytes encoded as sixteen uppercase hex characters.
func SecurityID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
