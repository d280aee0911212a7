package services

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

// cashierCodeAlphabet has 32 symbols, so one random byte masked to 5 bits
// picks a symbol uniformly. I, O, 0 and 1 are left out.
const cashierCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeGenerator returns a fresh cashier code of the given length.
type CodeGenerator func(length int) (string, error)

func GenerateCashierCode(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("cashier code length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	for i, b := range buf {
		buf[i] = cashierCodeAlphabet[b&31]
	}
	return string(buf), nil
}
