package common

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// ReferralCodeAlphabet omits visually ambiguous symbols (0/O, 1/I/L).
const ReferralCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// MakeRandHexString generates size random bytes and returns them hex-encoded,
// so the resulting string is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MakeRandCode returns a string of n symbols drawn uniformly from alphabet
// using crypto/rand.
func MakeRandCode(n int, alphabet string) (string, error) {
	out := make([]byte, n)
	limit := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// WipeByteArray overwrites b with zeros. Used for passwords read from the
// terminal. A nil slice is ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
