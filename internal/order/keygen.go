package order

import (
	"crypto/rand"
	"math/big"
)

// Key lengths used across the ordering flow.
const (
	EditKeyLen        = 10
	ManageKeyLen      = 11
	SessionKeyLen     = 21
	TransactionKeyLen = 25
)

const keyCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// SecureKey returns a random lower-case alphanumeric key of the given length.
func SecureKey(size int) string {
	b := make([]byte, size)
	max := big.NewInt(int64(len(keyCharset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		b[i] = keyCharset[n.Int64()]
	}
	return string(b)
}
