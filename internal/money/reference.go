// internal/money/reference.go
package money

import (
	"crypto/rand"
	"strconv"
	"time"
)

// referencePrefix is the short platform prefix on every transaction
// reference
const referencePrefix = "MTT"

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewTransactionReference generates a transaction reference of the form
// MTT{millisecond timestamp}{6 random base36 chars}. The reference is
// unique per attempt and is the idempotency key the caller correlates
// against webhook and status-poll results.
func NewTransactionReference() string {
	return referencePrefix + strconv.FormatInt(time.Now().UnixMilli(), 10) + randomBase36(6)
}

func randomBase36(n int) string {
	buf := make([]byte, n)
	// crypto/rand.Read only fails when the OS entropy source is broken
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}
	return string(buf)
}
