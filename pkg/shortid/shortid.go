// Package shortid generates short human-readable identifiers such as
// "SRX3F9" or "USR2A8D" that appear on invoices and support tickets.
package shortid

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// New returns a new identifier composed of the given prefix followed by four
// random base36 characters.
func New(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// fall back to a fixed character rather than panic.
			b.WriteByte('0')
			continue
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}
