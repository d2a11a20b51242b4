package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const referencePrefix = "TXN"

// newReferenceNumber builds a candidate reference: a coarse date component
// plus 40 random bits. Uniqueness is verified against the store before commit.
func newReferenceNumber(now time.Time) (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating reference entropy: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", referencePrefix, now.UTC().Format("20060102"), hex.EncodeToString(buf)), nil
}
