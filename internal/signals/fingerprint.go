package signals

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Fingerprint returns the hex SHA3-256 digest of a raw signal bundle.
// The audit history stores it next to each report so repeat audits of
// an identical bundle are recognizable without diffing report JSON.
func Fingerprint(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
