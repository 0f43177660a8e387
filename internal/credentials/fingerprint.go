package credentials

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// Fingerprint returns a short Base58-encoded SHA-256 digest of a value. It is
// safe to display or log in place of a token, and stable enough to key
// filesystem paths.
func Fingerprint(value string) string {
	hash := sha256.Sum256([]byte(value))
	encoded := base58.Encode(hash[:])
	if len(encoded) > 12 {
		encoded = encoded[:12]
	}
	return encoded
}
