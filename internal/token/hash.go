package token

import "crypto/sha256"

// Hash returns the SHA-256 digest stored in place of a raw refresh credential.
func Hash(raw string) []byte {
	h := sha256.Sum256([]byte(raw))
	return h[:]
}
