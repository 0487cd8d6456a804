// Package signature authenticates inbound webhook notifications against
// the provider's shared secret.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Verify reports whether sig is the hex-encoded HMAC-SHA256 of
// timestamp+token under sharedSecret. The comparison is constant-time in
// the content of sig; only a length mismatch short-circuits. Malformed
// input is an authentication failure, never an error.
func Verify(token, timestamp, sig, sharedSecret string) bool {
	mac := hmac.New(sha256.New, []byte(sharedSecret))
	mac.Write([]byte(timestamp + token))
	expected := hex.EncodeToString(mac.Sum(nil))

	if len(sig) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) == 1
}
