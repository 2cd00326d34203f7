package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const (
	SignatureHeader = "X-Workforce-Signature"
	EventHeader     = "X-Workforce-Event"
	signaturePrefix = "sha256="
)

// Sign returns the hex HMAC-SHA256 of payload, prefixed with "sha256="
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify is what a receiver runs against the SignatureHeader value
func Verify(secret string, payload []byte, signature string) bool {
	expectedSignature := Sign(secret, payload)
	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}
