// Package sealer signs and verifies request bodies exchanged between
// internal services.
package sealer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	SignatureHeader = "X-Service-Signature"
	signaturePrefix = "sha256="
)

// Sign returns the header value for body: "sha256=" followed by the hex
// HMAC-SHA256 of body keyed by secret.
func Sign(secret string, body []byte) string {
	return signaturePrefix + digest(secret, body)
}

// Verify accepts signatures with or without the "sha256=" prefix.
func Verify(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	signature = strings.TrimPrefix(signature, signaturePrefix)
	return hmac.Equal([]byte(digest(secret, body)), []byte(signature))
}

func digest(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
