package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// FrontBootstrapAuthenticator gates issuance of the long-lived front
// client token. The dashboard proves possession of a pre-shared secret
// (deployment configuration, not key material) by sending a timestamp
// and an HMAC-SHA256 signature over it.
//
// A passing check proves possession of the secret only: the timestamp
// is not checked for recency or reuse, so a captured (timestamp,
// signature) pair remains replayable. The intended freshness window is
// unspecified upstream; callers relying on this gate should know the
// limitation.
type FrontBootstrapAuthenticator struct {
	secret []byte
}

// NewFrontBootstrapAuthenticator creates an authenticator with the
// pre-shared front secret.
func NewFrontBootstrapAuthenticator(secret string) *FrontBootstrapAuthenticator {
	return &FrontBootstrapAuthenticator{secret: []byte(secret)}
}

// Verify computes HMAC-SHA256 over timestamp with the shared secret,
// hex-encodes it, and compares against receivedSignature in constant
// time. Returns false for empty inputs or an unconfigured secret.
func (a *FrontBootstrapAuthenticator) Verify(timestamp, receivedSignature string) bool {
	if timestamp == "" || receivedSignature == "" || len(a.secret) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(timestamp))
	expected := hex.EncodeToString(mac.Sum(nil))

	if len(expected) != len(receivedSignature) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(receivedSignature)) == 1
}
