package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func frontSignature(secret, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestFrontBootstrapVerify(t *testing.T) {
	auth := NewFrontBootstrapAuthenticator("a-shared-secret")

	ts := "1767225600000"
	assert.True(t, auth.Verify(ts, frontSignature("a-shared-secret", ts)))
}

func TestFrontBootstrapRejects(t *testing.T) {
	auth := NewFrontBootstrapAuthenticator("a-shared-secret")
	ts := "1767225600000"
	good := frontSignature("a-shared-secret", ts)

	assert.False(t, auth.Verify("", good), "empty timestamp")
	assert.False(t, auth.Verify(ts, ""), "empty signature")
	assert.False(t, auth.Verify(ts, frontSignature("wrong-secret", ts)), "wrong secret")
	assert.False(t, auth.Verify("1767225600001", good), "signature over a different timestamp")
	assert.False(t, auth.Verify(ts, good[:10]), "truncated signature")
	assert.False(t, auth.Verify(ts, good+"00"), "oversized signature")
}

func TestFrontBootstrapUnconfiguredSecret(t *testing.T) {
	auth := NewFrontBootstrapAuthenticator("")
	ts := "1767225600000"

	// An empty secret still produces a computable HMAC; the gate must
	// refuse rather than accept a signature over the empty key.
	assert.False(t, auth.Verify(ts, frontSignature("", ts)))
}
