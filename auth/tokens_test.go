package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlink/telemetry-device/interfaces"
)

func TestTokenPolicyTTL(t *testing.T) {
	def := TokenPolicy{}
	assert.Equal(t, interfaces.FrontTokenTTL, def.TTLFor(interfaces.ClientFront))
	assert.Equal(t, DefaultAccessTokenTTL, def.TTLFor(interfaces.ClientMobile))
	assert.Equal(t, DefaultAccessTokenTTL, def.TTLFor(interfaces.ClientClass("watch")))

	tuned := TokenPolicy{AccessTokenTTL: 7 * time.Hour}
	assert.Equal(t, 7*time.Hour, tuned.TTLFor(interfaces.ClientMobile))
	// Front lifetime is fixed, configuration does not apply.
	assert.Equal(t, interfaces.FrontTokenTTL, tuned.TTLFor(interfaces.ClientFront))
}

func TestLocalTokenRoundTrip(t *testing.T) {
	keys := newTestKeys(t)
	issuer := NewLocalTokenIssuer(keys.store, TokenPolicy{})
	verifier := NewLocalTokenVerifier(keys.store, testLogger())

	token, err := issuer.Issue("usr-001", "car-042", interfaces.ClientMobile)
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-001", claims.Subject)
	assert.Equal(t, "car-042", claims.CarID)
	assert.Equal(t, interfaces.ClientMobile, claims.Client)
}

func TestLocalTokenExpiryPerClient(t *testing.T) {
	keys := newTestKeys(t)
	issuer := NewLocalTokenIssuer(keys.store, TokenPolicy{})
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }

	verifier := NewLocalTokenVerifier(keys.store, testLogger())
	verifier.now = func() time.Time { return issued }

	front, err := issuer.Issue("front", "front", interfaces.ClientFront)
	require.NoError(t, err)
	mobile, err := issuer.Issue("usr-001", "car-042", interfaces.ClientMobile)
	require.NoError(t, err)

	frontClaims, err := verifier.Verify(front)
	require.NoError(t, err)
	mobileClaims, err := verifier.Verify(mobile)
	require.NoError(t, err)

	assert.Equal(t, issued.Add(interfaces.FrontTokenTTL), frontClaims.Expiry.Time().UTC())
	assert.Equal(t, issued.Add(DefaultAccessTokenTTL), mobileClaims.Expiry.Time().UTC())
}

func TestLocalTokenExpired(t *testing.T) {
	keys := newTestKeys(t)
	issuer := NewLocalTokenIssuer(keys.store, TokenPolicy{})
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.Issue("usr-001", "car-042", interfaces.ClientMobile)
	require.NoError(t, err)

	verifier := NewLocalTokenVerifier(keys.store, testLogger())
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, interfaces.ErrExpiredToken)
}

// A token expired by less than a minute must already fail: expiry is
// checked with zero leeway, not go-jose's default tolerance.
func TestLocalTokenExpiredWithinLeewayWindow(t *testing.T) {
	keys := newTestKeys(t)
	issuer := NewLocalTokenIssuer(keys.store, TokenPolicy{})
	issuer.now = func() time.Time { return time.Now().Add(-DefaultAccessTokenTTL - 30*time.Second) }

	token, err := issuer.Issue("usr-001", "car-042", interfaces.ClientMobile)
	require.NoError(t, err)

	verifier := NewLocalTokenVerifier(keys.store, testLogger())
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, interfaces.ErrExpiredToken)
}

func TestLocalTokenRejectsCloudSigned(t *testing.T) {
	keys := newTestKeys(t)
	verifier := NewLocalTokenVerifier(keys.store, testLogger())

	// A cloud-signed token must not pass local verification, even
	// though it is a well-formed RS256 JWT.
	_, err := verifier.Verify(validRefreshToken(t, keys, "mobile"))
	assert.ErrorIs(t, err, interfaces.ErrInvalidSignature)
}

func TestLocalTokenRejectsTampered(t *testing.T) {
	keys := newTestKeys(t)
	issuer := NewLocalTokenIssuer(keys.store, TokenPolicy{})
	verifier := NewLocalTokenVerifier(keys.store, testLogger())

	token, err := issuer.Issue("usr-001", "car-042", interfaces.ClientMobile)
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = verifier.Verify(tampered)
	assert.Error(t, err)
	assert.True(t, interfaces.IsAuthError(err))
}

func TestLocalTokenRejectsGarbage(t *testing.T) {
	keys := newTestKeys(t)
	verifier := NewLocalTokenVerifier(keys.store, testLogger())

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := verifier.Verify(raw)
		assert.ErrorIs(t, err, interfaces.ErrInvalidSignature, "input %q", raw)
	}
}
