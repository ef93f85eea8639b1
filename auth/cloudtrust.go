package auth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/carlink/telemetry-device/interfaces"
	"github.com/carlink/telemetry-device/keystore"
)

// CloudTrustVerifier validates artifacts originating from the cloud
// trust domain: pairing payload envelopes (decrypt-then-verify) and
// cloud-issued refresh tokens (verify only). Both operations are pure
// reads of the key store; a failure is surfaced immediately, never
// retried.
type CloudTrustVerifier struct {
	keys *keystore.KeyStore
	log  *slog.Logger

	now func() time.Time
}

// NewCloudTrustVerifier creates a verifier over the loaded key store.
func NewCloudTrustVerifier(keys *keystore.KeyStore, log *slog.Logger) *CloudTrustVerifier {
	return &CloudTrustVerifier{keys: keys, log: log, now: time.Now}
}

// VerifyPairingPayload decrypts envelope with the device's encryption
// private key, verifies the inner JWS against the cloud's signing key
// (RS256 only), and requires both user and vehicle claims. Each
// failure maps to its taxonomy sentinel; the HTTP layer flattens them
// for the caller while the detailed cause is logged here.
func (v *CloudTrustVerifier) VerifyPairingPayload(envelope string) (*PairingPayloadClaims, error) {
	parsed, err := jose.ParseEncrypted(
		envelope,
		[]jose.KeyAlgorithm{KeyEncryptionAlgorithm},
		[]jose.ContentEncryption{ContentEncryption},
	)
	if err != nil {
		v.log.Warn("Pairing payload not a valid envelope", "err", err)
		return nil, fmt.Errorf("parsing envelope: %w", interfaces.ErrDecryptFailure)
	}

	plaintext, err := parsed.Decrypt(v.keys.DeviceEncryptionPrivateKey())
	if err != nil {
		v.log.Warn("Pairing payload decryption failed", "err", err)
		return nil, fmt.Errorf("decrypting envelope: %w", interfaces.ErrDecryptFailure)
	}

	signed, err := jwt.ParseSigned(string(plaintext), []jose.SignatureAlgorithm{SigningAlgorithm})
	if err != nil {
		v.log.Warn("Pairing payload plaintext not a signed token", "err", err)
		return nil, fmt.Errorf("parsing inner token: %w", interfaces.ErrInvalidSignature)
	}

	var claims PairingPayloadClaims
	if err := signed.Claims(v.keys.CloudSigningPublicKey(), &claims); err != nil {
		v.log.Warn("Pairing payload signature invalid", "err", err)
		return nil, fmt.Errorf("verifying inner signature: %w", interfaces.ErrInvalidSignature)
	}

	if err := claims.validate(); err != nil {
		v.log.Warn("Pairing payload claims incomplete", "err", err)
		return nil, err
	}

	return &claims, nil
}

// VerifyRefreshToken verifies a cloud-issued refresh token against the
// cloud's signing key (RS256 only) and requires the sub, carId and
// client claims. Expired tokens are rejected.
func (v *CloudTrustVerifier) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	signed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{SigningAlgorithm})
	if err != nil {
		v.log.Warn("Refresh token malformed", "err", err)
		return nil, fmt.Errorf("parsing refresh token: %w", interfaces.ErrInvalidSignature)
	}

	var claims RefreshClaims
	if err := signed.Claims(v.keys.CloudSigningPublicKey(), &claims); err != nil {
		v.log.Warn("Refresh token signature invalid", "err", err)
		return nil, fmt.Errorf("verifying refresh token: %w", interfaces.ErrInvalidSignature)
	}

	if err := claims.validate(v.now()); err != nil {
		v.log.Warn("Refresh token claims rejected", "err", err)
		return nil, err
	}

	return &claims, nil
}
