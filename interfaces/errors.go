package interfaces

import "errors"

// Error taxonomy for the trust subsystem. Cryptographic failures
// (decrypt, signature, claim, expiry, HMAC) must surface to HTTP
// callers as a uniform unauthorized response; only server-side logs
// carry the specific class.
var (
	// ErrDecryptFailure indicates an envelope could not be decrypted
	// with the device's encryption private key.
	ErrDecryptFailure = errors.New("envelope decryption failed")

	// ErrInvalidSignature indicates a signature did not verify against
	// the expected public key, or the token used a disallowed
	// algorithm.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrMissingClaim indicates a verified token lacked a required
	// claim or carried one with the wrong type.
	ErrMissingClaim = errors.New("required claim missing")

	// ErrExpiredToken indicates a token's exp timestamp has passed.
	ErrExpiredToken = errors.New("token expired")

	// ErrInvalidHmac indicates the front bootstrap signature did not
	// match the expected HMAC.
	ErrInvalidHmac = errors.New("invalid hmac signature")

	// ErrUserExists indicates a user is already registered on this
	// single-tenant device.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound indicates no user is registered.
	ErrUserNotFound = errors.New("user not found")
)

// IsAuthError reports whether err belongs to the cryptographic or
// authorization failure classes that must map to a uniform
// unauthorized HTTP response.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrDecryptFailure) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrMissingClaim) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrInvalidHmac)
}
