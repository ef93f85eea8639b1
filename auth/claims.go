package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/carlink/telemetry-device/interfaces"
)

// Cryptographic parameters, fixed for every artifact this device
// produces or accepts.
var (
	// SigningAlgorithm is the only signature algorithm accepted in
	// either trust domain.
	SigningAlgorithm = jose.RS256

	// KeyEncryptionAlgorithm wraps the content key of pairing
	// envelopes.
	KeyEncryptionAlgorithm = jose.RSA_OAEP_256

	// ContentEncryption encrypts envelope payloads.
	ContentEncryption = jose.A256GCM
)

// PairingClaims describe this device inside an outbound pairing
// challenge. Never persisted; each challenge is stateless and
// self-expiring.
type PairingClaims struct {
	jwt.Claims
	VIN              string   `json:"vin"`
	Protocol         string   `json:"protocol"`
	SupportedSensors []string `json:"supportedSensors"`
}

// PairingPayloadClaims are the cloud-supplied contents of an inbound
// pairing payload: the user who claimed this vehicle and corrected
// vehicle metadata.
type PairingPayloadClaims struct {
	jwt.Claims
	User    *interfaces.PairedUser    `json:"user"`
	Vehicle *interfaces.PairedVehicle `json:"vehicle"`
}

// validate requires both compound claims to be present and the user
// to carry an external id.
func (c *PairingPayloadClaims) validate() error {
	if c.User == nil || c.Vehicle == nil {
		return fmt.Errorf("pairing payload requires user and vehicle: %w", interfaces.ErrMissingClaim)
	}
	if c.User.UserID == "" {
		return fmt.Errorf("pairing payload user has no id: %w", interfaces.ErrMissingClaim)
	}
	return nil
}

// RefreshClaims are the contents of a cloud-issued refresh token. The
// subject is the external user id.
type RefreshClaims struct {
	jwt.Claims
	CarID  string `json:"carId"`
	Client string `json:"client"`
}

// validate requires sub, carId and client, and rejects expired tokens.
func (c *RefreshClaims) validate(now time.Time) error {
	if c.Subject == "" || c.CarID == "" || c.Client == "" {
		return fmt.Errorf("refresh token requires sub, carId and client: %w", interfaces.ErrMissingClaim)
	}
	return checkExpiry(c.Claims, now)
}

// AccessClaims are the contents of a locally issued session token.
// They are reconstructed on every verified request and attached to the
// request context; nothing is persisted.
type AccessClaims struct {
	jwt.Claims
	CarID  string                 `json:"carId"`
	Client interfaces.ClientClass `json:"client"`
}

func (c *AccessClaims) validate(now time.Time) error {
	if c.Subject == "" || c.CarID == "" || c.Client == "" {
		return fmt.Errorf("access token requires sub, carId and client: %w", interfaces.ErrMissingClaim)
	}
	return checkExpiry(c.Claims, now)
}

// checkExpiry maps go-jose's time validation onto the error taxonomy.
// Leeway is zero: a token whose exp has passed must never verify, so
// go-jose's default one-minute tolerance is disabled.
func checkExpiry(claims jwt.Claims, now time.Time) error {
	err := claims.ValidateWithLeeway(jwt.Expected{Time: now}, 0)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrExpired):
		return fmt.Errorf("token expired at %v: %w", claims.Expiry.Time(), interfaces.ErrExpiredToken)
	default:
		return fmt.Errorf("claim validation: %v: %w", err, interfaces.ErrMissingClaim)
	}
}
