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

// DefaultAccessTokenTTL is the short-lived token lifetime applied to
// every client class except front. Deployments may raise it up to a
// working-day window (7h) via configuration.
const DefaultAccessTokenTTL = 5 * time.Minute

// TokenPolicy selects the token lifetime per client class. The front
// client's 30-day lifetime is fixed; the short TTL for everything else
// is configurable.
type TokenPolicy struct {
	// AccessTokenTTL applies to every client class except front.
	// Zero means DefaultAccessTokenTTL.
	AccessTokenTTL time.Duration
}

// TTLFor returns the token lifetime for a client class.
func (p TokenPolicy) TTLFor(client interfaces.ClientClass) time.Duration {
	if client == interfaces.ClientFront {
		return interfaces.FrontTokenTTL
	}
	if p.AccessTokenTTL > 0 {
		return p.AccessTokenTTL
	}
	return DefaultAccessTokenTTL
}

// LocalTokenIssuer signs session tokens in the device's own trust
// domain. Issue is a pure function of its input and the clock; nothing
// is persisted.
type LocalTokenIssuer struct {
	keys   *keystore.KeyStore
	policy TokenPolicy

	now func() time.Time
}

// NewLocalTokenIssuer creates an issuer using the device's local
// signing key and the given TTL policy.
func NewLocalTokenIssuer(keys *keystore.KeyStore, policy TokenPolicy) *LocalTokenIssuer {
	return &LocalTokenIssuer{keys: keys, policy: policy, now: time.Now}
}

// Issue signs a token carrying sub, carId, client, iat and an exp
// chosen by the TTL policy. Returns the compact serialization.
func (i *LocalTokenIssuer) Issue(sub, carID string, client interfaces.ClientClass) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: SigningAlgorithm, Key: i.keys.LocalSigningPrivateKey()},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("creating signer: %w", err)
	}

	now := i.now()
	claims := AccessClaims{
		Claims: jwt.Claims{
			Subject:  sub,
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(i.policy.TTLFor(client))),
		},
		CarID:  carID,
		Client: client,
	}

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return token, nil
}

// LocalTokenVerifier verifies tokens issued by this device against its
// local signing public key. Any failure (bad signature, wrong
// algorithm, malformed token, missing claims, expiry) yields a
// taxonomy error and the request must not reach the guarded handler.
type LocalTokenVerifier struct {
	keys *keystore.KeyStore
	log  *slog.Logger

	now func() time.Time
}

// NewLocalTokenVerifier creates a verifier over the loaded key store.
func NewLocalTokenVerifier(keys *keystore.KeyStore, log *slog.Logger) *LocalTokenVerifier {
	return &LocalTokenVerifier{keys: keys, log: log, now: time.Now}
}

// Verify checks the token and returns its claims.
func (v *LocalTokenVerifier) Verify(token string) (*AccessClaims, error) {
	signed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{SigningAlgorithm})
	if err != nil {
		v.log.Debug("Access token malformed", "err", err)
		return nil, fmt.Errorf("parsing access token: %w", interfaces.ErrInvalidSignature)
	}

	var claims AccessClaims
	if err := signed.Claims(v.keys.LocalSigningPublicKey(), &claims); err != nil {
		v.log.Debug("Access token signature invalid", "err", err)
		return nil, fmt.Errorf("verifying access token: %w", interfaces.ErrInvalidSignature)
	}

	if err := claims.validate(v.now()); err != nil {
		v.log.Debug("Access token claims rejected", "err", err)
		return nil, err
	}

	return &claims, nil
}
