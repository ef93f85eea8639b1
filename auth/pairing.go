package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/carlink/telemetry-device/interfaces"
	"github.com/carlink/telemetry-device/keystore"
)

// PairingChallengeIssuer produces the outbound pairing artifact: the
// device's identity claims signed with its signing key, then encrypted
// for the cloud. The resulting envelope is the only artifact ever
// shown to a human (as a QR payload); a bystander who captures it
// cannot recover the VIN without the cloud's decryption key.
//
// Each call is independent: the challenge is stateless and expires on
// its own after five minutes, so no issuance log exists and callers
// may request fresh challenges at will.
type PairingChallengeIssuer struct {
	keys     *keystore.KeyStore
	profiles interfaces.VehicleProfileProvider
	log      *slog.Logger

	now func() time.Time
}

// NewPairingChallengeIssuer creates an issuer bound to the device key
// material and the vehicle identity provider.
func NewPairingChallengeIssuer(keys *keystore.KeyStore, profiles interfaces.VehicleProfileProvider, log *slog.Logger) *PairingChallengeIssuer {
	return &PairingChallengeIssuer{
		keys:     keys,
		profiles: profiles,
		log:      log,
		now:      time.Now,
	}
}

// Issue builds a fresh challenge envelope for the current vehicle
// profile. The inner JWS carries vin, protocol and supportedSensors
// with a five-minute expiry; the outer JWE is compact-serialized for
// the cloud's encryption key.
func (i *PairingChallengeIssuer) Issue(ctx context.Context) (string, error) {
	profile, err := i.profiles.GetVehicleProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("loading vehicle profile: %w", err)
	}

	now := i.now()
	claims := PairingClaims{
		Claims: jwt.Claims{
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(interfaces.PairingChallengeTTL)),
		},
		VIN:              profile.VIN,
		Protocol:         profile.Protocol,
		SupportedSensors: profile.SupportedSensors,
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: SigningAlgorithm, Key: i.keys.DeviceSigningPrivateKey()},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("creating signer: %w", err)
	}

	signed, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("signing pairing claims: %w", err)
	}

	encrypter, err := jose.NewEncrypter(
		ContentEncryption,
		jose.Recipient{Algorithm: KeyEncryptionAlgorithm, Key: i.keys.CloudEncryptionPublicKey()},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("creating encrypter: %w", err)
	}

	envelope, err := encrypter.Encrypt([]byte(signed))
	if err != nil {
		return "", fmt.Errorf("encrypting pairing challenge: %w", err)
	}

	compact, err := envelope.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("serializing pairing envelope: %w", err)
	}

	i.log.Debug("Issued pairing challenge", "vin_set", profile.VIN != "", "expires_in", interfaces.PairingChallengeTTL)
	return compact, nil
}
