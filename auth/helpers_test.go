package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"

	"github.com/carlink/telemetry-device/interfaces"
	"github.com/carlink/telemetry-device/keystore"
)

// testKeys bundles a device key store with the matching cloud-side
// private keys, so tests can play both ends of a pairing exchange.
type testKeys struct {
	store           *keystore.KeyStore
	cloudSigning    *rsa.PrivateKey
	cloudEncryption *rsa.PrivateKey
	deviceSigning   *rsa.PrivateKey
	deviceEncrypt   *rsa.PrivateKey
}

func newTestKeys(t *testing.T) *testKeys {
	t.Helper()

	deviceSigning := genKey(t)
	deviceEncryption := genKey(t)
	localSigning := genKey(t)
	cloudSigning := genKey(t)
	cloudEncryption := genKey(t)

	return &testKeys{
		store: keystore.NewFromKeys(
			deviceSigning,
			deviceEncryption,
			localSigning,
			&cloudEncryption.PublicKey,
			&cloudSigning.PublicKey,
		),
		cloudSigning:    cloudSigning,
		cloudEncryption: cloudEncryption,
		deviceSigning:   deviceSigning,
		deviceEncrypt:   deviceEncryption,
	}
}

func genKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// cloudSign signs claims the way the cloud does, with its signing key.
func cloudSign(t *testing.T, keys *testKeys, claims any) string {
	t.Helper()
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: keys.cloudSigning},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)
	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	require.NoError(t, err)
	return token
}

// cloudEncryptForDevice encrypts plaintext for the device's encryption
// key, producing the compact envelope a pairing payload arrives in.
func cloudEncryptForDevice(t *testing.T, keys *testKeys, plaintext string) string {
	t.Helper()
	encrypter, err := jose.NewEncrypter(
		jose.A256GCM,
		jose.Recipient{Algorithm: jose.RSA_OAEP_256, Key: &keys.deviceEncrypt.PublicKey},
		nil,
	)
	require.NoError(t, err)
	obj, err := encrypter.Encrypt([]byte(plaintext))
	require.NoError(t, err)
	compact, err := obj.CompactSerialize()
	require.NoError(t, err)
	return compact
}

// validPairingPayload builds a cloud-signed, device-encrypted pairing
// payload envelope.
func validPairingPayload(t *testing.T, keys *testKeys) string {
	t.Helper()
	claims := PairingPayloadClaims{
		User: &interfaces.PairedUser{
			UserID:    "usr-001",
			FirstName: "Ada",
			LastName:  "Byron",
			Email:     "ada@example.com",
			Phone:     "+44100200300",
		},
		Vehicle: &interfaces.PairedVehicle{
			VIN:      "1HGCM82633A004352",
			Make:     "Honda",
			Model:    "Accord",
			Year:     2003,
			FuelType: "gasoline",
		},
	}
	return cloudEncryptForDevice(t, keys, cloudSign(t, keys, claims))
}

// validRefreshToken builds a cloud-signed refresh token.
func validRefreshToken(t *testing.T, keys *testKeys, client string) string {
	t.Helper()
	now := time.Now()
	claims := RefreshClaims{
		Claims: jwt.Claims{
			Subject:  "usr-001",
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
		CarID:  "car-042",
		Client: client,
	}
	return cloudSign(t, keys, claims)
}
