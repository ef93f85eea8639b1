package keystore

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrivatePEM(t *testing.T, path string, key any) {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func writePublicPEM(t *testing.T, path string, key any) {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(key)
	require.NoError(t, err)
	data := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// writeKeySet materializes a full six-file layout under dir and
// returns the private halves for comparison.
func writeKeySet(t *testing.T, dir string) (deviceSigning, localSigning *rsa.PrivateKey) {
	t.Helper()
	gen := func() *rsa.PrivateKey {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		return key
	}
	deviceSigning = gen()
	deviceEncryption := gen()
	localSigning = gen()
	cloudEncryption := gen()
	cloudSigning := gen()

	paths := DefaultKeyPaths(dir)
	writePrivatePEM(t, paths.DeviceSigningPrivate, deviceSigning)
	writePrivatePEM(t, paths.DeviceEncryptionPrivate, deviceEncryption)
	writePrivatePEM(t, paths.LocalSigningPrivate, localSigning)
	writePublicPEM(t, paths.LocalSigningPublic, &localSigning.PublicKey)
	writePublicPEM(t, paths.CloudEncryptionPublic, &cloudEncryption.PublicKey)
	writePublicPEM(t, paths.CloudSigningPublic, &cloudSigning.PublicKey)
	return deviceSigning, localSigning
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	deviceSigning, localSigning := writeKeySet(t, dir)

	store, err := Load(DefaultKeyPaths(dir))
	require.NoError(t, err)

	assert.True(t, deviceSigning.Equal(store.DeviceSigningPrivateKey()))
	assert.True(t, localSigning.Equal(store.LocalSigningPrivateKey()))
	assert.True(t, localSigning.PublicKey.Equal(store.LocalSigningPublicKey()))
	assert.NotNil(t, store.DeviceEncryptionPrivateKey())
	assert.NotNil(t, store.CloudEncryptionPublicKey())
	assert.NotNil(t, store.CloudSigningPublicKey())
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeKeySet(t, dir)

	paths := DefaultKeyPaths(dir)
	require.NoError(t, os.Remove(paths.CloudSigningPublic))

	_, err := Load(paths)
	require.Error(t, err)
	// The error names which key failed so boot logs are actionable.
	assert.Contains(t, err.Error(), "cloud signing key")
}

func TestLoadRejectsNonPEM(t *testing.T) {
	dir := t.TempDir()
	writeKeySet(t, dir)

	paths := DefaultKeyPaths(dir)
	require.NoError(t, os.WriteFile(paths.DeviceSigningPrivate, []byte("not a key"), 0o600))

	_, err := Load(paths)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device signing key")
	assert.Contains(t, err.Error(), "no PEM block")
}

func TestLoadRejectsWrongKeyType(t *testing.T) {
	dir := t.TempDir()
	writeKeySet(t, dir)

	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	paths := DefaultKeyPaths(dir)
	writePrivatePEM(t, paths.LocalSigningPrivate, ec)

	_, err = Load(paths)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected RSA private key")
}

func TestDefaultKeyPaths(t *testing.T) {
	paths := DefaultKeyPaths("/opt/car/keys")
	assert.Equal(t, filepath.Join("/opt/car/keys", "device-signing-private.pem"), paths.DeviceSigningPrivate)
	assert.Equal(t, filepath.Join("/opt/car/keys", "cloud-signing-public.pem"), paths.CloudSigningPublic)
}
