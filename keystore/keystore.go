package keystore

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

// KeyPaths locates the six PEM files on disk. Paths are resolved per
// deployment target; DefaultKeyPaths builds the standard layout under
// a single directory.
type KeyPaths struct {
	DeviceSigningPrivate    string
	DeviceEncryptionPrivate string
	LocalSigningPrivate     string
	LocalSigningPublic      string
	CloudEncryptionPublic   string
	CloudSigningPublic      string
}

// DefaultKeyPaths returns the standard key file layout under dir.
func DefaultKeyPaths(dir string) KeyPaths {
	return KeyPaths{
		DeviceSigningPrivate:    filepath.Join(dir, "device-signing-private.pem"),
		DeviceEncryptionPrivate: filepath.Join(dir, "device-encryption-private.pem"),
		LocalSigningPrivate:     filepath.Join(dir, "local-signing-private.pem"),
		LocalSigningPublic:      filepath.Join(dir, "local-signing-public.pem"),
		CloudEncryptionPublic:   filepath.Join(dir, "cloud-encryption-public.pem"),
		CloudSigningPublic:      filepath.Join(dir, "cloud-signing-public.pem"),
	}
}

// KeyStore holds the parsed key material. Construct it with Load (or
// NewFromKeys in tests); the zero value is unusable. Accessors must
// only be called after a successful Load; startup ordering, not
// runtime checks, guarantees this.
type KeyStore struct {
	deviceSigningPrivate    *rsa.PrivateKey
	deviceEncryptionPrivate *rsa.PrivateKey
	localSigningPrivate     *rsa.PrivateKey
	localSigningPublic      *rsa.PublicKey
	cloudEncryptionPublic   *rsa.PublicKey
	cloudSigningPublic      *rsa.PublicKey
}

// Load reads and parses all six key files. It succeeds only if every
// file reads and parses as the expected key type; any failure is
// returned so the caller can abort startup.
func Load(paths KeyPaths) (*KeyStore, error) {
	deviceSigning, err := loadPrivateKey(paths.DeviceSigningPrivate)
	if err != nil {
		return nil, fmt.Errorf("device signing key: %w", err)
	}
	deviceEncryption, err := loadPrivateKey(paths.DeviceEncryptionPrivate)
	if err != nil {
		return nil, fmt.Errorf("device encryption key: %w", err)
	}
	localSigning, err := loadPrivateKey(paths.LocalSigningPrivate)
	if err != nil {
		return nil, fmt.Errorf("local signing private key: %w", err)
	}
	localSigningPub, err := loadPublicKey(paths.LocalSigningPublic)
	if err != nil {
		return nil, fmt.Errorf("local signing public key: %w", err)
	}
	cloudEncryption, err := loadPublicKey(paths.CloudEncryptionPublic)
	if err != nil {
		return nil, fmt.Errorf("cloud encryption key: %w", err)
	}
	cloudSigning, err := loadPublicKey(paths.CloudSigningPublic)
	if err != nil {
		return nil, fmt.Errorf("cloud signing key: %w", err)
	}

	return &KeyStore{
		deviceSigningPrivate:    deviceSigning,
		deviceEncryptionPrivate: deviceEncryption,
		localSigningPrivate:     localSigning,
		localSigningPublic:      localSigningPub,
		cloudEncryptionPublic:   cloudEncryption,
		cloudSigningPublic:      cloudSigning,
	}, nil
}

// NewFromKeys builds a store from already-parsed keys. Intended for
// tests that generate throwaway keypairs.
func NewFromKeys(deviceSigning, deviceEncryption, localSigning *rsa.PrivateKey, cloudEncryption, cloudSigning *rsa.PublicKey) *KeyStore {
	return &KeyStore{
		deviceSigningPrivate:    deviceSigning,
		deviceEncryptionPrivate: deviceEncryption,
		localSigningPrivate:     localSigning,
		localSigningPublic:      &localSigning.PublicKey,
		cloudEncryptionPublic:   cloudEncryption,
		cloudSigningPublic:      cloudSigning,
	}
}

// DeviceSigningPrivateKey signs outbound pairing challenges.
func (s *KeyStore) DeviceSigningPrivateKey() *rsa.PrivateKey {
	return s.deviceSigningPrivate
}

// DeviceEncryptionPrivateKey decrypts inbound pairing payloads.
func (s *KeyStore) DeviceEncryptionPrivateKey() *rsa.PrivateKey {
	return s.deviceEncryptionPrivate
}

// LocalSigningPrivateKey signs locally issued access tokens.
func (s *KeyStore) LocalSigningPrivateKey() *rsa.PrivateKey {
	return s.localSigningPrivate
}

// LocalSigningPublicKey verifies locally issued access tokens.
func (s *KeyStore) LocalSigningPublicKey() *rsa.PublicKey {
	return s.localSigningPublic
}

// CloudEncryptionPublicKey encrypts pairing challenges for the cloud.
func (s *KeyStore) CloudEncryptionPublicKey() *rsa.PublicKey {
	return s.cloudEncryptionPublic
}

// CloudSigningPublicKey verifies cloud-signed artifacts.
func (s *KeyStore) CloudSigningPublicKey() *rsa.PublicKey {
	return s.cloudSigningPublic
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#8 private key %s: %w", path, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key %s is %T, expected RSA private key", path, parsed)
	}
	return key, nil
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing SPKI public key %s: %w", path, err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key %s is %T, expected RSA public key", path, parsed)
	}
	return key, nil
}

func readPEM(path string) (*pem.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	return block, nil
}
