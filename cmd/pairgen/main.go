// The pairgen binary provisions a device's key material: the six PEM
// files the server loads at boot, plus the cloud-side private keys
// needed to exercise a full pairing exchange on a bench without the
// real identity service.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/carlink/telemetry-device/cmd/flags"
	"github.com/carlink/telemetry-device/keystore"
)

const rsaKeyBits = 2048

func main() {
	app := &cli.App{
		Name:  "pairgen",
		Usage: "Generate device key material and a bench cloud keypair set",
		Flags: []cli.Flag{
			flags.KeysDirFlag,
			&cli.StringFlag{
				Name:  "cloud-keys-dir",
				Value: "./cloud-keys",
				Usage: "directory for the cloud-side private keys (bench use only)",
			},
			&cli.BoolFlag{
				Name:  "front-secret",
				Value: true,
				Usage: "also print a generated front bootstrap secret",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	keysDir := cCtx.String(flags.KeysDirFlag.Name)
	cloudDir := cCtx.String("cloud-keys-dir")

	if err := os.MkdirAll(keysDir, 0700); err != nil {
		return fmt.Errorf("creating keys dir: %w", err)
	}
	if err := os.MkdirAll(cloudDir, 0700); err != nil {
		return fmt.Errorf("creating cloud keys dir: %w", err)
	}

	paths := keystore.DefaultKeyPaths(keysDir)

	deviceSigning, err := generateKey()
	if err != nil {
		return err
	}
	deviceEncryption, err := generateKey()
	if err != nil {
		return err
	}
	localSigning, err := generateKey()
	if err != nil {
		return err
	}
	cloudSigning, err := generateKey()
	if err != nil {
		return err
	}
	cloudEncryption, err := generateKey()
	if err != nil {
		return err
	}

	// Device-side files: the six the server loads at boot.
	if err := writePrivate(paths.DeviceSigningPrivate, deviceSigning); err != nil {
		return err
	}
	if err := writePrivate(paths.DeviceEncryptionPrivate, deviceEncryption); err != nil {
		return err
	}
	if err := writePrivate(paths.LocalSigningPrivate, localSigning); err != nil {
		return err
	}
	if err := writePublic(paths.LocalSigningPublic, &localSigning.PublicKey); err != nil {
		return err
	}
	if err := writePublic(paths.CloudEncryptionPublic, &cloudEncryption.PublicKey); err != nil {
		return err
	}
	if err := writePublic(paths.CloudSigningPublic, &cloudSigning.PublicKey); err != nil {
		return err
	}

	// Cloud-side files: what a bench "cloud" needs to decrypt pairing
	// challenges and sign pairing payloads and refresh tokens.
	if err := writePrivate(filepath.Join(cloudDir, "cloud-signing-private.pem"), cloudSigning); err != nil {
		return err
	}
	if err := writePrivate(filepath.Join(cloudDir, "cloud-encryption-private.pem"), cloudEncryption); err != nil {
		return err
	}
	if err := writePublic(filepath.Join(cloudDir, "device-signing-public.pem"), &deviceSigning.PublicKey); err != nil {
		return err
	}
	if err := writePublic(filepath.Join(cloudDir, "device-encryption-public.pem"), &deviceEncryption.PublicKey); err != nil {
		return err
	}

	fmt.Printf("device keys written to %s\n", keysDir)
	fmt.Printf("cloud keys written to %s\n", cloudDir)

	if cCtx.Bool("front-secret") {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generating front secret: %w", err)
		}
		fmt.Printf("front secret: %s\n", hex.EncodeToString(secret))
	}

	return nil
}

func generateKey() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}
	return key, nil
}

func writePrivate(path string, key *rsa.PrivateKey) error {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshaling private key: %w", err)
	}
	return writePEM(path, "PRIVATE KEY", der, 0600)
}

func writePublic(path string, key *rsa.PublicKey) error {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return fmt.Errorf("marshaling public key: %w", err)
	}
	return writePEM(path, "PUBLIC KEY", der, 0644)
}

func writePEM(path, blockType string, der []byte, mode os.FileMode) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
