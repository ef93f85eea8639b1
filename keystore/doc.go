// Package keystore loads and holds the device's key material.
//
// The store covers two independent trust domains:
//
//   - Cloud trust domain: the device signing key (signs outbound
//     pairing challenges), the device encryption key (decrypts inbound
//     pairing payloads), and the cloud's public signing and encryption
//     keys.
//   - Local trust domain: the device's own signing keypair, used only
//     for access tokens the device itself issues and verifies.
//
// All six keys are RSA, read once at boot from PEM files (PKCS#8 for
// private keys, SPKI for public keys). Any read or parse failure is
// fatal: the server must not start with partial trust material, so
// Load's error aborts process startup. After a successful Load the
// store is immutable and safe to share across goroutines without
// locking. Key material is never logged.
//
// A key loaded for encryption is never handed out for signature
// verification or vice versa; the typed accessors are the only way to
// reach a key.
package keystore
