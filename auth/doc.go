// Package auth implements the device's trust-establishment and token
// lifecycle core.
//
// The device participates in two asymmetric trust domains. During
// pairing it exchanges artifacts with the cloud identity service:
// outbound, a pairing challenge describing the vehicle, signed with
// the device key and encrypted for the cloud; inbound, a pairing
// payload encrypted for the device and signed by the cloud, plus a
// cloud-issued refresh token. After pairing the device is the sole
// issuer and verifier of the short-lived session tokens that guard
// its local API.
//
// Components:
//
//   - PairingChallengeIssuer: builds the sign-then-encrypt challenge
//     envelope shown to the user as a QR payload
//   - CloudTrustVerifier: decrypt-then-verify of inbound cloud
//     artifacts (pairing payloads, refresh tokens)
//   - LocalTokenIssuer / LocalTokenVerifier: RS256 session tokens in
//     the device's own trust domain, with per-client-class TTLs
//   - FrontBootstrapAuthenticator: HMAC-SHA256 gate for the trusted
//     dashboard client's one-time token bootstrap
//   - RegistrationCoordinator: orchestrates pairing, re-registration
//     and refresh
//   - UnlinkCoordinator: atomic teardown of the local identity state
//
// All cryptographic parameters are fixed: RS256 for signatures,
// RSA-OAEP-256 with A256GCM for encryption, compact serialization for
// both. Every verification failure maps to a sentinel from the
// interfaces package; HTTP handlers collapse the cryptographic subset
// into one uniform unauthorized response so callers cannot probe which
// check failed.
//
// Every operation here is a pure function of its inputs, the immutable
// KeyStore, and the clock; all components are safe for unbounded
// concurrent use.
package auth
