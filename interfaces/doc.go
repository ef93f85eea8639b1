// Package interfaces defines the core types and contracts for the
// on-vehicle telemetry device's trust and identity subsystem.
//
// This package provides the contracts between components without
// including implementation details. It separates the interface
// definitions from their implementations, allowing for:
//
//   - Clear separation of concerns
//   - Multiple implementations of the same interface
//   - Better testability through mock implementations
//   - Reduced coupling between components
//
// In particular, the auth package and the vehicle identity provider
// each need data from the other during pairing; both depend on the
// narrow contracts here instead of on each other.
//
// # Collaborator Interfaces
//
//   - VehicleProfileProvider: read/update access to the device's
//     single vehicle identity record
//   - UserStore: the single-row local user persistence store
//   - VehicleInfoSource: the hardware probe consulted on first boot
//
// # Type Definitions
//
//   - VehicleProfile: the device's identity record (VIN, protocol,
//     supported sensors, plus optional vehicle metadata)
//   - User / Settings: the single locally registered user and their
//     preference tree
//   - ClientClass: the category of caller carried in the token
//     "client" claim, which selects the token TTL policy
//
// # Error Taxonomy
//
// Sentinel errors for every failure class of the trust subsystem
// (decrypt, signature, claim, expiry, HMAC, user presence). HTTP
// handlers map the cryptographic subset uniformly to 401 so callers
// cannot distinguish which check failed.
package interfaces
