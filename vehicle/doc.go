// Package vehicle provides the device identity record.
//
// The provider owns the single vehicle profile: on first boot it
// probes the hardware for VIN, OBD protocol and the supported sensor
// set, and persists the result; on later boots it reads the stored
// row. During pairing the cloud supplies corrected vehicle metadata,
// which the provider merges into the stored profile.
//
// The auth package consumes this through the narrow
// interfaces.VehicleProfileProvider contract, which keeps the two
// packages free of a compile-time cycle. A testify-based mock of the
// contract lives here for tests of the consumers.
package vehicle
