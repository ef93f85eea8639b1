package interfaces

import "context"

// VehicleProfileProvider gives the auth subsystem read and update
// access to the device's single vehicle identity record. The vehicle
// package implements it; auth depends only on this contract, which
// breaks the dependency cycle between the two.
type VehicleProfileProvider interface {
	// GetVehicleProfile returns the current profile. The profile is
	// created at boot, so after startup this never reports absence.
	GetVehicleProfile(ctx context.Context) (*VehicleProfile, error)

	// UpdateVehicleProfile merges cloud-supplied vehicle metadata into
	// the stored profile and returns the updated record.
	UpdateVehicleProfile(ctx context.Context, vehicle *PairedVehicle) (*VehicleProfile, error)
}

// UserStore is the single-row persistence store for the locally
// registered user.
type UserStore interface {
	// FindUser returns the user, or ErrUserNotFound when the device
	// has no registered user.
	FindUser(ctx context.Context) (*User, error)

	// FindUserByExternalID returns the user whose external userId
	// matches, or ErrUserNotFound.
	FindUserByExternalID(ctx context.Context, userID string) (*User, error)

	// CreateUser inserts the user. Returns ErrUserExists if a user is
	// already registered.
	CreateUser(ctx context.Context, user *User) error

	// UpdateUserSettings replaces the stored settings object.
	UpdateUserSettings(ctx context.Context, settings Settings) (*User, error)

	// DeleteUser removes the user. Returns ErrUserNotFound when there
	// is nothing to delete.
	DeleteUser(ctx context.Context) error
}

// Unlinker removes the local user and the vehicle identity record as
// one atomic unit. Either both rows are gone afterwards or neither is.
type Unlinker interface {
	// Unlink deletes both records in a single transaction. Returns
	// ErrUserNotFound when no user is registered.
	Unlink(ctx context.Context) error
}

// VehicleInfoSource is the hardware probe consulted once, on the
// device's first boot, to seed the vehicle profile.
type VehicleInfoSource interface {
	VehicleInfo() (*VehicleInfo, error)
}
