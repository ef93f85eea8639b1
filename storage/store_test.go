package storage

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlink/telemetry-device/interfaces"
)

func newStore(t *testing.T) *DeviceStore {
	t.Helper()
	store, err := Open(Config{
		Path:     "file::memory:?mode=memory&cache=shared",
		PoolSize: 1,
		Logger:   slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testUser() *interfaces.User {
	now := time.Now()
	return &interfaces.User{
		ID:        uuid.NewString(),
		UserID:    "usr-001",
		FirstName: "Ada",
		LastName:  "Byron",
		Email:     "ada@example.com",
		Phone:     "+44100200300",
		Settings:  interfaces.DefaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func seedProfile(t *testing.T, store *DeviceStore) *interfaces.VehicleProfile {
	t.Helper()
	now := time.Now()
	profile := &interfaces.VehicleProfile{
		ID:               uuid.NewString(),
		VIN:              "1HGCM82633A004352",
		Protocol:         "ISO15765-4",
		SupportedSensors: []string{"rpm", "speed"},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, store.SaveVehicleProfile(context.Background(), profile))
	return profile
}

func TestUserLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.FindUser(ctx)
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)

	require.NoError(t, store.CreateUser(ctx, testUser()))

	got, err := store.FindUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "usr-001", got.UserID)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "metric", got.Settings.Units)
	assert.True(t, got.Settings.Dashboard.ShowWarnings)

	byExternal, err := store.FindUserByExternalID(ctx, "usr-001")
	require.NoError(t, err)
	assert.Equal(t, got.ID, byExternal.ID)

	_, err = store.FindUserByExternalID(ctx, "usr-999")
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)

	require.NoError(t, store.DeleteUser(ctx))
	assert.ErrorIs(t, store.DeleteUser(ctx), interfaces.ErrUserNotFound)
}

// The device is single-tenant: a second user row is refused no matter
// what external id it carries.
func TestCreateUserSingleTenant(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser()))

	second := testUser()
	second.ID = uuid.NewString()
	second.UserID = "usr-002"
	assert.ErrorIs(t, store.CreateUser(ctx, second), interfaces.ErrUserExists)

	// The original row is untouched.
	got, err := store.FindUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "usr-001", got.UserID)
}

func TestUpdateUserSettings(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.UpdateUserSettings(ctx, interfaces.DefaultSettings())
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)

	require.NoError(t, store.CreateUser(ctx, testUser()))

	settings := interfaces.DefaultSettings()
	settings.Units = "imperial"
	settings.Dashboard.RefreshRate = 250

	updated, err := store.UpdateUserSettings(ctx, settings)
	require.NoError(t, err)
	assert.Equal(t, "imperial", updated.Settings.Units)
	assert.Equal(t, 250, updated.Settings.Dashboard.RefreshRate)

	// The change survives a reload.
	got, err := store.FindUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "imperial", got.Settings.Units)
}

func TestVehicleProfileLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.FindVehicleProfile(ctx)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	seeded := seedProfile(t, store)

	got, err := store.FindVehicleProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, seeded.VIN, got.VIN)
	assert.Equal(t, seeded.Protocol, got.Protocol)
	assert.Equal(t, []string{"rpm", "speed"}, got.SupportedSensors)
	assert.Empty(t, got.Make)

	got.Make = "Honda"
	got.Model = "Accord"
	got.Year = 2003
	updated, err := store.UpdateVehicleProfile(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Honda", updated.Make)
	assert.Equal(t, 2003, updated.Year)
	// Probe-derived fields are preserved across metadata updates.
	assert.Equal(t, seeded.VIN, updated.VIN)
	assert.Equal(t, seeded.Protocol, updated.Protocol)
}

func TestUpdateVehicleProfileWithoutRow(t *testing.T) {
	store := newStore(t)

	_, err := store.UpdateVehicleProfile(context.Background(), &interfaces.VehicleProfile{
		VIN: "1HGCM82633A004352",
	})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestUnlink(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	seedProfile(t, store)
	require.NoError(t, store.CreateUser(ctx, testUser()))

	require.NoError(t, store.Unlink(ctx))

	_, err := store.FindUser(ctx)
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)
	_, err = store.FindVehicleProfile(ctx)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

// Unlinking with no registered user must not delete the profile: the
// transaction rolls back as a unit.
func TestUnlinkWithoutUserKeepsProfile(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	seedProfile(t, store)

	assert.ErrorIs(t, store.Unlink(ctx), interfaces.ErrUserNotFound)

	_, err := store.FindVehicleProfile(ctx)
	require.NoError(t, err)
}
