package vehicle

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlink/telemetry-device/interfaces"
	"github.com/carlink/telemetry-device/storage"
)

func newProvider(t *testing.T) (*Provider, *storage.DeviceStore) {
	t.Helper()
	store, err := storage.Open(storage.Config{
		Path:     "file::memory:?mode=memory&cache=shared",
		PoolSize: 1,
		Logger:   slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewProvider(store, SimulatedSource{}, slog.New(slog.DiscardHandler)), store
}

func TestInitializeFirstBoot(t *testing.T) {
	provider, store := newProvider(t)
	ctx := context.Background()

	_, err := store.FindVehicleProfile(ctx)
	require.ErrorIs(t, err, storage.ErrProfileNotFound)

	require.NoError(t, provider.Initialize(ctx))

	profile, err := provider.GetVehicleProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1HGCM82633A004352", profile.VIN)
	assert.Equal(t, "ISO15765-4", profile.Protocol)
	assert.Len(t, profile.SupportedSensors, 7)
	assert.NotEmpty(t, profile.ID)
}

// A second boot finds the row and must not probe again or replace it.
func TestInitializeIsIdempotent(t *testing.T) {
	provider, _ := newProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.Initialize(ctx))
	first, err := provider.GetVehicleProfile(ctx)
	require.NoError(t, err)

	require.NoError(t, provider.Initialize(ctx))
	second, err := provider.GetVehicleProfile(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

type failingSource struct{}

func (failingSource) VehicleInfo() (*interfaces.VehicleInfo, error) {
	return nil, errors.New("adapter not responding")
}

func TestInitializeProbeFailure(t *testing.T) {
	store, err := storage.Open(storage.Config{
		Path:     "file::memory:?mode=memory&cache=shared",
		PoolSize: 1,
		Logger:   slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	provider := NewProvider(store, failingSource{}, slog.New(slog.DiscardHandler))
	err = provider.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapter not responding")
}

func TestUpdateVehicleProfileMerge(t *testing.T) {
	provider, _ := newProvider(t)
	ctx := context.Background()
	require.NoError(t, provider.Initialize(ctx))

	updated, err := provider.UpdateVehicleProfile(ctx, &interfaces.PairedVehicle{
		Make:     "Honda",
		Model:    "Accord",
		Year:     2003,
		FuelType: "gasoline",
	})
	require.NoError(t, err)

	assert.Equal(t, "Honda", updated.Make)
	assert.Equal(t, "Accord", updated.Model)
	assert.Equal(t, 2003, updated.Year)
	assert.Equal(t, "gasoline", updated.FuelType)
	// Probe-derived identity survives the merge untouched.
	assert.Equal(t, "1HGCM82633A004352", updated.VIN)
	assert.Equal(t, "ISO15765-4", updated.Protocol)
	assert.Len(t, updated.SupportedSensors, 7)

	// Zero-valued fields in a later payload leave stored values alone.
	again, err := provider.UpdateVehicleProfile(ctx, &interfaces.PairedVehicle{Color: "silver"})
	require.NoError(t, err)
	assert.Equal(t, "Honda", again.Make)
	assert.Equal(t, "silver", again.Color)
}

func TestUpdateVehicleProfileBeforeInitialize(t *testing.T) {
	provider, _ := newProvider(t)

	_, err := provider.UpdateVehicleProfile(context.Background(), &interfaces.PairedVehicle{Make: "Honda"})
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)
}
