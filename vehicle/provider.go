package vehicle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carlink/telemetry-device/interfaces"
	"github.com/carlink/telemetry-device/storage"
)

// ProfileStore is the slice of the device store the provider needs.
type ProfileStore interface {
	FindVehicleProfile(ctx context.Context) (*interfaces.VehicleProfile, error)
	SaveVehicleProfile(ctx context.Context, profile *interfaces.VehicleProfile) error
	UpdateVehicleProfile(ctx context.Context, profile *interfaces.VehicleProfile) (*interfaces.VehicleProfile, error)
}

// Provider implements interfaces.VehicleProfileProvider over the
// device store and the hardware probe.
type Provider struct {
	store  ProfileStore
	source interfaces.VehicleInfoSource
	log    *slog.Logger
}

// NewProvider creates the provider. Call Initialize before serving
// requests.
func NewProvider(store ProfileStore, source interfaces.VehicleInfoSource, log *slog.Logger) *Provider {
	return &Provider{store: store, source: source, log: log}
}

// Initialize ensures a profile row exists, probing the hardware on
// the device's first boot. Part of the fail-closed startup sequence:
// the server must not listen until this succeeds.
func (p *Provider) Initialize(ctx context.Context) error {
	_, err := p.store.FindVehicleProfile(ctx)
	if err == nil {
		p.log.Debug("Vehicle profile already present")
		return nil
	}
	if !errors.Is(err, storage.ErrProfileNotFound) {
		return fmt.Errorf("checking vehicle profile: %w", err)
	}

	info, err := p.source.VehicleInfo()
	if err != nil {
		return fmt.Errorf("probing vehicle info: %w", err)
	}

	now := time.Now()
	profile := &interfaces.VehicleProfile{
		ID:               uuid.NewString(),
		VIN:              info.VIN,
		Protocol:         info.Protocol,
		SupportedSensors: info.SupportedSensors,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := p.store.SaveVehicleProfile(ctx, profile); err != nil {
		return fmt.Errorf("saving vehicle profile: %w", err)
	}

	p.log.Info("Vehicle profile initialized from hardware probe", "protocol", info.Protocol, "sensors", len(info.SupportedSensors))
	return nil
}

// GetVehicleProfile returns the stored profile.
func (p *Provider) GetVehicleProfile(ctx context.Context) (*interfaces.VehicleProfile, error) {
	return p.store.FindVehicleProfile(ctx)
}

// UpdateVehicleProfile merges the cloud-supplied metadata into the
// stored profile. Zero-valued fields leave the stored value in place;
// the probe-derived protocol and sensor list are never overwritten by
// the cloud.
func (p *Provider) UpdateVehicleProfile(ctx context.Context, vehicle *interfaces.PairedVehicle) (*interfaces.VehicleProfile, error) {
	current, err := p.store.FindVehicleProfile(ctx)
	if err != nil {
		return nil, err
	}

	merged := *current
	if vehicle.VIN != "" {
		merged.VIN = vehicle.VIN
	}
	if vehicle.Make != "" {
		merged.Make = vehicle.Make
	}
	if vehicle.Model != "" {
		merged.Model = vehicle.Model
	}
	if vehicle.Year != 0 {
		merged.Year = vehicle.Year
	}
	if vehicle.Trim != "" {
		merged.Trim = vehicle.Trim
	}
	if vehicle.Color != "" {
		merged.Color = vehicle.Color
	}
	if vehicle.EngineSize != "" {
		merged.EngineSize = vehicle.EngineSize
	}
	if vehicle.Transmission != "" {
		merged.Transmission = vehicle.Transmission
	}
	if vehicle.FuelType != "" {
		merged.FuelType = vehicle.FuelType
	}

	updated, err := p.store.UpdateVehicleProfile(ctx, &merged)
	if err != nil {
		return nil, err
	}

	p.log.Info("Vehicle profile updated from pairing payload")
	return updated, nil
}
