package vehicle

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/carlink/telemetry-device/interfaces"
)

// MockProvider is a testify mock of interfaces.VehicleProfileProvider
// for tests of auth and HTTP consumers.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetVehicleProfile(ctx context.Context) (*interfaces.VehicleProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.VehicleProfile), args.Error(1)
}

func (m *MockProvider) UpdateVehicleProfile(ctx context.Context, vehicle *interfaces.PairedVehicle) (*interfaces.VehicleProfile, error) {
	args := m.Called(ctx, vehicle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.VehicleProfile), args.Error(1)
}
