package vehicle

import "github.com/carlink/telemetry-device/interfaces"

// SimulatedSource is a VehicleInfoSource for bench setups without an
// OBD adapter attached. It reports a fixed vehicle.
type SimulatedSource struct{}

// VehicleInfo returns the simulated probe result.
func (SimulatedSource) VehicleInfo() (*interfaces.VehicleInfo, error) {
	return &interfaces.VehicleInfo{
		VIN:      "1HGCM82633A004352",
		Protocol: "ISO15765-4",
		SupportedSensors: []string{
			"rpm",
			"speed",
			"coolant_temp",
			"intake_temp",
			"throttle_pos",
			"engine_load",
			"fuel_level",
		},
	}, nil
}
