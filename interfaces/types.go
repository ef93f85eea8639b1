package interfaces

import "time"

// ClientClass is the category of caller identified by the "client"
// claim of a token. It determines both the token TTL and the
// authentication path used to obtain the token.
type ClientClass string

const (
	// ClientFront is the on-dashboard touchscreen. It authenticates
	// once via the HMAC bootstrap channel and receives a long-lived
	// cookie token.
	ClientFront ClientClass = "front"

	// ClientMobile is the paired mobile app. It holds a cloud-issued
	// refresh token and exchanges it for short-lived access tokens.
	ClientMobile ClientClass = "mobile"
)

// FrontTokenTTL is the lifetime of tokens issued to the front client.
const FrontTokenTTL = 30 * 24 * time.Hour

// PairingChallengeTTL is the validity window of an outbound pairing
// challenge, independent of client class.
const PairingChallengeTTL = 5 * time.Minute

// VehicleProfile is the device's identity record. Exactly one row
// exists once the device has booted; the VIN, protocol and supported
// sensor list come from the hardware probe, the remaining metadata is
// filled in by the cloud during pairing.
type VehicleProfile struct {
	ID               string    `json:"id"`
	VIN              string    `json:"vin"`
	Protocol         string    `json:"protocol"`
	SupportedSensors []string  `json:"supportedSensors"`
	Make             string    `json:"make,omitempty"`
	Model            string    `json:"model,omitempty"`
	Year             int       `json:"year,omitempty"`
	Trim             string    `json:"trim,omitempty"`
	Color            string    `json:"color,omitempty"`
	EngineSize       string    `json:"engineSize,omitempty"`
	Transmission     string    `json:"transmission,omitempty"`
	FuelType         string    `json:"fuelType,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// User is the single locally registered user. The store enforces that
// at most one row exists (single-tenant device).
type User struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Settings is the user's preference tree, stored as a JSON column.
type Settings struct {
	Units         string               `json:"units"`
	Language      string               `json:"language"`
	Theme         string               `json:"theme"`
	AIChat        AIChatSettings       `json:"aiChat"`
	Dashboard     DashboardSettings    `json:"dashboard"`
	Notifications NotificationSettings `json:"notifications"`
	DataLogging   DataLoggingSettings  `json:"dataLogging"`
	Display       DisplaySettings      `json:"display"`
}

type AIChatSettings struct {
	Language string `json:"language"`
	Voice    string `json:"voice"`
	AutoPlay string `json:"autoPlay"`
}

type DashboardSettings struct {
	SelectedSensors []string `json:"selectedSensors"`
	RefreshRate     int      `json:"refreshRate"`
	ShowWarnings    bool     `json:"showWarnings"`
	AutoScale       bool     `json:"autoScale"`
	GaugeSize       int      `json:"gaugeSize"`
}

type NotificationSettings struct {
	Enabled      bool `json:"enabled"`
	Sound        bool `json:"sound"`
	Vibration    bool `json:"vibration"`
	CriticalOnly bool `json:"criticalOnly"`
}

type DataLoggingSettings struct {
	Enabled     bool `json:"enabled"`
	Interval    int  `json:"interval"`
	MaxFileSize int  `json:"maxFileSize"`
}

type DisplaySettings struct {
	KeepScreenOn bool   `json:"keepScreenOn"`
	Brightness   int    `json:"brightness"`
	Orientation  string `json:"orientation"`
}

// DefaultSettings returns the settings object assigned to a freshly
// registered user. Values mirror what the dashboard front-end expects
// on first contact.
func DefaultSettings() Settings {
	return Settings{
		Units:    "metric",
		Language: "en",
		Theme:    "dark",
		AIChat: AIChatSettings{
			Language: "en",
			Voice:    "default",
			AutoPlay: "off",
		},
		Dashboard: DashboardSettings{
			SelectedSensors: []string{"rpm", "speed", "coolant_temp"},
			RefreshRate:     1000,
			ShowWarnings:    true,
			AutoScale:       true,
			GaugeSize:       2,
		},
		Notifications: NotificationSettings{
			Enabled:      true,
			Sound:        true,
			Vibration:    false,
			CriticalOnly: false,
		},
		DataLogging: DataLoggingSettings{
			Enabled:     true,
			Interval:    5000,
			MaxFileSize: 50,
		},
		Display: DisplaySettings{
			KeepScreenOn: true,
			Brightness:   80,
			Orientation:  "landscape",
		},
	}
}

// VehicleInfo is what the hardware probe reports on first boot, before
// a profile row exists.
type VehicleInfo struct {
	VIN              string
	Protocol         string
	SupportedSensors []string
}

// PairedVehicle is the vehicle metadata the cloud supplies inside a
// pairing payload. Zero-valued fields are left untouched on the
// stored profile.
type PairedVehicle struct {
	VIN          string `json:"vin"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	Year         int    `json:"year,omitempty"`
	Trim         string `json:"trim,omitempty"`
	Color        string `json:"color,omitempty"`
	EngineSize   string `json:"engineSize,omitempty"`
	Transmission string `json:"transmission,omitempty"`
	FuelType     string `json:"fuelType,omitempty"`
}

// PairedUser is the user profile the cloud supplies inside a pairing
// payload.
type PairedUser struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}
