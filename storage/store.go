package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/carlink/telemetry-device/interfaces"
)

// ErrProfileNotFound is returned when no vehicle profile row exists.
// Only the first boot ever observes it; the vehicle provider seeds the
// row from the hardware probe.
var ErrProfileNotFound = errors.New("vehicle profile not found")

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL UNIQUE,
	first_name  TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	settings    TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS vehicle_profiles (
	id                TEXT PRIMARY KEY,
	vin               TEXT NOT NULL,
	protocol          TEXT NOT NULL,
	supported_sensors TEXT NOT NULL,
	make              TEXT NOT NULL DEFAULT '',
	model             TEXT NOT NULL DEFAULT '',
	year              INTEGER NOT NULL DEFAULT 0,
	trim              TEXT NOT NULL DEFAULT '',
	color             TEXT NOT NULL DEFAULT '',
	engine_size       TEXT NOT NULL DEFAULT '',
	transmission      TEXT NOT NULL DEFAULT '',
	fuel_type         TEXT NOT NULL DEFAULT '',
	created_at        INTEGER NOT NULL,
	updated_at        INTEGER NOT NULL
);
`

// Config holds the parameters for opening the device store.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// file is created if it does not exist. Use ":memory:" with
	// PoolSize 1 for tests.
	Path string

	// PoolSize is the number of pooled connections. Defaults to 4 if
	// zero or negative.
	PoolSize int

	// Logger receives operational messages.
	Logger *slog.Logger
}

// DeviceStore is the SQLite-backed persistence store for the local
// user and the vehicle profile. It implements interfaces.UserStore
// and interfaces.Unlinker, and backs the vehicle identity provider.
type DeviceStore struct {
	pool *sqlitex.Pool
	log  *slog.Logger
}

// Open creates the store, opening the database file and applying the
// schema. The caller must Close the store when done.
func Open(cfg Config) (*DeviceStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("device store: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			if err := sqlitex.ExecuteTransient(conn, "PRAGMA journal_mode = WAL", nil); err != nil {
				return err
			}
			if err := sqlitex.ExecuteTransient(conn, "PRAGMA synchronous = NORMAL", nil); err != nil {
				return err
			}
			if err := sqlitex.ExecuteTransient(conn, "PRAGMA busy_timeout = 5000", nil); err != nil {
				return err
			}
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("device store: opening %s: %w", cfg.Path, err)
	}

	logger.Info("Device store opened", "path", cfg.Path, "pool_size", poolSize)
	return &DeviceStore{pool: pool, log: logger}, nil
}

// Close closes the connection pool. Blocks until all borrowed
// connections are returned.
func (s *DeviceStore) Close() error {
	return s.pool.Close()
}

// FindUser returns the single registered user, or
// interfaces.ErrUserNotFound.
func (s *DeviceStore) FindUser(ctx context.Context) (*interfaces.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("device store: find user: %w", err)
	}
	defer s.pool.Put(conn)

	return s.queryUser(conn, "SELECT * FROM users LIMIT 1", nil)
}

// FindUserByExternalID returns the user with the given external id,
// or interfaces.ErrUserNotFound.
func (s *DeviceStore) FindUserByExternalID(ctx context.Context, userID string) (*interfaces.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("device store: find user: %w", err)
	}
	defer s.pool.Put(conn)

	return s.queryUser(conn, "SELECT * FROM users WHERE user_id = ?", []any{userID})
}

// CreateUser inserts the user. The single-tenant invariant is enforced
// here: if any user row already exists the insert is refused with
// interfaces.ErrUserExists.
func (s *DeviceStore) CreateUser(ctx context.Context, user *interfaces.User) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("device store: create user: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("device store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	var count int64
	err = sqlitex.Execute(conn, "SELECT COUNT(*) FROM users", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("device store: counting users: %w", err)
	}
	if count > 0 {
		err = interfaces.ErrUserExists
		return err
	}

	settingsJSON, err := json.Marshal(user.Settings)
	if err != nil {
		return fmt.Errorf("device store: marshal settings: %w", err)
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO users (id, user_id, first_name, last_name, email, phone, settings, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				user.ID,
				user.UserID,
				user.FirstName,
				user.LastName,
				user.Email,
				user.Phone,
				string(settingsJSON),
				user.CreatedAt.Unix(),
				user.UpdatedAt.Unix(),
			},
		})
	if err != nil {
		return fmt.Errorf("device store: insert user: %w", err)
	}
	return nil
}

// UpdateUserSettings replaces the stored settings object and returns
// the updated user.
func (s *DeviceStore) UpdateUserSettings(ctx context.Context, settings interfaces.Settings) (*interfaces.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("device store: update settings: %w", err)
	}
	defer s.pool.Put(conn)

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("device store: marshal settings: %w", err)
	}

	err = sqlitex.Execute(conn,
		"UPDATE users SET settings = ?, updated_at = ?",
		&sqlitex.ExecOptions{
			Args: []any{string(settingsJSON), time.Now().Unix()},
		})
	if err != nil {
		return nil, fmt.Errorf("device store: update settings: %w", err)
	}
	if conn.Changes() == 0 {
		return nil, interfaces.ErrUserNotFound
	}

	return s.queryUser(conn, "SELECT * FROM users LIMIT 1", nil)
}

// DeleteUser removes the user row. Returns
// interfaces.ErrUserNotFound when nothing was deleted.
func (s *DeviceStore) DeleteUser(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("device store: delete user: %w", err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Execute(conn, "DELETE FROM users", nil); err != nil {
		return fmt.Errorf("device store: delete user: %w", err)
	}
	if conn.Changes() == 0 {
		return interfaces.ErrUserNotFound
	}
	return nil
}

// FindVehicleProfile returns the profile row, or ErrProfileNotFound.
func (s *DeviceStore) FindVehicleProfile(ctx context.Context) (*interfaces.VehicleProfile, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("device store: find profile: %w", err)
	}
	defer s.pool.Put(conn)

	return s.queryProfile(conn)
}

// SaveVehicleProfile inserts the first-boot profile row.
func (s *DeviceStore) SaveVehicleProfile(ctx context.Context, profile *interfaces.VehicleProfile) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("device store: save profile: %w", err)
	}
	defer s.pool.Put(conn)

	sensorsJSON, err := json.Marshal(profile.SupportedSensors)
	if err != nil {
		return fmt.Errorf("device store: marshal sensors: %w", err)
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO vehicle_profiles
		 (id, vin, protocol, supported_sensors, make, model, year, trim, color,
		  engine_size, transmission, fuel_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				profile.ID,
				profile.VIN,
				profile.Protocol,
				string(sensorsJSON),
				profile.Make,
				profile.Model,
				profile.Year,
				profile.Trim,
				profile.Color,
				profile.EngineSize,
				profile.Transmission,
				profile.FuelType,
				profile.CreatedAt.Unix(),
				profile.UpdatedAt.Unix(),
			},
		})
	if err != nil {
		return fmt.Errorf("device store: insert profile: %w", err)
	}
	return nil
}

// UpdateVehicleProfile rewrites the profile row and returns the
// updated record.
func (s *DeviceStore) UpdateVehicleProfile(ctx context.Context, profile *interfaces.VehicleProfile) (*interfaces.VehicleProfile, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("device store: update profile: %w", err)
	}
	defer s.pool.Put(conn)

	sensorsJSON, err := json.Marshal(profile.SupportedSensors)
	if err != nil {
		return nil, fmt.Errorf("device store: marshal sensors: %w", err)
	}

	err = sqlitex.Execute(conn,
		`UPDATE vehicle_profiles SET
		 vin = ?, protocol = ?, supported_sensors = ?, make = ?, model = ?,
		 year = ?, trim = ?, color = ?, engine_size = ?, transmission = ?,
		 fuel_type = ?, updated_at = ?`,
		&sqlitex.ExecOptions{
			Args: []any{
				profile.VIN,
				profile.Protocol,
				string(sensorsJSON),
				profile.Make,
				profile.Model,
				profile.Year,
				profile.Trim,
				profile.Color,
				profile.EngineSize,
				profile.Transmission,
				profile.FuelType,
				time.Now().Unix(),
			},
		})
	if err != nil {
		return nil, fmt.Errorf("device store: update profile: %w", err)
	}
	if conn.Changes() == 0 {
		return nil, ErrProfileNotFound
	}

	return s.queryProfile(conn)
}

// Unlink deletes the user and the vehicle profile in one transaction.
// Either both rows are removed or neither is. Returns
// interfaces.ErrUserNotFound when no user is registered; in that case
// the profile is left untouched too.
func (s *DeviceStore) Unlink(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("device store: unlink: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("device store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	if err = sqlitex.Execute(conn, "DELETE FROM users", nil); err != nil {
		return fmt.Errorf("device store: delete user: %w", err)
	}
	if conn.Changes() == 0 {
		err = interfaces.ErrUserNotFound
		return err
	}

	if err = sqlitex.Execute(conn, "DELETE FROM vehicle_profiles", nil); err != nil {
		return fmt.Errorf("device store: delete profile: %w", err)
	}

	s.log.Info("Identity state removed")
	return nil
}

func (s *DeviceStore) queryUser(conn *sqlite.Conn, query string, args []any) (*interfaces.User, error) {
	var user *interfaces.User
	var scanErr error
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			u := &interfaces.User{
				ID:        stmt.GetText("id"),
				UserID:    stmt.GetText("user_id"),
				FirstName: stmt.GetText("first_name"),
				LastName:  stmt.GetText("last_name"),
				Email:     stmt.GetText("email"),
				Phone:     stmt.GetText("phone"),
				CreatedAt: time.Unix(stmt.GetInt64("created_at"), 0),
				UpdatedAt: time.Unix(stmt.GetInt64("updated_at"), 0),
			}
			if err := json.Unmarshal([]byte(stmt.GetText("settings")), &u.Settings); err != nil {
				scanErr = fmt.Errorf("device store: unmarshal settings: %w", err)
				return scanErr
			}
			user = u
			return nil
		},
	})
	if err != nil {
		if scanErr != nil {
			return nil, scanErr
		}
		return nil, fmt.Errorf("device store: query user: %w", err)
	}
	if user == nil {
		return nil, interfaces.ErrUserNotFound
	}
	return user, nil
}

func (s *DeviceStore) queryProfile(conn *sqlite.Conn) (*interfaces.VehicleProfile, error) {
	var profile *interfaces.VehicleProfile
	var scanErr error
	err := sqlitex.Execute(conn, "SELECT * FROM vehicle_profiles LIMIT 1", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			p := &interfaces.VehicleProfile{
				ID:           stmt.GetText("id"),
				VIN:          stmt.GetText("vin"),
				Protocol:     stmt.GetText("protocol"),
				Make:         stmt.GetText("make"),
				Model:        stmt.GetText("model"),
				Year:         int(stmt.GetInt64("year")),
				Trim:         stmt.GetText("trim"),
				Color:        stmt.GetText("color"),
				EngineSize:   stmt.GetText("engine_size"),
				Transmission: stmt.GetText("transmission"),
				FuelType:     stmt.GetText("fuel_type"),
				CreatedAt:    time.Unix(stmt.GetInt64("created_at"), 0),
				UpdatedAt:    time.Unix(stmt.GetInt64("updated_at"), 0),
			}
			if err := json.Unmarshal([]byte(stmt.GetText("supported_sensors")), &p.SupportedSensors); err != nil {
				scanErr = fmt.Errorf("device store: unmarshal sensors: %w", err)
				return scanErr
			}
			profile = p
			return nil
		},
	})
	if err != nil {
		if scanErr != nil {
			return nil, scanErr
		}
		return nil, fmt.Errorf("device store: query profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}
