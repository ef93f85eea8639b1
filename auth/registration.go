package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carlink/telemetry-device/interfaces"
)

// RegistrationCoordinator orchestrates first-time pairing,
// re-registration and token refresh. It is the only component that
// composes both trust domains: cloud artifacts are checked by the
// CloudTrustVerifier, then the local issuer mints the first access
// token of the session.
type RegistrationCoordinator struct {
	cloud    *CloudTrustVerifier
	issuer   *LocalTokenIssuer
	users    interfaces.UserStore
	profiles interfaces.VehicleProfileProvider
	log      *slog.Logger
}

// NewRegistrationCoordinator wires the coordinator to its
// collaborators.
func NewRegistrationCoordinator(cloud *CloudTrustVerifier, issuer *LocalTokenIssuer, users interfaces.UserStore, profiles interfaces.VehicleProfileProvider, log *slog.Logger) *RegistrationCoordinator {
	return &RegistrationCoordinator{
		cloud:    cloud,
		issuer:   issuer,
		users:    users,
		profiles: profiles,
		log:      log,
	}
}

// Register completes a pairing exchange. It verifies the pairing
// payload and the refresh token, creates the local user if the
// external id is new, refreshes the vehicle profile from the
// cloud-supplied metadata, and issues the first access token.
//
// Registering again with the same external user id is an idempotent
// no-op for user creation; the profile is still refreshed and a
// fresh token issued. This mirrors the upstream contract; it is a
// policy choice, not an accident.
//
// Returns the access token and the client class it was issued for,
// taken from the refresh token's client claim.
func (c *RegistrationCoordinator) Register(ctx context.Context, refreshToken, payloadData string) (string, interfaces.ClientClass, error) {
	payload, err := c.cloud.VerifyPairingPayload(payloadData)
	if err != nil {
		return "", "", fmt.Errorf("pairing payload rejected: %w", err)
	}

	refresh, err := c.cloud.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("refresh token rejected: %w", err)
	}

	if err := c.ensureUser(ctx, payload.User); err != nil {
		return "", "", err
	}

	if _, err := c.profiles.UpdateVehicleProfile(ctx, payload.Vehicle); err != nil {
		return "", "", fmt.Errorf("updating vehicle profile: %w", err)
	}

	client := interfaces.ClientClass(refresh.Client)
	token, err := c.issuer.Issue(refresh.Subject, refresh.CarID, client)
	if err != nil {
		return "", "", fmt.Errorf("issuing access token: %w", err)
	}

	c.log.Info("Device pairing completed", "client", refresh.Client)
	return token, client, nil
}

// Refresh exchanges a valid cloud-issued refresh token for a fresh
// local access token. Neither the user record nor the vehicle profile
// is touched. Returns the token and the client class it was issued
// for.
func (c *RegistrationCoordinator) Refresh(ctx context.Context, refreshToken string) (string, interfaces.ClientClass, error) {
	refresh, err := c.cloud.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("refresh token rejected: %w", err)
	}

	client := interfaces.ClientClass(refresh.Client)
	token, err := c.issuer.Issue(refresh.Subject, refresh.CarID, client)
	if err != nil {
		return "", "", fmt.Errorf("issuing access token: %w", err)
	}
	return token, client, nil
}

// ensureUser creates the local user for the paired external identity
// unless one with the same external id already exists.
func (c *RegistrationCoordinator) ensureUser(ctx context.Context, paired *interfaces.PairedUser) error {
	_, err := c.users.FindUserByExternalID(ctx, paired.UserID)
	if err == nil {
		c.log.Info("User already registered, skipping creation", "sub_set", paired.UserID != "")
		return nil
	}
	if !errors.Is(err, interfaces.ErrUserNotFound) {
		return fmt.Errorf("looking up user: %w", err)
	}

	now := time.Now()
	user := &interfaces.User{
		ID:        uuid.NewString(),
		UserID:    paired.UserID,
		FirstName: paired.FirstName,
		LastName:  paired.LastName,
		Email:     paired.Email,
		Phone:     paired.Phone,
		Settings:  interfaces.DefaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.users.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	c.log.Info("Local user created")
	return nil
}

// UnlinkCoordinator tears down the device's local identity: the single
// user and the vehicle identity record, as one atomic unit. Partial
// unlink must never be observable; the store's Unlink runs both
// deletions inside one transaction.
type UnlinkCoordinator struct {
	store interfaces.Unlinker
	log   *slog.Logger
}

// NewUnlinkCoordinator creates the coordinator over the transactional
// store.
func NewUnlinkCoordinator(store interfaces.Unlinker, log *slog.Logger) *UnlinkCoordinator {
	return &UnlinkCoordinator{store: store, log: log}
}

// Unlink removes the user and the vehicle profile. Returns
// interfaces.ErrUserNotFound when no user is registered.
func (c *UnlinkCoordinator) Unlink(ctx context.Context) error {
	if err := c.store.Unlink(ctx); err != nil {
		return err
	}
	c.log.Info("Device unlinked, identity state removed")
	return nil
}
