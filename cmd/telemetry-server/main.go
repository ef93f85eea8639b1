// The telemetry-server binary runs the on-vehicle local API. Boot is
// fail-closed: key material, the device store and the vehicle profile
// must all load before the server starts listening.
package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/carlink/telemetry-device/auth"
	"github.com/carlink/telemetry-device/cmd/flags"
	"github.com/carlink/telemetry-device/httpserver"
	"github.com/carlink/telemetry-device/keystore"
	"github.com/carlink/telemetry-device/storage"
	"github.com/carlink/telemetry-device/vehicle"
)

func main() {
	app := &cli.App{
		Name:  "telemetry-server",
		Usage: "Serve the on-vehicle telemetry API with local token issuance",
		Flags: append([]cli.Flag{
			flags.ListenAddrFlag,
			flags.KeysDirFlag,
			flags.DBPathFlag,
			flags.FrontSecretFlag,
			flags.AccessTokenTTLFlag,
			flags.QRNetworkFlag,
			flags.QRPasswordFlag,
		}, flags.CommonFlags...),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
	keysDir := cCtx.String(flags.KeysDirFlag.Name)
	dbPath := cCtx.String(flags.DBPathFlag.Name)
	frontSecret := cCtx.String(flags.FrontSecretFlag.Name)
	accessTokenTTL := cCtx.Duration(flags.AccessTokenTTLFlag.Name)

	logger := flags.SetupLogger(cCtx)

	// Fail-closed boot: every step below must succeed before the
	// server accepts a single request.
	logger.Info("Loading key material", "dir", keysDir)
	keys, err := keystore.Load(keystore.DefaultKeyPaths(keysDir))
	if err != nil {
		logger.Error("Key load failed, refusing to start", "err", err)
		return err
	}
	logger.Info("Key material loaded")

	store, err := storage.Open(storage.Config{Path: dbPath, Logger: logger})
	if err != nil {
		logger.Error("Failed to open device store", "err", err)
		return err
	}
	defer store.Close()

	profiles := vehicle.NewProvider(store, vehicle.SimulatedSource{}, logger)
	if err := profiles.Initialize(cCtx.Context); err != nil {
		logger.Error("Failed to initialize vehicle profile", "err", err)
		return err
	}

	if frontSecret == "" {
		logger.Warn("No front secret configured, front bootstrap will reject all requests")
	}

	cloud := auth.NewCloudTrustVerifier(keys, logger)
	issuer := auth.NewLocalTokenIssuer(keys, auth.TokenPolicy{AccessTokenTTL: accessTokenTTL})
	verifier := auth.NewLocalTokenVerifier(keys, logger)
	challenges := auth.NewPairingChallengeIssuer(keys, profiles, logger)
	registration := auth.NewRegistrationCoordinator(cloud, issuer, store, profiles, logger)
	unlink := auth.NewUnlinkCoordinator(store, logger)
	front := auth.NewFrontBootstrapAuthenticator(frontSecret)

	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		logger.Error("Invalid listen address", "err", err)
		return err
	}

	handler := httpserver.NewHandler(
		challenges,
		registration,
		unlink,
		front,
		issuer,
		store,
		httpserver.QRCodeInfo{
			IP:       host,
			Port:     port,
			Network:  cCtx.String(flags.QRNetworkFlag.Name),
			Password: cCtx.String(flags.QRPasswordFlag.Name),
		},
		logger,
	)

	cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
	server, err := httpserver.New(cfg, handler, verifier)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")

	return nil
}
