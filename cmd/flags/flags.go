// Package flags holds the CLI flags and setup helpers shared by the
// device binaries.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/carlink/telemetry-device/common"
	"github.com/carlink/telemetry-device/httpserver"
)

// SetupLogger builds the process logger from the common log flags.
func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ConfigureServer builds the HTTP server config from the common
// server flags.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:3000",
	Usage: "address to listen on for the local API",
}

var KeysDirFlag = &cli.StringFlag{
	Name:  "keys-dir",
	Value: "/opt/car/keys",
	Usage: "directory holding the six PEM key files",
}

var DBPathFlag = &cli.StringFlag{
	Name:  "db-path",
	Value: "/opt/car/data/device.sqlite",
	Usage: "path to the device SQLite database",
}

var FrontSecretFlag = &cli.StringFlag{
	Name:    "front-secret",
	EnvVars: []string{"FRONT_SECRET"},
	Usage:   "pre-shared secret for the front client bootstrap",
}

var AccessTokenTTLFlag = &cli.DurationFlag{
	Name:  "access-token-ttl",
	Value: 5 * time.Minute,
	Usage: "lifetime of access tokens for non-front clients (e.g. 5m, 7h)",
}

var QRNetworkFlag = &cli.StringFlag{
	Name:  "qr-network",
	Value: "car-hotspot",
	Usage: "network name published in the pairing QR code",
}

var QRPasswordFlag = &cli.StringFlag{
	Name:    "qr-password",
	EnvVars: []string{"QR_NETWORK_PASSWORD"},
	Usage:   "network password published in the pairing QR code",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

// CommonFlags are shared by every binary.
var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
