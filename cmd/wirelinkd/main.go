package main

import (
	"flag"

	"github.com/danmuck/wirelink/internal/admin"
	"github.com/danmuck/wirelink/internal/endpoint"
	"github.com/danmuck/wirelink/internal/logging"
	"github.com/danmuck/wirelink/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "daemon config file (toml)")
	flag.Parse()
	logger := logging.NewRuntimeLogger("wirelinkd")

	cfg := defaultDaemonConfig()
	if *configPath != "" {
		loaded, err := loadDaemonConfig(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("load config")
		}
		cfg = loaded
	}

	observability.RegisterMetrics()
	ep := endpoint.New(cfg.Endpoint, logger)

	board := newStatusBoard()
	publish := func() {
		board.Publish(admin.Status{
			Port:      ep.PortNumber(),
			SessionID: ep.SessionID(),
			BytesSent: ep.TotalBytesSent(),
		})
	}
	publish()

	if cfg.AdminAddr != "" {
		srv := admin.New(board.Snapshot)
		go func() {
			if err := srv.Run(cfg.AdminAddr); err != nil {
				logger.Error().Err(err).Str("addr", cfg.AdminAddr).Msg("admin surface stopped")
			}
		}()
	}

	if err := ep.Setup(); err != nil {
		logger.Fatal().Err(err).Msg("endpoint setup")
	}
	logger.Info().Int("port", ep.PortNumber()).Msg("waiting for peer")
	if err := ep.Start(); err != nil {
		_ = ep.Close()
		logger.Fatal().Err(err).Msg("endpoint start")
	}
	logger.Info().Str("session_id", ep.SessionID()).Msg("session open")
	publish()

	// Vector echo session. Every fault is permanent: the
	// fatal-by-default policy lives here, not in the library.
	for {
		words, err := ep.RecvVector()
		if err != nil {
			_ = ep.Close()
			logger.Fatal().Err(err).Msg("receive vector")
		}
		if err := ep.SendVector(words); err != nil {
			_ = ep.Close()
			logger.Fatal().Err(err).Msg("send vector")
		}
		publish()
	}
}
