package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/danmuck/wirelink/internal/config"
	"github.com/danmuck/wirelink/internal/endpoint"
	"github.com/danmuck/wirelink/internal/logging"
	"github.com/danmuck/wirelink/internal/wire"
)

func main() {
	addr := flag.String("addr", "", "daemon address host:port (overrides profile)")
	profilePath := flag.String("profile", "", "connection profile file (toml)")
	debug := flag.Bool("debug", false, "trace every transfer")
	flag.Parse()

	logger := logging.NewRuntimeLogger("wirelinkctl")

	cfg := endpoint.DefaultConfig()
	target := "127.0.0.1:9300"
	if *profilePath != "" {
		prof, err := config.LoadClientProfile(*profilePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("load profile")
		}
		target = prof.Addr
		cfg, err = prof.EndpointConfig()
		if err != nil {
			logger.Fatal().Err(err).Msg("profile endpoint config")
		}
	}
	if *addr != "" {
		target = *addr
	}
	if *debug {
		cfg.Debug = true
	}

	words := make([]uint32, 0, flag.NArg())
	for _, arg := range flag.Args() {
		v, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			logger.Fatal().Str("arg", arg).Err(err).Msg("values must be unsigned 32-bit integers")
		}
		words = append(words, uint32(v))
	}

	client, err := endpoint.Dial(target, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("dial")
	}
	defer client.Close()

	if err := client.SendVector(words); err != nil {
		logger.Fatal().Err(err).Msg("send vector")
	}
	echo, err := client.RecvVector()
	if err != nil {
		logger.Fatal().Err(err).Msg("receive vector")
	}
	fmt.Println(wire.FormatWords(echo))
	logger.Info().
		Uint64("bytes_sent", client.TotalBytesSent()).
		Msg("session complete")
}
