// Command server boots a single-instrument exchange: a price-time
// priority order book wrapped in an owner-attributed service and
// exposed over a small binary TCP protocol.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/tomb.v2"
	"matchbook/internal/exchange"
	mnet "matchbook/internal/net"
)

func main() {
	host := flag.String("host", "0.0.0.0", "address to listen on")
	port := flag.Int("port", 9001, "port to listen on")
	minPrice := flag.Int64("min-price", 1, "lowest tradeable price")
	maxPrice := flag.Int64("max-price", 1_000_000, "highest tradeable price")
	tickSize := flag.Int64("tick-size", 1, "minimum price increment")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(level).
		With().Timestamp().Logger()
	log.Logger = logger

	svc, err := exchange.New(*minPrice, *maxPrice, *tickSize, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build exchange service")
	}

	server := mnet.New(*host, *port, svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, tctx := tomb.WithContext(ctx)
	t.Go(func() error {
		return server.Run(t)
	})

	<-tctx.Done()
	t.Kill(nil)
	if err := t.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}
