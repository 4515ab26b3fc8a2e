package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"github.com/heysubinoy/adrakdb/internal/pool"
	"github.com/heysubinoy/adrakdb/internal/server"
	"github.com/heysubinoy/adrakdb/internal/store"
	"github.com/heysubinoy/adrakdb/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address (host:port)")
	engine := flag.String("engine", "", "storage engine: log or bolt")
	dataDir := flag.String("data", "", "data directory")
	poolName := flag.String("pool", "", "worker pool strategy: naive, shared or stealing")
	poolSize := flag.Int("pool-size", 0, "worker count for fixed-size pools (0 = logical CPUs)")
	logLevel := flag.String("log-level", "", "log level: trace, debug, info, warn or error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adrak-server: %v\n", err)
		os.Exit(1)
	}

	// Flags set on the command line win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "engine":
			cfg.Engine = *engine
		case "data":
			cfg.DataDir = *dataDir
		case "pool":
			cfg.Pool = *poolName
		case "pool-size":
			cfg.PoolSize = *poolSize
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "adrak-server: %v\n", err)
		os.Exit(1)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "adrak",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	eng, err := store.Open(cfg.Engine, cfg.DataDir, store.Options{
		MaxUncompactedBytes: cfg.MaxUncompactedBytes,
		MaxSegmentBytes:     cfg.MaxSegmentBytes,
		Logger:              logger.Named("store"),
	})
	if err != nil {
		logger.Error("failed to open engine", "engine", cfg.Engine, "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	instrumented := store.NewInstrumentedEngine(eng)

	workers, err := pool.New(pool.Strategy(cfg.Pool), cfg.PoolSize, logger.Named("pool"))
	if err != nil {
		logger.Error("failed to build worker pool", "error", err)
		os.Exit(1)
	}

	srv := server.New(instrumented, workers, logger.Named("server"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		_ = srv.Close()
	}()

	logger.Info("starting", "addr", cfg.Addr, "engine", cfg.Engine, "pool", cfg.Pool)
	if err := srv.ListenAndServe(cfg.Addr); err != nil {
		logger.Error("server error", "error", err)
		_ = instrumented.Close()
		os.Exit(1)
	}

	snap := instrumented.Metrics()
	logger.Info("served",
		"gets", snap.GetCount, "sets", snap.SetCount, "removes", snap.RemoveCount,
		"get_avg", snap.GetAvgLatency.String(),
		"set_avg", snap.SetAvgLatency.String(),
		"remove_avg", snap.RemoveAvgLatency.String())

	if err := instrumented.Close(); err != nil {
		logger.Error("failed to close engine", "error", err)
		os.Exit(1)
	}
}
