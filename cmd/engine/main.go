package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"main/internal/clock"
	"main/internal/engine"
	"main/internal/ops"
	"main/internal/reconcile"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		logs.Errorf("config load failed: %+v", err)
		os.Exit(1)
	}

	if cfg.Profiling.Enable {
		profiler, err := startProfiler(cfg.Profiling)
		if err != nil {
			logs.Errorf("profiler start failed: %+v", err)
			os.Exit(1)
		}
		defer func() { _ = profiler.Stop() }()
	}

	sim := clock.NewSimulated(cfg.ClockStartMillis)
	eng := engine.New(engine.Config{
		Clock:              sim,
		Limits:             cfg.Limits,
		MarketDataEndpoint: cfg.MarketDataEndpoint,
		CommandEndpoint:    cfg.CommandEndpoint,
		TelemetryEndpoint:  cfg.TelemetryEndpoint,
		StrategyID:         cfg.Strategy.ID,
		StrategyThreshold:  cfg.Strategy.Threshold,
	})

	var rec engine.Reconciler
	if cfg.PostgresDSN != "" {
		pg, err := reconcile.NewPostgres(cfg.PostgresDSN)
		if err != nil {
			logs.Errorf("reconciler open failed: %+v", err)
			os.Exit(1)
		}
		defer func() { _ = pg.Close() }()
		rec = pg
	}

	if err := eng.Start(rec); err != nil {
		logs.Errorf("engine start failed: %+v", err)
		os.Exit(1)
	}

	<-ctx.Done()
	eng.Stop()
}

func startProfiler(cfg ops.ProfilingConfig) (*pyroscope.Profiler, error) {
	addr := cfg.ServerAddress
	if addr == "" {
		addr = "http://localhost:4040"
	}
	return pyroscope.Start(pyroscope.Config{
		ApplicationName: "trading-engine",
		ServerAddress:   addr,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
}
