package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/iotmonitor/internal/config"
	"github.com/LeonardoBeccarini/iotmonitor/internal/metrics"
	"github.com/LeonardoBeccarini/iotmonitor/internal/services/monitor"
	"github.com/LeonardoBeccarini/iotmonitor/internal/services/persistence"
	"github.com/LeonardoBeccarini/iotmonitor/internal/services/recorder"
)

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (default ./configs/iotmonitor.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === Metrics ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// === Persistence ===
	store, closeStore, err := persistence.Open(ctx, cfg.Persistence, logger)
	if err != nil {
		logger.Error("persistence unavailable", "backend", cfg.Persistence.Backend, "err", err)
		os.Exit(1)
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := closeStore(cctx); err != nil {
			logger.Warn("persistence close", "err", err)
		}
	}()

	// === History sinks ===
	rec, err := recorder.Build(ctx, cfg.Recorder, logger, m)
	if err != nil {
		logger.Error("recorder unavailable", "err", err)
		os.Exit(1)
	}

	coord, err := monitor.New(monitor.Options{
		Config:   cfg,
		Store:    store,
		Recorder: rec,
		Metrics:  m,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("setup failed", "err", err)
		os.Exit(1)
	}

	// === HTTP ===
	var hs *http.Server
	if cfg.Server.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		hs = &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           monitor.NewAPI(coord, reg).NewRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "err", err)
			}
		}()
	}

	// === gRPC health ===
	var gs *grpc.Server
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("grpc listen", "addr", cfg.Server.GRPCAddr, "err", err)
			os.Exit(1)
		}
		gs = grpc.NewServer()
		healthpb.RegisterHealthServer(gs, coord.Health())
		go func() {
			logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
			if err := gs.Serve(lis); err != nil {
				logger.Error("grpc serve error", "err", err)
			}
		}()
	}

	summary, err := coord.Run(ctx, cfg.Simulation.Duration)
	if err != nil {
		logger.Error("simulation failed", "err", err)
	} else {
		logger.Info("summary", "cycles", summary.Cycles, "absorbed", summary.Absorbed,
			"published", summary.Published, "timed_out", summary.TimedOut, "recorder", summary.Recorder)
		var perr *persistence.Error
		if errors.As(summary.SaveErr, &perr) {
			logger.Warn(perr.UserMessage(), "code", perr.Code)
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if hs != nil {
		_ = hs.Shutdown(shCtx)
	}
	if gs != nil {
		gs.GracefulStop()
	}
}
