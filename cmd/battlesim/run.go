package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/battlesim/internal/battle"
	"github.com/OCAP2/battlesim/internal/config"
	"github.com/OCAP2/battlesim/internal/dispatcher"
	"github.com/OCAP2/battlesim/internal/influx"
	"github.com/OCAP2/battlesim/internal/logging"
	"github.com/OCAP2/battlesim/internal/monitor"
	intOtel "github.com/OCAP2/battlesim/internal/otel"
	"github.com/OCAP2/battlesim/internal/recorder"
	"github.com/OCAP2/battlesim/internal/report"
	"github.com/OCAP2/battlesim/internal/rng"
	"github.com/OCAP2/battlesim/internal/storage"
	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"
)

// shutdownTimeout bounds draining the dispatcher and flushing telemetry
// after the battle context has been cancelled.
const shutdownTimeout = 10 * time.Second

func run(ctx context.Context, opts *options, out io.Writer) error {
	sessionStart := time.Now()

	cfgErr := config.Load(opts.configDir)
	var notFound viper.ConfigFileNotFoundError
	if cfgErr != nil && !errors.As(cfgErr, &notFound) {
		return cfgErr
	}

	roster, err := opts.roster()
	if err != nil {
		return err
	}

	logsDir := config.GetString("logsDir")
	logLevel := config.GetString("logLevel")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logFile, err := os.OpenFile(logging.LogFilePath(logsDir, appName, sessionStart), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	battleID := uuid.NewString()

	otelSettings := config.GetOTelConfig()
	var otelWriter io.Writer
	if otelSettings.Enabled {
		otelFile, err := os.OpenFile(otelLogPath(logsDir, sessionStart), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening otel log file: %w", err)
		}
		defer otelFile.Close()
		otelWriter = otelFile
	}
	provider, err := intOtel.New(ctx, intOtel.FromSettings(otelSettings, Version, otelWriter))
	if err != nil {
		return fmt.Errorf("creating otel provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	var extra []slog.Handler
	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, closer, err := logging.NewGraylogHandler(gl.Address, logLevel)
		if err != nil {
			return err
		}
		defer closer.Close()
		extra = append(extra, h)
	}

	slogManager := logging.NewSlogManager()
	slogManager.BattleID = func() string { return battleID }
	slogManager.Setup(logFile, logLevel, provider.LoggerProvider(), extra...)
	logger := slogManager.Logger()
	if cfgErr != nil {
		logger.Warn("Config file not found, using defaults", "dir", opts.configDir)
	}

	zl := logging.NewZerolog(logFile, logLevel)

	bc := config.GetBattleConfig()
	resolution, err := battle.ParseResolution(bc.Resolution)
	if err != nil {
		return err
	}
	seed := bc.Seed
	if seed == 0 {
		seed = sessionStart.UnixNano()
	}
	header := core.Battle{
		ID:               battleID,
		StartTime:        sessionStart,
		Seed:             seed,
		Resolution:       bc.Resolution,
		TickInterval:     bc.TickInterval,
		TimeScale:        bc.TimeScale,
		DamageMultiplier: bc.DamageMultiplier,
	}
	logger.Info("Battle configured",
		"seed", seed,
		"resolution", bc.Resolution,
		"armies", len(roster.Armies),
		"version", Version,
	)

	clock := clockwork.NewRealClock()

	backend, err := createStorageBackend(config.GetStorageConfig(), storageDeps{
		Logger:   zl,
		Clock:    clock,
		Settings: bc,
	})
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	closeStorage := sync.OnceValue(backend.Close)
	defer closeStorage()
	if err := backend.StartBattle(&header); err != nil {
		return fmt.Errorf("starting battle record: %w", err)
	}

	var metrics recorder.MetricsWriter
	influxManager := influx.NewManager(config.GetInfluxConfig(), zl)
	switch err := influxManager.Connect(ctx); {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		logger.Warn("InfluxDB unavailable, metrics disabled", "error", err)
	default:
		metrics = influxManager
		defer influxManager.Close()
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(zl))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	rec, err := recorder.New(recorder.Dependencies{
		Dispatcher: d,
		Backend:    backend,
		Metrics:    metrics,
		Logger:     logger,
		BattleID:   battleID,
	})
	if err != nil {
		return err
	}
	rec.RegisterHandlers(d)

	env := &battle.Env{
		Clock:            clock,
		Rng:              rng.New(seed),
		Logger:           logger,
		Observer:         rec,
		Resolver:         battle.NewResolver(resolution),
		TickInterval:     bc.TickInterval,
		TimeScale:        bc.TimeScale,
		DamageMultiplier: bc.DamageMultiplier,
	}
	armies, err := roster.Build(env)
	if err != nil {
		return err
	}

	records := make([]core.ArmyRecord, len(armies))
	for i, a := range armies {
		records[i] = a.Snapshot()
		if err := backend.AddArmy(&records[i]); err != nil {
			logger.Error("Failed to record army", "army", a.Name(), "error", err)
		}
	}

	if bc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bc.Timeout)
		defer cancel()
	}

	mon := monitor.NewService(monitor.Dependencies{
		Logger:   logger,
		Clock:    clock,
		Interval: config.GetMonitorInterval(),
		Sink:     rec,
	}, armies)
	mon.Start(ctx)

	res, runErr := battle.Run(ctx, env, armies)

	mon.Stop()
	// Closing reading; the monitor hands it to the recorder.
	mon.Sample()

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.Close(drainCtx); err != nil {
		logger.Error("Failed to drain event dispatcher", "error", err)
	}
	for cmd, st := range d.Stats() {
		logger.Info("Events recorded",
			"command", cmd,
			"processed", st.Processed,
			"failed", st.Failed,
			"dropped", st.Dropped,
		)
	}

	outcome := res.Outcome(battleID, clock.Now())
	if err := backend.EndBattle(&outcome); err != nil {
		logger.Error("Failed to record outcome", "error", err)
	}
	if err := closeStorage(); err != nil {
		logger.Error("Failed to close storage", "error", err)
	}

	p := report.New(out)
	p.Banner(header)
	p.Roster(records)
	p.Squads(outcome.Armies)
	p.Outcome(outcome)
	if exp, ok := backend.(storage.Exportable); ok {
		if path := exp.ExportedFilePath(); path != "" {
			p.Exported(path)
		}
	}

	if runErr != nil && !res.Cancelled {
		return runErr
	}
	return nil
}

// otelLogPath places OTel log records next to the session log.
func otelLogPath(logsDir string, sessionStart time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.otel.jsonl", appName, sessionStart.Format("20060102_150405")))
}
