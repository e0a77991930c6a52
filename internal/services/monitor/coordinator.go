package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/iotmonitor/internal/config"
	"github.com/LeonardoBeccarini/iotmonitor/internal/metrics"
	"github.com/LeonardoBeccarini/iotmonitor/internal/model"
	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
	sensorsim "github.com/LeonardoBeccarini/iotmonitor/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/iotmonitor/internal/services/controller"
	"github.com/LeonardoBeccarini/iotmonitor/internal/services/persistence"
	"github.com/LeonardoBeccarini/iotmonitor/internal/services/recorder"
	"github.com/LeonardoBeccarini/iotmonitor/internal/task"
)

// HealthService è il nome del servizio esposto dal server di health gRPC.
const HealthService = "iotmonitor"

type Options struct {
	Config   *config.Config
	Store    persistence.Store  // nil: nessun salvataggio
	Recorder *recorder.Recorder // nil: nessuno storico
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	// StrategyFor, se valorizzata, sostituisce le strategie da configurazione.
	StrategyFor sensorsim.StrategyFunc
}

// Summary riassume una simulazione conclusa.
type Summary struct {
	Cycles     uint64               `json:"cycles"`
	Absorbed   uint64               `json:"absorbed"`
	Published  map[string]uint64    `json:"published"`
	TimedOut   []string             `json:"timed_out,omitempty"`
	SaveErr    error                `json:"-"`
	Recorder   []recorder.SinkStats `json:"recorder,omitempty"`
	FinishedAt time.Time            `json:"finished_at"`
}

// lifecycle è ciò che il coordinatore sa fermare e attendere.
type lifecycle interface {
	Name() string
	Stop()
	Join(timeout time.Duration) error
}

// Coordinator costruisce reader e controller, li collega e ne governa avvio e arresto.
type Coordinator struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	store    persistence.Store
	recorder *recorder.Recorder
	health   *health.Server

	network    *entities.Network
	zone       *entities.Zone
	record     *entities.EnvironmentalRecord
	registry   *sensorsim.Registry
	readers    []*sensorsim.Reader
	controller *controller.Controller

	mu      sync.Mutex // serializza Start e Shutdown
	started atomic.Bool
	done    atomic.Bool
	summary Summary
}

// New esegue la costruzione e il collegamento; un errore qui è di configurazione.
func New(opts Options) (*Coordinator, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("monitor: config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		cfg:      cfg,
		logger:   logger,
		metrics:  opts.Metrics,
		store:    opts.Store,
		recorder: opts.Recorder,
		health:   health.NewServer(),
		registry: sensorsim.NewRegistry(),
		network: &entities.Network{
			ID:          cfg.Network.ID,
			Location:    cfg.Network.Location,
			Description: cfg.Network.Description,
		},
		zone: entities.NewZone(cfg.Zone.ID, cfg.Zone.Name, cfg.Zone.Location, cfg.Zone.Kind),
	}
	if c.store == nil {
		c.store = persistence.NopStore{}
	}
	c.health.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)

	factory, err := c.newFactory(opts.StrategyFor)
	if err != nil {
		return nil, err
	}

	// 1. reader
	for _, sc := range cfg.Sensors {
		var ropts []sensorsim.ReaderOption
		if opts.StrategyFor == nil {
			t, _ := entities.ParseSensorType(sc.Type)
			st, ok := sensorsim.StrategyByName(sc.Strategy, t)
			if !ok {
				return nil, fmt.Errorf("monitor: sensor %d: unknown strategy %q", sc.ID, sc.Strategy)
			}
			ropts = append(ropts, sensorsim.WithStrategy(st))
		}
		r, err := factory.Create(sc.Type, sc.ID, ropts...)
		if err != nil {
			return nil, fmt.Errorf("monitor: sensor %d: %w", sc.ID, err)
		}
		if err := c.registry.Register(r); err != nil {
			return nil, fmt.Errorf("monitor: %w", err)
		}
		c.zone.AddSensor(r.ID())
		c.readers = append(c.readers, r)
	}
	c.network.AddSensors(len(c.readers))
	c.network.AddZones(1)
	c.network.PrimaryZoneID = c.zone.ID

	record, err := entities.NewEnvironmentalRecord(cfg.Zone.RecordID, c.network, c.zone,
		cfg.Zone.Responsible, entities.Priority(cfg.Zone.Priority))
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	c.record = record

	// 2. controller
	c.controller = controller.New(c.zone, c.registry,
		controller.WithInterval(cfg.Controller.Interval),
		controller.WithThresholds(controller.Thresholds(cfg.Controller.Thresholds)),
		controller.WithAlertWindow(cfg.Controller.AlertWindow),
		controller.WithLogger(logger),
		controller.WithMetrics(opts.Metrics),
	)

	// 3. collegamento observer
	for _, r := range c.readers {
		r.Subscribe(c.controller)
		if c.recorder != nil && c.recorder.Enabled() {
			r.Subscribe(c.recorder.Readings())
		}
	}
	if c.recorder != nil && c.recorder.Enabled() {
		c.controller.Events().Subscribe(c.recorder.ZoneEvents())
	}

	logger.Info("monitor: wired", "sensors", len(c.readers), "zone", c.zone.Name,
		"priority", record.Priority.String(), "controller", c.controller.Name())
	return c, nil
}

func (c *Coordinator) newFactory(strategyFor sensorsim.StrategyFunc) (*sensorsim.Factory, error) {
	fopts := []sensorsim.FactoryOption{
		sensorsim.WithFactoryLogger(c.logger),
		sensorsim.WithFactoryMetrics(c.metrics),
		sensorsim.WithStrategyFunc(strategyFor),
	}
	for key, pc := range c.cfg.Profiles {
		t, err := entities.ParseSensorType(key)
		if err != nil {
			return nil, fmt.Errorf("monitor: profile %q: %w", key, err)
		}
		// i campi a zero mantengono il profilo predefinito
		p := sensorsim.DefaultProfiles()[t]
		if pc.Interval > 0 {
			p.Interval = pc.Interval
		}
		if pc.Min != 0 || pc.Max != 0 {
			p.Min, p.Max = pc.Min, pc.Max
		}
		fopts = append(fopts, sensorsim.WithProfile(p))
	}
	return sensorsim.NewFactory(fopts...), nil
}

func (c *Coordinator) Controller() *controller.Controller { return c.controller }
func (c *Coordinator) Readers() []*sensorsim.Reader       { return c.registry.List() }
func (c *Coordinator) Registry() *sensorsim.Registry      { return c.registry }
func (c *Coordinator) Zone() *entities.Zone               { return c.zone }
func (c *Coordinator) Health() *health.Server             { return c.health }
func (c *Coordinator) Recorder() *recorder.Recorder       { return c.recorder }

// Record è la scheda d'installazione della zona monitorata.
func (c *Coordinator) Record() *entities.EnvironmentalRecord { return c.record }

// Running è true tra Start e Shutdown. Non prende il lock: resta leggibile
// mentre Shutdown attende i task e il salvataggio.
func (c *Coordinator) Running() bool {
	return c.started.Load() && !c.done.Load()
}

// Start avvia storico, reader e controller. Se un task non parte, quelli già
// avviati vengono fermati.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.Load() {
		return fmt.Errorf("monitor: %w", task.ErrAlreadyStarted)
	}
	c.started.Store(true)

	if c.recorder != nil {
		// le code vanno svuotate anche dopo la cancellazione di ctx
		c.recorder.Start(context.WithoutCancel(ctx))
	}
	var running []lifecycle
	for _, r := range c.readers {
		if err := r.Start(ctx); err != nil {
			c.stopAll(running)
			return fmt.Errorf("monitor: start %s: %w", r.Name(), err)
		}
		running = append(running, r)
	}
	if err := c.controller.Start(ctx); err != nil {
		c.stopAll(running)
		return fmt.Errorf("monitor: start %s: %w", c.controller.Name(), err)
	}
	c.health.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	c.logger.Info("monitor: simulation started", "sensors", len(c.readers))
	return nil
}

func (c *Coordinator) stopAll(tasks []lifecycle) []string {
	for _, t := range tasks {
		t.Stop()
	}
	var timedOut []string
	for _, t := range tasks {
		if err := t.Join(c.cfg.Simulation.JoinTimeout); err != nil {
			c.logger.Warn("monitor: task did not stop in time", "task", t.Name(), "err", err)
			c.metrics.ShutdownTimeout(t.Name())
			timedOut = append(timedOut, t.Name())
		}
	}
	return timedOut
}

func (c *Coordinator) tasks() []lifecycle {
	out := make([]lifecycle, 0, len(c.readers)+1)
	for _, r := range c.readers {
		out = append(out, r)
	}
	return append(out, c.controller)
}

// Shutdown ferma tutti i task, attende ciascuno con timeout, svuota lo storico e
// salva lo stato. Gli errori vengono loggati e riportati nel Summary, mai propagati.
// Chiamate successive ritornano lo stesso Summary.
func (c *Coordinator) Shutdown(ctx context.Context) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done.Load() {
		return c.summary
	}
	c.done.Store(true)
	c.health.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)

	timedOut := c.stopAll(c.tasks())

	if c.recorder != nil {
		drain := max(c.cfg.Simulation.JoinTimeout, c.cfg.Recorder.WriteTimeout)
		if err := c.recorder.Close(drain); err != nil {
			c.logger.Warn("monitor: recorder close", "err", err)
		}
	}

	state := c.State()
	state.SavedAt = time.Now().UTC()
	saveErr := c.save(ctx, state)

	s := Summary{
		Cycles:     c.controller.Cycles(),
		Absorbed:   c.controller.Absorbed(),
		Published:  make(map[string]uint64, len(c.readers)),
		TimedOut:   timedOut,
		SaveErr:    saveErr,
		FinishedAt: time.Now(),
	}
	for _, r := range c.readers {
		s.Published[r.Name()] = r.Published()
	}
	if c.recorder != nil {
		s.Recorder = c.recorder.Stats()
	}
	c.summary = s

	c.logger.Info("monitor: simulation finished",
		"cycles", s.Cycles, "absorbed", s.Absorbed, "published", s.Published,
		"timed_out", len(s.TimedOut), "alerts", c.zone.ActiveAlerts(), "saved", saveErr == nil)
	return s
}

// save ritenta gli errori di I/O con backoff; gli errori di codifica sono definitivi.
func (c *Coordinator) save(ctx context.Context, state model.NetworkState) error {
	bo := backoff.NewExponentialBackOff()
	if c.cfg.Persistence.RetryInitial > 0 {
		bo.InitialInterval = c.cfg.Persistence.RetryInitial
	}
	retries := max(c.cfg.Persistence.SaveRetries, 0)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := c.store.Save(ctx, state)
		var perr *persistence.Error
		if errors.As(err, &perr) && perr.Code == persistence.CodeCodec {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx))

	if err != nil {
		attrs := []any{"attempts", attempt, "err", err}
		var perr *persistence.Error
		if errors.As(err, &perr) {
			attrs = append(attrs, "code", perr.Code, "op", string(perr.Op), "target", perr.Target)
		}
		c.logger.Error("monitor: could not save network state", attrs...)
		c.metrics.SnapshotSave(false)
		return err
	}
	c.logger.Info("monitor: network state saved", "attempts", attempt)
	c.metrics.SnapshotSave(true)
	return nil
}

// Run esegue l'intera simulazione per d (o finché ctx non termina).
func (c *Coordinator) Run(ctx context.Context, d time.Duration) (Summary, error) {
	if err := c.Start(ctx); err != nil {
		return Summary{}, err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		c.logger.Info("monitor: interrupted", "reason", ctx.Err())
	case <-t.C:
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return c.Shutdown(sctx), nil
}

// State fotografa rete, zona, sensori e controller.
func (c *Coordinator) State() model.NetworkState {
	snap := c.controller.Snapshot()
	st := model.NetworkState{
		Network: *c.network,
		Zone:    model.NewZoneSnapshot(c.zone),
		Record:  *c.record,
		Controller: model.ControllerSnapshot{
			Name:        c.controller.Name(),
			Cycles:      c.controller.Cycles(),
			Absorbed:    c.controller.Absorbed(),
			Temperature: snap.Temperature,
			Humidity:    snap.Humidity,
			CO2:         snap.CO2,
			Light:       snap.Light,
		},
	}
	for _, r := range c.registry.List() {
		p := r.Profile()
		ss := model.SensorSnapshot{
			ID:        r.ID(),
			Type:      r.Type(),
			Unit:      r.Type().Unit(),
			Interval:  p.Interval,
			Min:       p.Min,
			Max:       p.Max,
			Published: r.Published(),
			State:     r.State().String(),
		}
		if ev, ok := r.LastEvent(); ok {
			v := ev.Value
			ss.LastValue = &v
		}
		st.Sensors = append(st.Sensors, ss)
	}
	return st
}
