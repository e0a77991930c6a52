package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/LeonardoBeccarini/iotmonitor/internal/metrics"
	"github.com/LeonardoBeccarini/iotmonitor/internal/model/messages"
	"github.com/LeonardoBeccarini/iotmonitor/pkg/observer"
)

// Sink è una destinazione di storico (InfluxDB, Redis, Postgres, MQTT...).
type Sink interface {
	Name() string
	WriteReading(ctx context.Context, ev messages.ReadingEvent) error
	WriteZoneEvent(ctx context.Context, ev messages.ZoneEvent) error
	Close() error
}

type Options struct {
	QueueSize       int
	WriteTimeout    time.Duration
	RatePerSecond   float64 // <= 0: nessun limite
	Burst           int
	BreakerFailures int
	BreakerOpen     time.Duration
	BreakerInterval time.Duration
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

func (o *Options) withDefaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 2 * time.Second
	}
	if o.Burst <= 0 {
		o.Burst = 1
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = 5
	}
	if o.BreakerOpen <= 0 {
		o.BreakerOpen = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// record contiene esattamente uno dei due eventi.
type record struct {
	reading *messages.ReadingEvent
	zone    *messages.ZoneEvent
}

// SinkStats sono i contatori di una destinazione.
type SinkStats struct {
	Name    string `json:"name"`
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
	Breaker string `json:"breaker"`
}

type worker struct {
	sink    Sink
	queue   chan record
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// Recorder inoltra letture ed eventi di zona alle sink senza mai bloccare chi pubblica:
// le callback accodano e basta, una goroutine per sink svuota la propria coda.
type Recorder struct {
	opts    Options
	workers []*worker

	readings *readingSubscriber
	zones    *zoneSubscriber

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func New(opts Options, sinks ...Sink) *Recorder {
	opts.withDefaults()
	r := &Recorder{opts: opts}
	r.readings = &readingSubscriber{r: r}
	r.zones = &zoneSubscriber{r: r}
	for _, s := range sinks {
		lim := rate.NewLimiter(rate.Inf, opts.Burst)
		if opts.RatePerSecond > 0 {
			lim = rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst)
		}
		r.workers = append(r.workers, &worker{
			sink:    s,
			queue:   make(chan record, opts.QueueSize),
			breaker: r.newBreaker(s.Name()),
			limiter: lim,
		})
	}
	return r
}

func (r *Recorder) newBreaker(name string) *gobreaker.CircuitBreaker {
	fails := uint32(r.opts.BreakerFailures)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: r.opts.BreakerInterval,
		Timeout:  r.opts.BreakerOpen,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.opts.Logger.Warn("recorder: breaker state change", "sink", name, "from", from.String(), "to", to.String())
			r.opts.Metrics.BreakerState(name, int(to))
		},
	})
}

// Readings è il subscriber da registrare sui Reader.
func (r *Recorder) Readings() observer.Subscriber[messages.ReadingEvent] { return r.readings }

// ZoneEvents è il subscriber da registrare sugli eventi del controller.
func (r *Recorder) ZoneEvents() observer.Subscriber[messages.ZoneEvent] { return r.zones }

func (r *Recorder) Enabled() bool { return len(r.workers) > 0 }

func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return
	}
	r.started = true
	for _, w := range r.workers {
		r.wg.Add(1)
		go func(w *worker) {
			defer r.wg.Done()
			r.drain(ctx, w)
		}(w)
	}
	r.opts.Logger.Info("recorder: started", "sinks", len(r.workers))
}

func (r *Recorder) enqueue(rec record) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	for _, w := range r.workers {
		select {
		case w.queue <- rec:
		default:
			w.dropped.Add(1)
			r.opts.Metrics.RecordDropped(w.sink.Name(), "queue_full")
		}
	}
}

func (r *Recorder) drain(ctx context.Context, w *worker) {
	name := w.sink.Name()
	for rec := range w.queue {
		if !w.limiter.Allow() {
			w.dropped.Add(1)
			r.opts.Metrics.RecordDropped(name, "rate_limited")
			continue
		}
		_, err := w.breaker.Execute(func() (any, error) {
			wctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
			defer cancel()
			if rec.reading != nil {
				return nil, w.sink.WriteReading(wctx, *rec.reading)
			}
			return nil, w.sink.WriteZoneEvent(wctx, *rec.zone)
		})
		switch {
		case err == nil:
			w.written.Add(1)
			r.opts.Metrics.RecordWritten(name)
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			w.dropped.Add(1)
			r.opts.Metrics.RecordDropped(name, "breaker_open")
		default:
			w.failed.Add(1)
			r.opts.Metrics.RecordFailed(name)
			r.opts.Logger.Warn("recorder: write failed", "sink", name, "err", err)
		}
	}
}

// Close smette di accettare record, attende lo svuotamento delle code fino a
// timeout e chiude le sink.
func (r *Recorder) Close(timeout time.Duration) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for _, w := range r.workers {
		close(w.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	var errs []error
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		errs = append(errs, fmt.Errorf("recorder: drain did not finish within %s", timeout))
	}
	for _, w := range r.workers {
		if err := w.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("recorder: close %s: %w", w.sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Recorder) Stats() []SinkStats {
	out := make([]SinkStats, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, SinkStats{
			Name:    w.sink.Name(),
			Written: w.written.Load(),
			Dropped: w.dropped.Load(),
			Failed:  w.failed.Load(),
			Breaker: w.breaker.State().String(),
		})
	}
	return out
}

type readingSubscriber struct{ r *Recorder }

func (s *readingSubscriber) OnEvent(ev messages.ReadingEvent) {
	s.r.enqueue(record{reading: &ev})
}

type zoneSubscriber struct{ r *Recorder }

func (s *zoneSubscriber) OnEvent(ev messages.ZoneEvent) {
	s.r.enqueue(record{zone: &ev})
}
