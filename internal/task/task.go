package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State è lo stato di ciclo di vita di un task: Created → Running → Stopping → Stopped.
type State int32

const (
	Created State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "CREATED"
	case Running:
		return "RUNNING"
	case Stopping:
		return "STOPPING"
	case Stopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var (
	ErrAlreadyStarted = errors.New("task already started")
	ErrNotStarted     = errors.New("task not started")
	ErrJoinTimeout    = errors.New("task did not stop within timeout")
)

// Loop è il corpo di un task. Deve ritornare appena stop viene chiuso o ctx termina.
type Loop func(ctx context.Context, stop <-chan struct{})

// Runner esegue un Loop su una goroutine dedicata e ne governa il ciclo di vita.
type Runner struct {
	name     string
	state    atomic.Int32
	mu       sync.Mutex // serializza Start/Stop
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func New(name string) *Runner {
	return &Runner{
		name: name,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (r *Runner) Name() string { return r.name }

func (r *Runner) State() State { return State(r.state.Load()) }

// Start lancia loop. Una seconda chiamata ritorna ErrAlreadyStarted.
func (r *Runner) Start(ctx context.Context, loop Loop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.CompareAndSwap(int32(Created), int32(Running)) {
		return fmt.Errorf("%s: %w (state %s)", r.name, ErrAlreadyStarted, r.State())
	}
	go func() {
		defer func() {
			r.state.Store(int32(Stopped))
			close(r.done)
		}()
		loop(ctx, r.stop)
	}()
	return nil
}

// Stop chiede al loop di terminare. Idempotente; su un runner mai avviato
// passa direttamente a Stopped.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopOnce.Do(func() {
		if r.state.CompareAndSwap(int32(Created), int32(Stopped)) {
			close(r.done)
		} else {
			r.state.CompareAndSwap(int32(Running), int32(Stopping))
		}
		close(r.stop)
	})
}

// Join attende che il loop sia ritornato, al massimo per timeout.
func (r *Runner) Join(timeout time.Duration) error {
	if r.State() == Created {
		return fmt.Errorf("%s: %w", r.name, ErrNotStarted)
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-r.done:
		return nil
	case <-t.C:
		return fmt.Errorf("%s: %w after %s", r.name, ErrJoinTimeout, timeout)
	}
}

// Done è chiuso quando il loop è terminato.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Wait dorme per d, interrompibile da stop o da ctx. Ritorna false se interrotto.
func Wait(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-stop:
			return false
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Interrupted ritorna true se stop è chiuso o ctx è terminato.
func Interrupted(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Guard esegue un singolo ciclo; un panic diventa errore. L'errore viene loggato
// e restituito, il chiamante prosegue con il ciclo successivo.
func Guard(logger *slog.Logger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: cycle panic: %v", name, r)
		}
		if err != nil && logger != nil {
			logger.Error("task: cycle failed", "task", name, "err", err)
		}
	}()
	return fn()
}
