package observer

import (
	"log/slog"
	"reflect"
	"sync"
)

// Subscriber riceve gli eventi di un Publisher.
// Le implementazioni devono essere comparabili (tipicamente puntatori):
// l'insieme dei subscriber è indicizzato per identità e Subscribe rifiuta
// i tipi non comparabili (func, map, slice).
type Subscriber[T any] interface {
	OnEvent(event T)
}

// PanicHook viene invocato quando un subscriber va in panic durante la consegna.
type PanicHook func(publisher string, recovered any)

type options struct {
	logger  *slog.Logger
	onPanic PanicHook
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithPanicHook(h PanicHook) Option {
	return func(o *options) { o.onPanic = h }
}

// Publisher consegna in modo sincrono ogni evento a tutti i subscriber registrati,
// nell'ordine di sottoscrizione.
type Publisher[T any] struct {
	name string
	mu   sync.Mutex
	subs []Subscriber[T]
	opts options
}

func NewPublisher[T any](name string, opts ...Option) *Publisher[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Publisher[T]{name: name, opts: o}
}

func (p *Publisher[T]) Name() string { return p.name }

func isComparable(s any) bool { return reflect.TypeOf(s).Comparable() }

// Subscribe aggiunge s. Ritorna false se s era già registrato o non è comparabile.
func (p *Publisher[T]) Subscribe(s Subscriber[T]) bool {
	if s == nil {
		return false
	}
	if !isComparable(s) {
		p.opts.logger.Warn("observer: subscriber type is not comparable, ignored",
			"publisher", p.name, "type", reflect.TypeOf(s).String())
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cur := range p.subs {
		if cur == s {
			return false
		}
	}
	p.subs = append(p.subs, s)
	return true
}

// Unsubscribe rimuove s; no-op se non presente.
func (p *Publisher[T]) Unsubscribe(s Subscriber[T]) bool {
	if s == nil || !isComparable(s) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, cur := range p.subs {
		if cur == s {
			// nuova slice: gli snapshot già presi dai Publish in corso restano validi
			next := make([]Subscriber[T], 0, len(p.subs)-1)
			next = append(next, p.subs[:i]...)
			p.subs = append(next, p.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Publisher[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Publish consegna event a uno snapshot dei subscriber preso sotto lock.
// Le callback girano senza lock, quindi un subscriber può (dis)iscriversi
// durante la consegna. Ritorna il numero di consegne andate a buon fine.
func (p *Publisher[T]) Publish(event T) int {
	p.mu.Lock()
	snapshot := p.subs
	p.mu.Unlock()

	delivered := 0
	for _, s := range snapshot {
		if p.deliver(s, event) {
			delivered++
		}
	}
	return delivered
}

func (p *Publisher[T]) deliver(s Subscriber[T], event T) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			p.opts.logger.Error("observer: subscriber panic", "publisher", p.name, "panic", r)
			if p.opts.onPanic != nil {
				p.opts.onPanic(p.name, r)
			}
		}
	}()
	s.OnEvent(event)
	return true
}
