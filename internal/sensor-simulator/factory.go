package sensor_simulator

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/LeonardoBeccarini/iotmonitor/internal/metrics"
	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
)

var ErrInvalidSensorID = errors.New("sensor id must be positive")

// UnknownTypeError è ritornato da Create per un nome di tipo non riconosciuto.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown sensor type %q", e.Name)
}

func (e *UnknownTypeError) Is(target error) bool {
	return target == entities.ErrUnknownSensorType
}

// StrategyFunc sceglie la strategia di lettura per un tipo.
type StrategyFunc func(entities.SensorType) Strategy

// Factory costruisce Reader a partire dal nome del tipo.
type Factory struct {
	profiles    map[entities.SensorType]Profile
	strategyFor StrategyFunc
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type FactoryOption func(*Factory)

// WithProfile sovrascrive il profilo di un tipo.
func WithProfile(p Profile) FactoryOption {
	return func(f *Factory) { f.profiles[p.Type] = p }
}

func WithStrategyFunc(fn StrategyFunc) FactoryOption {
	return func(f *Factory) {
		if fn != nil {
			f.strategyFor = fn
		}
	}
}

func WithFactoryLogger(l *slog.Logger) FactoryOption {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

func WithFactoryMetrics(m *metrics.Metrics) FactoryOption {
	return func(f *Factory) { f.metrics = m }
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		profiles:    DefaultProfiles(),
		strategyFor: func(entities.SensorType) Strategy { return NewUniformStrategy(0) },
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create normalizza typeName (trim, case-insensitive) e costruisce il Reader.
// opts vengono applicate dopo quelle della factory.
func (f *Factory) Create(typeName string, id int, opts ...ReaderOption) (*Reader, error) {
	st, err := entities.ParseSensorType(typeName)
	if err != nil {
		return nil, &UnknownTypeError{Name: typeName}
	}
	if id <= 0 {
		return nil, fmt.Errorf("%s reader: %w, got %d", st, ErrInvalidSensorID, id)
	}
	p, ok := f.profiles[st]
	if !ok {
		return nil, &UnknownTypeError{Name: typeName}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	base := []ReaderOption{
		WithStrategy(f.strategyFor(st)),
		WithReaderLogger(f.logger),
		WithReaderMetrics(f.metrics),
	}
	return NewReader(id, p, append(base, opts...)...), nil
}

// Profile ritorna il profilo usato per t.
func (f *Factory) Profile(t entities.SensorType) (Profile, bool) {
	p, ok := f.profiles[t]
	return p, ok
}

// Types elenca i tipi costruibili in ordine stabile.
func (f *Factory) Types() []entities.SensorType {
	out := make([]entities.SensorType, 0, len(f.profiles))
	for _, t := range entities.SensorTypes() {
		if _, ok := f.profiles[t]; ok {
			out = append(out, t)
		}
	}
	return slices.Clip(out)
}
