package sensor_simulator

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
)

// Strategy genera il prossimo valore grezzo per un profilo.
// Il Reader normalizza sempre il risultato nel range del profilo.
type Strategy interface {
	Next(p Profile) float64
}

// UniformStrategy estrae valori uniformi in [Min, Max].
type UniformStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformStrategy usa un generatore deterministico se seed != 0, altrimenti quello globale.
func NewUniformStrategy(seed uint64) *UniformStrategy {
	s := &UniformStrategy{}
	if seed != 0 {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return s
}

func (s *UniformStrategy) Next(p Profile) float64 {
	var f float64
	if s.rng == nil {
		f = rand.Float64()
	} else {
		s.mu.Lock()
		f = s.rng.Float64()
		s.mu.Unlock()
	}
	return p.Min + f*(p.Max-p.Min)
}

// ConstantStrategy restituisce sempre lo stesso valore.
type ConstantStrategy struct {
	Value float64
}

// NewConstantStrategy usa i valori medi tipici: umidità 50%, luce 450 lux.
func NewConstantStrategy(t entities.SensorType) ConstantStrategy {
	switch t {
	case entities.Humidity:
		return ConstantStrategy{Value: 50}
	case entities.Light:
		return ConstantStrategy{Value: 450}
	default:
		return ConstantStrategy{Value: 0}
	}
}

func (c ConstantStrategy) Next(Profile) float64 { return c.Value }

// DiurnalStrategy segue l'ora del giorno: valori alti di giorno (06-18), bassi di notte.
type DiurnalStrategy struct {
	Now func() time.Time
}

func (d DiurnalStrategy) Next(Profile) float64 {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	h := now().Hour()
	if h >= 6 && h < 18 {
		return 20 + float64(h-6)*0.8
	}
	return 10 + float64(h%6)*0.5
}

// DriftStrategy è una passeggiata aleatoria: parte a metà range e si muove
// al massimo di Step*(Max-Min) per lettura.
type DriftStrategy struct {
	mu     sync.Mutex
	seeded bool
	value  float64
	Step   float64 // frazione del range, default 0.05
	rng    *rand.Rand
}

func NewDriftStrategy(step float64, seed uint64) *DriftStrategy {
	d := &DriftStrategy{Step: step}
	if seed != 0 {
		d.rng = rand.New(rand.NewPCG(seed, seed+1))
	}
	return d
}

func (d *DriftStrategy) Next(p Profile) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	span := p.Max - p.Min
	if !d.seeded {
		d.value = p.Min + span/2
		d.seeded = true
	}
	step := d.Step
	if step <= 0 {
		step = 0.05
	}
	var f float64
	if d.rng != nil {
		f = d.rng.Float64()
	} else {
		f = rand.Float64()
	}
	d.value += (f*2 - 1) * step * span
	d.value = math.Max(p.Min, math.Min(p.Max, d.value))
	return d.value
}

// StrategyByName risolve il nome configurato ("uniform", "constant", "diurnal", "drift").
func StrategyByName(name string, t entities.SensorType) (Strategy, bool) {
	switch name {
	case "", "uniform":
		return NewUniformStrategy(0), true
	case "constant":
		return NewConstantStrategy(t), true
	case "diurnal":
		return DiurnalStrategy{}, true
	case "drift":
		return NewDriftStrategy(0.05, 0), true
	default:
		return nil, false
	}
}
