package sensor_simulator

import (
	"fmt"
	"math"
	"time"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
)

// Profile descrive cadenza e range di lettura di un tipo di sensore.
type Profile struct {
	Type     entities.SensorType
	Interval time.Duration
	Min      float64
	Max      float64
}

// DefaultProfiles ritorna i profili standard per ogni tipo supportato.
func DefaultProfiles() map[entities.SensorType]Profile {
	return map[entities.SensorType]Profile{
		entities.Temperature: {Type: entities.Temperature, Interval: 2 * time.Second, Min: -10, Max: 45},
		entities.Humidity:    {Type: entities.Humidity, Interval: 3 * time.Second, Min: 0, Max: 100},
		entities.CO2:         {Type: entities.CO2, Interval: 4 * time.Second, Min: 300, Max: 2000},
		entities.Light:       {Type: entities.Light, Interval: 2500 * time.Millisecond, Min: 100, Max: 10000},
	}
}

func (p Profile) Validate() error {
	if !p.Type.Valid() {
		return fmt.Errorf("%w: %q", entities.ErrUnknownSensorType, p.Type)
	}
	if p.Interval <= 0 {
		return fmt.Errorf("profile %s: interval must be positive, got %s", p.Type, p.Interval)
	}
	if p.Min > p.Max {
		return fmt.Errorf("profile %s: min %.1f greater than max %.1f", p.Type, p.Min, p.Max)
	}
	return nil
}

// Normalize porta v nel range del profilo e lo arrotonda a un decimale.
func (p Profile) Normalize(v float64) float64 {
	if math.IsNaN(v) {
		v = p.Min
	}
	v = math.Round(v*10) / 10
	if v < p.Min {
		return p.Min
	}
	if v > p.Max {
		return p.Max
	}
	return v
}
