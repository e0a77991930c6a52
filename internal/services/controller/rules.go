package controller

import "github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"

// Thresholds sono le soglie di intervento; tutti i confronti sono stretti.
type Thresholds struct {
	TemperatureLow  float64 `mapstructure:"temperature_low"`
	TemperatureHigh float64 `mapstructure:"temperature_high"`
	HumidityLow     float64 `mapstructure:"humidity_low"`
	HumidityHigh    float64 `mapstructure:"humidity_high"`
	CO2Moderate     float64 `mapstructure:"co2_moderate"`
	CO2Forced       float64 `mapstructure:"co2_forced"`
	LightLow        float64 `mapstructure:"light_low"`
	LightHigh       float64 `mapstructure:"light_high"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		TemperatureLow:  8,
		TemperatureHigh: 28,
		HumidityLow:     40,
		HumidityHigh:    80,
		CO2Moderate:     600,
		CO2Forced:       900,
		LightLow:        200,
		LightHigh:       700,
	}
}

// Snapshot è l'ultimo valore noto per ogni dimensione.
type Snapshot struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CO2         float64 `json:"co2"`
	Light       float64 `json:"light"`
}

// DefaultSnapshot sono i valori usati finché un sensore non ha mai riportato.
func DefaultSnapshot() Snapshot {
	return Snapshot{Temperature: 0.0, Humidity: 50.0, CO2: 400.0, Light: 250.0}
}

func (s Snapshot) Value(t entities.SensorType) float64 {
	switch t {
	case entities.Temperature:
		return s.Temperature
	case entities.Humidity:
		return s.Humidity
	case entities.CO2:
		return s.CO2
	case entities.Light:
		return s.Light
	}
	return 0
}

type Action string

const (
	HeatingOn           Action = "heating_on"
	CoolingOn           Action = "cooling_on"
	HumidifierOn        Action = "humidifier_on"
	DehumidifierOn      Action = "dehumidifier_on"
	VentilationModerate Action = "ventilation_moderate"
	VentilationForced   Action = "ventilation_forced"
	LightsOn            Action = "lights_on"
	LightsDim           Action = "lights_dim"
)

func (a Action) Dimension() entities.SensorType {
	switch a {
	case HeatingOn, CoolingOn:
		return entities.Temperature
	case HumidifierOn, DehumidifierOn:
		return entities.Humidity
	case VentilationModerate, VentilationForced:
		return entities.CO2
	default:
		return entities.Light
	}
}

func (a Action) Description() string {
	switch a {
	case HeatingOn:
		return "low temperature: activating heating"
	case CoolingOn:
		return "high temperature: activating ventilation/cooling"
	case HumidifierOn:
		return "low humidity: activating humidifier"
	case DehumidifierOn:
		return "high humidity: activating dehumidifier"
	case VentilationModerate:
		return "elevated CO2: moderate ventilation"
	case VentilationForced:
		return "critical CO2: forced ventilation"
	case LightsOn:
		return "insufficient light: switching lights on"
	case LightsDim:
		return "excess light: reducing artificial light"
	}
	return string(a)
}

// Evaluate applica le regole a s. Ogni dimensione è indipendente; per la CO2
// vale solo la soglia più alta superata.
func Evaluate(s Snapshot, th Thresholds) []Action {
	var out []Action

	switch {
	case s.Temperature < th.TemperatureLow:
		out = append(out, HeatingOn)
	case s.Temperature > th.TemperatureHigh:
		out = append(out, CoolingOn)
	}

	switch {
	case s.Humidity < th.HumidityLow:
		out = append(out, HumidifierOn)
	case s.Humidity > th.HumidityHigh:
		out = append(out, DehumidifierOn)
	}

	switch {
	case s.CO2 > th.CO2Forced:
		out = append(out, VentilationForced)
	case s.CO2 > th.CO2Moderate:
		out = append(out, VentilationModerate)
	}

	switch {
	case s.Light < th.LightLow:
		out = append(out, LightsOn)
	case s.Light > th.LightHigh:
		out = append(out, LightsDim)
	}

	return out
}
