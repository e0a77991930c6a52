package entities

import (
	"errors"
	"fmt"
	"strings"
)

// SensorType identifica la grandezza ambientale misurata da un sensore.
type SensorType string

const (
	Temperature SensorType = "Temperature"
	Humidity    SensorType = "Humidity"
	CO2         SensorType = "CO2"
	Light       SensorType = "Light"
)

// Unit è l'unità di misura associata a una lettura.
type Unit string

const (
	Celsius  Unit = "°C"
	Percent  Unit = "%"
	PPM      Unit = "ppm"
	Lux      Unit = "lux"
	NoneUnit Unit = ""
)

var ErrUnknownSensorType = errors.New("unknown sensor type")

// SensorTypes elenca i tipi supportati, in ordine stabile.
func SensorTypes() []SensorType {
	return []SensorType{Temperature, Humidity, CO2, Light}
}

func (t SensorType) Unit() Unit {
	switch t {
	case Temperature:
		return Celsius
	case Humidity:
		return Percent
	case CO2:
		return PPM
	case Light:
		return Lux
	default:
		return NoneUnit
	}
}

func (t SensorType) Valid() bool { return t.Unit() != NoneUnit }

func (t SensorType) String() string { return string(t) }

// nomi accettati dopo trim + lower-case (inglese e nomi storici in spagnolo)
var sensorAliases = map[string]SensorType{
	"temperature": Temperature,
	"temperatura": Temperature,
	"humidity":    Humidity,
	"humedad":     Humidity,
	"co2":         CO2,
	"light":       Light,
	"luz":         Light,
}

// ParseSensorType normalizza name e lo risolve in un SensorType.
func ParseSensorType(name string) (SensorType, error) {
	if t, ok := sensorAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSensorType, name)
}
