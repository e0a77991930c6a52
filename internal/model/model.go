package model

import (
	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
	"github.com/LeonardoBeccarini/iotmonitor/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type (
	ReadingEvent = messages.ReadingEvent
	ZoneEvent    = messages.ZoneEvent
	SensorType   = entities.SensorType
	Zone         = entities.Zone
	Network      = entities.Network
)

const (
	Temperature = entities.Temperature
	Humidity    = entities.Humidity
	CO2         = entities.CO2
	Light       = entities.Light
)
