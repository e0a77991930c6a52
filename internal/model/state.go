package model

import (
	"time"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
)

// NetworkState è la fotografia dello stato di rete salvata a fine simulazione.
type NetworkState struct {
	Network    entities.Network             `json:"network" bson:"network"`
	Zone       ZoneSnapshot                 `json:"zone" bson:"zone"`
	Record     entities.EnvironmentalRecord `json:"record" bson:"record"`
	Sensors    []SensorSnapshot             `json:"sensors" bson:"sensors"`
	Controller ControllerSnapshot           `json:"controller" bson:"controller"`
	SavedAt    time.Time                    `json:"saved_at" bson:"saved_at"`
}

type ZoneSnapshot struct {
	ID           int    `json:"id" bson:"id"`
	Name         string `json:"name" bson:"name"`
	Location     string `json:"location" bson:"location"`
	Kind         string `json:"kind" bson:"kind"`
	SensorIDs    []int  `json:"sensor_ids" bson:"sensor_ids"`
	ActiveAlerts int    `json:"active_alerts" bson:"active_alerts"`
}

type SensorSnapshot struct {
	ID        int                 `json:"id" bson:"id"`
	Type      entities.SensorType `json:"type" bson:"type"`
	Unit      entities.Unit       `json:"unit" bson:"unit"`
	Interval  time.Duration       `json:"interval" bson:"interval"`
	Min       float64             `json:"min" bson:"min"`
	Max       float64             `json:"max" bson:"max"`
	Published uint64              `json:"published" bson:"published"`
	LastValue *float64            `json:"last_value,omitempty" bson:"last_value,omitempty"`
	State     string              `json:"state" bson:"state"`
}

type ControllerSnapshot struct {
	Name        string  `json:"name" bson:"name"`
	Cycles      uint64  `json:"cycles" bson:"cycles"`
	Absorbed    uint64  `json:"absorbed" bson:"absorbed"`
	Temperature float64 `json:"temperature" bson:"temperature"`
	Humidity    float64 `json:"humidity" bson:"humidity"`
	CO2         float64 `json:"co2" bson:"co2"`
	Light       float64 `json:"light" bson:"light"`
}

// NewZoneSnapshot copia lo stato corrente di z.
func NewZoneSnapshot(z *entities.Zone) ZoneSnapshot {
	return ZoneSnapshot{
		ID:           z.ID,
		Name:         z.Name,
		Location:     z.Location,
		Kind:         z.Kind,
		SensorIDs:    z.SensorIDs(),
		ActiveAlerts: z.ActiveAlerts(),
	}
}
