package entities

import "math"

// Network è la rete di monitoraggio che raggruppa una o più zone.
type Network struct {
	ID            int    `json:"id" bson:"id"`
	Location      string `json:"location" bson:"location"`
	Description   string `json:"description" bson:"description"`
	PrimaryZoneID int    `json:"primary_zone_id,omitempty" bson:"primary_zone_id,omitempty"`
	TotalSensors  int    `json:"total_sensors" bson:"total_sensors"`
	TotalZones    int    `json:"total_zones" bson:"total_zones"`
}

// Coverage riassume la copertura della rete.
type Coverage struct {
	Zones             int     `json:"zones"`
	Sensors           int     `json:"sensors"`
	AvgSensorsPerZone float64 `json:"avg_sensors_per_zone"`
	HasPrimaryZone    bool    `json:"has_primary_zone"`
}

func (n *Network) AddSensors(count int) {
	if count > 0 {
		n.TotalSensors += count
	}
}

// RemoveSensors non scende mai sotto zero.
func (n *Network) RemoveSensors(count int) {
	if count > 0 {
		n.TotalSensors = max(0, n.TotalSensors-count)
	}
}

func (n *Network) AddZones(count int) {
	if count > 0 {
		n.TotalZones += count
	}
}

func (n *Network) RemoveZones(count int) {
	if count > 0 {
		n.TotalZones = max(0, n.TotalZones-count)
	}
}

func (n *Network) Coverage() Coverage {
	avg := 0.0
	if n.TotalZones > 0 {
		avg = round2(float64(n.TotalSensors) / float64(n.TotalZones))
	}
	return Coverage{
		Zones:             n.TotalZones,
		Sensors:           n.TotalSensors,
		AvgSensorsPerZone: avg,
		HasPrimaryZone:    n.PrimaryZoneID != 0,
	}
}

// Priority calcola l'indice di priorità ambientale: zone pesate più sensori*0.1.
func (n *Network) Priority(zoneWeight int) float64 {
	return round2(float64(n.TotalZones*zoneWeight) + float64(n.TotalSensors)*0.1)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
