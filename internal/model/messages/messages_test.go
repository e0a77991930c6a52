package messages

import (
	"testing"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
)

func TestNewReadingEventDerivesUnit(t *testing.T) {
	ev := NewReadingEvent(entities.CO2, 812.4, 3)
	if ev.Unit != entities.PPM {
		t.Fatalf("unit got %q want %q", ev.Unit, entities.PPM)
	}
	if ev.Timestamp.IsZero() {
		t.Fatalf("timestamp not set")
	}
	if got := ev.String(); got != "CO2=812.4ppm (sensor 3)" {
		t.Fatalf("string got %q", got)
	}
}

func TestNewZoneEventHasUniqueID(t *testing.T) {
	a := NewZoneEvent("heating_on", "EnvironmentalController-1", 1, entities.Temperature, 5.5, "")
	b := NewZoneEvent("heating_on", "EnvironmentalController-1", 1, entities.Temperature, 5.5, "")
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids got %q and %q, want distinct non-empty", a.ID, b.ID)
	}
}
