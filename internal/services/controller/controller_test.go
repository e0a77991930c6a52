package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model/entities"
	"github.com/LeonardoBeccarini/iotmonitor/internal/model/messages"
	sensorsim "github.com/LeonardoBeccarini/iotmonitor/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/iotmonitor/internal/task"
)

func has(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}

func TestEvaluateRules(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		snap Snapshot
		want []Action
	}{
		{"all nominal", Snapshot{Temperature: 20, Humidity: 60, CO2: 500, Light: 400}, nil},
		{"cold and dry", Snapshot{Temperature: 5, Humidity: 30, CO2: 500, Light: 400}, []Action{HeatingOn, HumidifierOn}},
		{"hot and wet", Snapshot{Temperature: 30, Humidity: 85, CO2: 500, Light: 400}, []Action{CoolingOn, DehumidifierOn}},
		{"co2 moderate", Snapshot{Temperature: 20, Humidity: 60, CO2: 750, Light: 400}, []Action{VentilationModerate}},
		{"co2 forced only", Snapshot{Temperature: 20, Humidity: 60, CO2: 950, Light: 400}, []Action{VentilationForced}},
		{"dark", Snapshot{Temperature: 20, Humidity: 60, CO2: 500, Light: 150}, []Action{LightsOn}},
		{"bright", Snapshot{Temperature: 20, Humidity: 60, CO2: 500, Light: 800}, []Action{LightsDim}},
		{"defaults", DefaultSnapshot(), []Action{HeatingOn}},
	}
	for _, c := range cases {
		got := Evaluate(c.snap, th)
		if len(got) != len(c.want) {
			t.Fatalf("%s: got %v want %v", c.name, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%s: got %v want %v", c.name, got, c.want)
			}
		}
	}
}

func TestEvaluateBoundariesAreStrict(t *testing.T) {
	th := DefaultThresholds()
	exact := Snapshot{Temperature: 8, Humidity: 40, CO2: 600, Light: 200}
	if got := Evaluate(exact, th); len(got) != 0 {
		t.Fatalf("low boundaries should not trigger, got %v", got)
	}
	exact = Snapshot{Temperature: 28, Humidity: 80, CO2: 900, Light: 700}
	got := Evaluate(exact, th)
	if len(got) != 1 || got[0] != VentilationModerate {
		t.Fatalf("high boundaries got %v want only ventilation_moderate (900 > 600)", got)
	}
}

func TestEvaluateJustPastBoundaries(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		snap Snapshot
		want []Action
	}{
		{"temperature above high", Snapshot{Temperature: 28.01, Humidity: 60, CO2: 500, Light: 400}, []Action{CoolingOn}},
		{"temperature below low", Snapshot{Temperature: 7.99, Humidity: 60, CO2: 500, Light: 400}, []Action{HeatingOn}},
		{"humidity above high", Snapshot{Temperature: 20, Humidity: 80.01, CO2: 500, Light: 400}, []Action{DehumidifierOn}},
		{"humidity below low", Snapshot{Temperature: 20, Humidity: 39.99, CO2: 500, Light: 400}, []Action{HumidifierOn}},
		{"co2 above forced", Snapshot{Temperature: 20, Humidity: 60, CO2: 900.01, Light: 400}, []Action{VentilationForced}},
		{"co2 above moderate", Snapshot{Temperature: 20, Humidity: 60, CO2: 600.01, Light: 400}, []Action{VentilationModerate}},
		{"light above high", Snapshot{Temperature: 20, Humidity: 60, CO2: 500, Light: 700.01}, []Action{LightsDim}},
		{"light below low", Snapshot{Temperature: 20, Humidity: 60, CO2: 500, Light: 199.99}, []Action{LightsOn}},
		{"all above", Snapshot{Temperature: 28.01, Humidity: 80.01, CO2: 900.01, Light: 700.01},
			[]Action{CoolingOn, DehumidifierOn, VentilationForced, LightsDim}},
		{"all below", Snapshot{Temperature: 7.99, Humidity: 39.99, CO2: 600.01, Light: 199.99},
			[]Action{HeatingOn, HumidifierOn, VentilationModerate, LightsOn}},
	}
	for _, c := range cases {
		got := Evaluate(c.snap, th)
		if len(got) != len(c.want) {
			t.Fatalf("%s: got %v want %v", c.name, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%s: got %v want %v", c.name, got, c.want)
			}
		}
	}
}

func TestActionDimensions(t *testing.T) {
	want := map[Action]entities.SensorType{
		HeatingOn: entities.Temperature, DehumidifierOn: entities.Humidity,
		VentilationForced: entities.CO2, LightsDim: entities.Light,
	}
	for a, dim := range want {
		if a.Dimension() != dim {
			t.Fatalf("%s dimension got %s want %s", a, a.Dimension(), dim)
		}
		if a.Description() == string(a) {
			t.Fatalf("%s has no description", a)
		}
	}
}

func TestOnEventLastValueWins(t *testing.T) {
	c := New(entities.NewZone(1, "Greenhouse", "", "greenhouse"), nil)
	if c.Snapshot() != DefaultSnapshot() {
		t.Fatalf("initial snapshot got %+v want defaults", c.Snapshot())
	}
	c.OnEvent(messages.NewReadingEvent(entities.Temperature, 10, 1))
	c.OnEvent(messages.NewReadingEvent(entities.Temperature, 12, 1))
	c.OnEvent(messages.NewReadingEvent(entities.CO2, 950, 2))
	c.OnEvent(messages.ReadingEvent{SensorType: "Pressure", Value: 1013})

	s := c.Snapshot()
	if s.Temperature != 12 || s.CO2 != 950 {
		t.Fatalf("snapshot got %+v", s)
	}
	if s.Humidity != 50 || s.Light != 250 {
		t.Fatalf("unreported dimensions should keep defaults, got %+v", s)
	}
	if c.Absorbed() != 3 {
		t.Fatalf("absorbed got %d want 3", c.Absorbed())
	}
}

func TestOnEventConcurrentWriters(t *testing.T) {
	c := New(entities.NewZone(1, "z", "", ""), nil)
	var wg sync.WaitGroup
	for _, st := range entities.SensorTypes() {
		wg.Add(1)
		go func(st entities.SensorType) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.OnEvent(messages.NewReadingEvent(st, float64(i), 1))
				_ = c.Snapshot()
			}
		}(st)
	}
	wg.Wait()
	want := Snapshot{Temperature: 199, Humidity: 199, CO2: 199, Light: 199}
	if got := c.Snapshot(); got != want {
		t.Fatalf("snapshot got %+v want %+v", got, want)
	}
}

type zoneEvents struct {
	mu  sync.Mutex
	evs []messages.ZoneEvent
}

func (z *zoneEvents) OnEvent(ev messages.ZoneEvent) {
	z.mu.Lock()
	z.evs = append(z.evs, ev)
	z.mu.Unlock()
}

type brokenSink struct{}

func (*brokenSink) OnEvent(messages.ZoneEvent) { panic("sink down") }

func TestRunCyclePublishesZoneEventsAndAlerts(t *testing.T) {
	reg := sensorsim.NewRegistry()
	r, _ := sensorsim.NewFactory().Create("Temperature", 4)
	_ = reg.Register(r)

	zone := entities.NewZone(3, "Lab", "", "laboratory")
	c := New(zone, reg)
	got := &zoneEvents{}
	c.Events().Subscribe(&brokenSink{})
	c.Events().Subscribe(got)

	c.OnEvent(messages.NewReadingEvent(entities.Temperature, 31.2, 4))
	c.OnEvent(messages.NewReadingEvent(entities.CO2, 1200, 9))

	actions := c.RunCycle()
	if !has(actions, CoolingOn) || !has(actions, VentilationForced) {
		t.Fatalf("actions got %v", actions)
	}
	if len(got.evs) != 2 {
		t.Fatalf("zone events got %d want 2", len(got.evs))
	}
	if got.evs[0].Origin != "TemperatureReader-4" || got.evs[0].ZoneID != 3 || got.evs[0].Value != 31.2 {
		t.Fatalf("first zone event got %+v", got.evs[0])
	}
	if got.evs[1].Origin != "sensor-9" {
		t.Fatalf("unregistered sensor origin got %q", got.evs[1].Origin)
	}

	c.RunCycle()
	if zone.ActiveAlerts() != 2 {
		t.Fatalf("alerts got %d want 2 (repeats inside window suppressed)", zone.ActiveAlerts())
	}
}

func TestControllerLoopCountsCycles(t *testing.T) {
	c := New(entities.NewZone(1, "z", "", ""), nil, WithInterval(5*time.Millisecond))
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	c.Stop()
	if err := c.Join(time.Second); err != nil {
		t.Fatalf("join: %v", err)
	}
	if c.Cycles() < 2 {
		t.Fatalf("cycles got %d want >= 2", c.Cycles())
	}
	if c.State() != task.Stopped {
		t.Fatalf("state got %s want STOPPED", c.State())
	}
}

func TestStopInterruptsLongInterval(t *testing.T) {
	c := New(entities.NewZone(1, "z", "", ""), nil, WithInterval(time.Hour))
	_ = c.Start(context.Background())
	deadline := time.Now().Add(time.Second)
	for c.Cycles() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	start := time.Now()
	c.Stop()
	if err := c.Join(time.Second); err != nil {
		t.Fatalf("join: %v", err)
	}
	if el := time.Since(start); el > 500*time.Millisecond {
		t.Fatalf("stop took %s", el)
	}
	if c.Cycles() != 1 {
		t.Fatalf("cycles got %d want 1 (evaluates immediately)", c.Cycles())
	}
}
