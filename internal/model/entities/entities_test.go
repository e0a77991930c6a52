package entities

import (
	"errors"
	"testing"
)

func TestParseSensorType(t *testing.T) {
	cases := map[string]SensorType{
		"Temperature": Temperature,
		"  humidity ": Humidity,
		"CO2":         CO2,
		"co2":         CO2,
		"LIGHT":       Light,
		"temperatura": Temperature,
		"Humedad":     Humidity,
		"luz":         Light,
	}
	for in, want := range cases {
		got, err := ParseSensorType(in)
		if err != nil {
			t.Fatalf("ParseSensorType(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSensorType(%q) got %v want %v", in, got, want)
		}
	}

	if _, err := ParseSensorType("Pressure"); !errors.Is(err, ErrUnknownSensorType) {
		t.Fatalf("Pressure err got %v want ErrUnknownSensorType", err)
	}
}

func TestUnits(t *testing.T) {
	want := map[SensorType]Unit{Temperature: Celsius, Humidity: Percent, CO2: PPM, Light: Lux}
	for _, st := range SensorTypes() {
		if st.Unit() != want[st] {
			t.Fatalf("%s unit got %q want %q", st, st.Unit(), want[st])
		}
	}
	if SensorType("Pressure").Valid() {
		t.Fatalf("Pressure should not be valid")
	}
}

func TestZoneSensorsAndAlerts(t *testing.T) {
	z := NewZone(1, "Greenhouse A", "North wing", "greenhouse")
	if !z.AddSensor(1) || z.AddSensor(1) {
		t.Fatalf("AddSensor should add once")
	}
	z.AddSensor(2)
	if !z.RemoveSensor(1) || z.RemoveSensor(1) {
		t.Fatalf("RemoveSensor should remove once")
	}
	if got := z.SensorIDs(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("sensors got %v want [2]", got)
	}

	z.RegisterAlert()
	if n := z.RegisterAlert(); n != 2 {
		t.Fatalf("alerts got %d want 2", n)
	}
	z.ClearAlerts()
	if z.ActiveAlerts() != 0 {
		t.Fatalf("alerts should be cleared")
	}
}

func TestZoneAssignUserRequiresActiveCredential(t *testing.T) {
	z := NewZone(1, "Lab", "", "laboratory")
	u, err := NewUser(7, "Ana", " Tecnico ")
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if u.Role != RoleTechnician {
		t.Fatalf("role got %q want %q", u.Role, RoleTechnician)
	}
	if err := z.AssignUser(u); err != nil {
		t.Fatalf("AssignUser: %v", err)
	}
	if err := z.AssignUser(u); err != nil || len(z.Users()) != 1 {
		t.Fatalf("second AssignUser should be a no-op, users=%d err=%v", len(z.Users()), err)
	}

	u.Revoke("left the project")
	other := NewZone(2, "Lab 2", "", "laboratory")
	if err := other.AssignUser(u); !errors.Is(err, ErrInactiveCredential) {
		t.Fatalf("err got %v want ErrInactiveCredential", err)
	}
}

func TestNewUserRejectsUnknownRole(t *testing.T) {
	if _, err := NewUser(1, "Bob", "guest"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("err got %v want ErrInvalidRole", err)
	}
}

func TestAssignedDeviceMustBeVerified(t *testing.T) {
	if _, err := NewAssignedDevice(3, "tablet", false); !errors.Is(err, ErrDeviceNotVerified) {
		t.Fatalf("err got %v want ErrDeviceNotVerified", err)
	}
	d, err := NewAssignedDevice(3, "tablet", true)
	if err != nil || !d.Verified {
		t.Fatalf("verified device got %+v err %v", d, err)
	}

	u, _ := NewUser(1, "Ana", "admin")
	u.AddTask(UserTask{ID: 1, Description: "calibrate", Device: d})
	u.AddTask(UserTask{ID: 2, Description: "inspect", Completed: true})
	if p := u.PendingTasks(); len(p) != 1 || p[0].ID != 1 {
		t.Fatalf("pending got %+v", p)
	}
}

func TestNetworkCoverageAndPriority(t *testing.T) {
	n := &Network{ID: 1, Location: "Campus"}
	n.AddZones(3)
	n.AddSensors(10)
	n.RemoveSensors(20)
	if n.TotalSensors != 0 {
		t.Fatalf("sensors should clamp at zero, got %d", n.TotalSensors)
	}
	n.AddSensors(10)

	c := n.Coverage()
	if c.AvgSensorsPerZone != 3.33 {
		t.Fatalf("avg got %v want 3.33", c.AvgSensorsPerZone)
	}
	if c.HasPrimaryZone {
		t.Fatalf("no primary zone set")
	}
	if p := n.Priority(2); p != 7 {
		t.Fatalf("priority got %v want 7", p)
	}
	if (&Network{}).Coverage().AvgSensorsPerZone != 0 {
		t.Fatalf("empty network avg should be 0")
	}
}

func TestEnvironmentalRecord(t *testing.T) {
	n := &Network{ID: 4, Location: "Campus"}
	z := NewZone(2, "Lab", "", "laboratory")

	r, err := NewEnvironmentalRecord(1, n, z, "Ana", PriorityMedium)
	if err != nil {
		t.Fatalf("NewEnvironmentalRecord: %v", err)
	}
	if r.NetworkID != 4 || r.ZoneID != 2 || r.Priority.String() != "medium" {
		t.Fatalf("record got %+v", r)
	}

	for _, p := range []Priority{0, 4} {
		if _, err := NewEnvironmentalRecord(1, n, z, "Ana", p); !errors.Is(err, ErrInvalidPriority) {
			t.Fatalf("priority %d err got %v want ErrInvalidPriority", p, err)
		}
		if err := r.SetPriority(p); !errors.Is(err, ErrInvalidPriority) || r.Priority != PriorityMedium {
			t.Fatalf("SetPriority(%d) err %v, priority now %v", p, err, r.Priority)
		}
	}
	if err := r.SetPriority(PriorityHigh); err != nil || r.Priority != PriorityHigh {
		t.Fatalf("SetPriority(high) err %v, priority %v", err, r.Priority)
	}
	if _, err := NewEnvironmentalRecord(1, nil, z, "Ana", PriorityLow); err == nil {
		t.Fatalf("missing network should fail")
	}
}
