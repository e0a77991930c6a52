package entities

import (
	"slices"
	"sync"
)

// Zone è un'area monitorata: tiene i sensori installati, gli utenti assegnati
// e il contatore degli allarmi attivi. Va condivisa per puntatore.
type Zone struct {
	ID       int
	Name     string
	Location string
	Kind     string // es. "greenhouse", "laboratory"

	mu      sync.Mutex
	sensors []int
	users   []*User
	alerts  int
}

func NewZone(id int, name, location, kind string) *Zone {
	return &Zone{ID: id, Name: name, Location: location, Kind: kind}
}

// AddSensor registra id nella zona; ritorna false se già presente.
func (z *Zone) AddSensor(id int) bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	if slices.Contains(z.sensors, id) {
		return false
	}
	z.sensors = append(z.sensors, id)
	return true
}

func (z *Zone) RemoveSensor(id int) bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	i := slices.Index(z.sensors, id)
	if i < 0 {
		return false
	}
	z.sensors = slices.Delete(z.sensors, i, i+1)
	return true
}

func (z *Zone) SensorIDs() []int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return slices.Clone(z.sensors)
}

// AssignUser assegna u alla zona. Solo utenti con credenziale attiva.
func (z *Zone) AssignUser(u *User) error {
	if err := u.CanOperate(); err != nil {
		return err
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	for _, cur := range z.users {
		if cur.ID == u.ID {
			return nil
		}
	}
	z.users = append(z.users, u)
	return nil
}

func (z *Zone) Users() []*User {
	z.mu.Lock()
	defer z.mu.Unlock()
	return slices.Clone(z.users)
}

func (z *Zone) RegisterAlert() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.alerts++
	return z.alerts
}

func (z *Zone) ClearAlerts() {
	z.mu.Lock()
	z.alerts = 0
	z.mu.Unlock()
}

func (z *Zone) ActiveAlerts() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.alerts
}
