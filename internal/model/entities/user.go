package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRole        = errors.New("invalid user role")
	ErrInactiveCredential = errors.New("access credential is not active")
	ErrDeviceNotVerified  = errors.New("device is not verified")
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "tecnico"
	RoleObserver   Role = "observador"
)

// Credential è l'accesso digitale di un utente: solo un flag attivo/non attivo.
type Credential struct {
	Active   bool      `json:"active"`
	IssuedAt time.Time `json:"issued_at"`
	Notes    string    `json:"notes,omitempty"`
}

// AssignedDevice è un dispositivo consegnato a un utente; esiste solo se verificato.
type AssignedDevice struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

func NewAssignedDevice(id int, name string, verified bool) (*AssignedDevice, error) {
	if !verified {
		return nil, fmt.Errorf("device %d (%s): %w", id, name, ErrDeviceNotVerified)
	}
	return &AssignedDevice{ID: id, Name: name, Verified: true}, nil
}

type UserTask struct {
	ID          int             `json:"id"`
	Description string          `json:"description"`
	AssignedAt  time.Time       `json:"assigned_at"`
	Completed   bool            `json:"completed"`
	Device      *AssignedDevice `json:"device,omitempty"`
}

type User struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Credential Credential `json:"credential"`
	Tasks      []UserTask `json:"tasks,omitempty"`
}

// NewUser crea un utente con credenziale attiva; il ruolo è normalizzato in minuscolo.
func NewUser(id int, name, role string) (*User, error) {
	r := Role(strings.ToLower(strings.TrimSpace(role)))
	switch r {
	case RoleAdmin, RoleTechnician, RoleObserver:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return &User{
		ID:         id,
		Name:       name,
		Role:       r,
		Credential: Credential{Active: true, IssuedAt: time.Now(), Notes: "default access"},
	}, nil
}

func (u *User) CanOperate() error {
	if !u.Credential.Active {
		return fmt.Errorf("user %d: %w", u.ID, ErrInactiveCredential)
	}
	return nil
}

func (u *User) Revoke(notes string) {
	u.Credential = Credential{Active: false, IssuedAt: time.Now(), Notes: notes}
}

func (u *User) AddTask(t UserTask) {
	u.Tasks = append(u.Tasks, t)
}

// PendingTasks ritorna le attività non ancora completate.
func (u *User) PendingTasks() []UserTask {
	var out []UserTask
	for _, t := range u.Tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}
