package entities

import (
	"errors"
	"fmt"
)

// Priority è la priorità ambientale di un'installazione: 1 alta, 2 media, 3 bassa.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

var ErrInvalidPriority = errors.New("priority must be 1 (high), 2 (medium) or 3 (low)")

func (p Priority) Valid() bool { return p >= PriorityHigh && p <= PriorityLow }

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// EnvironmentalRecord è la scheda di un'installazione: lega una zona alla sua
// rete, al responsabile tecnico e a una priorità.
type EnvironmentalRecord struct {
	ID          int      `json:"id" bson:"id"`
	NetworkID   int      `json:"network_id" bson:"network_id"`
	ZoneID      int      `json:"zone_id" bson:"zone_id"`
	Responsible string   `json:"responsible" bson:"responsible"`
	Priority    Priority `json:"priority" bson:"priority"`
}

func NewEnvironmentalRecord(id int, n *Network, z *Zone, responsible string, p Priority) (*EnvironmentalRecord, error) {
	if n == nil || z == nil {
		return nil, errors.New("record: network and zone are required")
	}
	if !p.Valid() {
		return nil, fmt.Errorf("record %d: %w, got %d", id, ErrInvalidPriority, int(p))
	}
	return &EnvironmentalRecord{
		ID:          id,
		NetworkID:   n.ID,
		ZoneID:      z.ID,
		Responsible: responsible,
		Priority:    p,
	}, nil
}

// SetPriority aggiorna la priorità; un valore fuori scala lascia invariato il record.
func (r *EnvironmentalRecord) SetPriority(p Priority) error {
	if !p.Valid() {
		return fmt.Errorf("record %d: %w, got %d", r.ID, ErrInvalidPriority, int(p))
	}
	r.Priority = p
	return nil
}
