package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProgramStatus tracks a program's lifecycle.
type ProgramStatus string

const (
	ProgramDraft    ProgramStatus = "draft"
	ProgramActive   ProgramStatus = "active"
	ProgramArchived ProgramStatus = "archived"
)

// Valid reports whether s is a known status.
func (s ProgramStatus) Valid() bool {
	return s == ProgramDraft || s == ProgramActive || s == ProgramArchived
}

// DaysPerWeek is the number of day slots in every mesocycle.
const DaysPerWeek = 7

// Program is the top-level multi-week plan owned by a coach or admin.
type Program struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      ProgramStatus  `json:"status"`
	IsTemplate  bool           `json:"is_template"`
	Attributes  map[string]any `json:"attributes,omitempty"` // methodology tags, gradient metadata
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Mesocycle is one week of a Program.
type Mesocycle struct {
	ID         string         `json:"id"`
	ProgramID  string         `json:"program_id"`
	WeekNumber int            `json:"week_number"` // 1-based, unique per program
	Focus      string         `json:"focus,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Day is one persisted slot of a Mesocycle.
type Day struct {
	ID          string    `json:"id"`
	MesocycleID string    `json:"mesocycle_id"`
	DayNumber   int       `json:"day_number"` // 1 (Monday) to 7
	Name        *string   `json:"name,omitempty"`
	IsRestDay   bool      `json:"is_rest_day"`
	Notes       string    `json:"notes,omitempty"`
	StimulusID  *string   `json:"stimulus_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var weekdayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ValidDayNumber reports whether n is in [1, DaysPerWeek].
func ValidDayNumber(n int) bool {
	return n >= 1 && n <= DaysPerWeek
}

// WeekdayName returns the default name for a day number.
func WeekdayName(n int) string {
	if !ValidDayNumber(n) {
		return ""
	}
	return weekdayNames[n-1]
}

// DisplayName returns the day's name, falling back to the weekday.
func (d Day) DisplayName() string {
	if d.Name != nil && *d.Name != "" {
		return *d.Name
	}
	return WeekdayName(d.DayNumber)
}

// Block is one scheduled unit of work within a Day.
type Block struct {
	ID            string
	DayID         string
	OrderIndex    int
	Type          BlockType
	Name          string
	Format        string
	Config        BlockConfig
	ProgressionID *string // links the same slot across weeks
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type blockJSON struct {
	ID            string          `json:"id"`
	DayID         string          `json:"day_id"`
	OrderIndex    int             `json:"order_index"`
	Type          BlockType       `json:"type"`
	Name          string          `json:"name"`
	Format        string          `json:"format,omitempty"`
	Config        json.RawMessage `json:"config,omitempty"`
	ProgressionID *string         `json:"progression_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// MarshalJSON writes the config under "config" with its type in "type".
func (b Block) MarshalJSON() ([]byte, error) {
	var raw json.RawMessage
	if b.Config != nil {
		if b.Config.BlockType() != b.Type {
			return nil, fmt.Errorf("block %s: config type %q does not match block type %q", b.ID, b.Config.BlockType(), b.Type)
		}
		encoded, err := json.Marshal(b.Config)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	return json.Marshal(blockJSON{
		ID:            b.ID,
		DayID:         b.DayID,
		OrderIndex:    b.OrderIndex,
		Type:          b.Type,
		Name:          b.Name,
		Format:        b.Format,
		Config:        raw,
		ProgressionID: b.ProgressionID,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	})
}

// UnmarshalJSON decodes the config into the Go type registered for "type".
func (b *Block) UnmarshalJSON(data []byte) error {
	var aux blockJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	cfg, err := DecodeBlockConfig(aux.Type, aux.Config)
	if err != nil {
		return err
	}
	*b = Block{
		ID:            aux.ID,
		DayID:         aux.DayID,
		OrderIndex:    aux.OrderIndex,
		Type:          aux.Type,
		Name:          aux.Name,
		Format:        aux.Format,
		Config:        cfg,
		ProgressionID: aux.ProgressionID,
		CreatedAt:     aux.CreatedAt,
		UpdatedAt:     aux.UpdatedAt,
	}
	return nil
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := b
	if b.Config != nil {
		out.Config = b.Config.Clone()
	}
	out.ProgressionID = clonePtr(b.ProgressionID)
	return out
}

// Clone returns a copy of the day with its own pointer fields.
func (d Day) Clone() Day {
	out := d
	out.Name = clonePtr(d.Name)
	out.StimulusID = clonePtr(d.StimulusID)
	return out
}
