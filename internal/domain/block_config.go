package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// BlockType discriminates the shape of a Block's config.
type BlockType string

const (
	BlockStrengthLinear   BlockType = "strength_linear"
	BlockMetconStructured BlockType = "metcon_structured"
	BlockAccessory        BlockType = "accessory"
	BlockSkill            BlockType = "skill"
	BlockConditioning     BlockType = "conditioning"
	BlockWarmup           BlockType = "warmup"
	BlockMeal             BlockType = "meal"
)

// BlockTypes lists every block type with a registered config.
var BlockTypes = []BlockType{
	BlockStrengthLinear,
	BlockMetconStructured,
	BlockAccessory,
	BlockSkill,
	BlockConditioning,
	BlockWarmup,
	BlockMeal,
}

// ErrUnknownBlockType is returned when a block type has no config registered.
var ErrUnknownBlockType = errors.New("unknown block type")

// BlockConfig is the type-specific payload of a Block.
type BlockConfig interface {
	BlockType() BlockType
	Clone() BlockConfig
}

// SchemeHolder is implemented by configs prescribing sets of a movement.
type SchemeHolder interface {
	Scheme() *SetScheme
}

// MovementHolder is implemented by configs carrying a movements list.
type MovementHolder interface {
	MovementList() []Movement
	SetMovements([]Movement)
}

// ItemHolder is implemented by configs carrying a food items list.
type ItemHolder interface {
	ItemList() []ConfigItem
	SetItems([]ConfigItem)
}

// Reps is a rep prescription such as "5", "8-12" or "max". A JSON number
// is accepted and kept as its decimal text.
type Reps string

func (r *Reps) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Reps(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("reps must be a string or a number, got %s", data)
	}
	*r = Reps(n.String())
	return nil
}

// SeriesDetail overrides the scheme for one set. Nil fields inherit the global value.
type SeriesDetail struct {
	Set              int      `json:"set"`
	Reps             *Reps    `json:"reps,omitempty"`
	WeightPercentage *float64 `json:"weight_percentage,omitempty"`
	RestTime         *int     `json:"rest_time,omitempty"`
	Distance         *string  `json:"distance,omitempty"`
	RPE              *float64 `json:"rpe,omitempty"`
}

func (d SeriesDetail) clone() SeriesDetail {
	return SeriesDetail{
		Set:              d.Set,
		Reps:             clonePtr(d.Reps),
		WeightPercentage: clonePtr(d.WeightPercentage),
		RestTime:         clonePtr(d.RestTime),
		Distance:         clonePtr(d.Distance),
		RPE:              clonePtr(d.RPE),
	}
}

// SetScheme is the global prescription shared by every set.
type SetScheme struct {
	Sets          int            `json:"sets,omitempty"`
	Reps          Reps           `json:"reps,omitempty"`
	Percentage    *float64       `json:"percentage,omitempty"`
	Rest          *int           `json:"rest,omitempty"` // seconds
	Tempo         string         `json:"tempo,omitempty"`
	Distance      string         `json:"distance,omitempty"`
	RPE           *float64       `json:"rpe,omitempty"`
	SeriesDetails []SeriesDetail `json:"series_details,omitempty"`
}

func (s SetScheme) clone() SetScheme {
	out := s
	out.Percentage = clonePtr(s.Percentage)
	out.Rest = clonePtr(s.Rest)
	out.RPE = clonePtr(s.RPE)
	if s.SeriesDetails != nil {
		out.SeriesDetails = make([]SeriesDetail, len(s.SeriesDetails))
		for i, d := range s.SeriesDetails {
			out.SeriesDetails[i] = d.clone()
		}
	}
	return out
}

// Movement is one entry of a metcon, warmup, skill or accessory list.
type Movement struct {
	Name     string `json:"name"`
	Reps     Reps   `json:"reps,omitempty"`
	Load     string `json:"load,omitempty"`
	Distance string `json:"distance,omitempty"`
	Calories *int   `json:"calories,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func cloneMovements(ms []Movement) []Movement {
	if ms == nil {
		return nil
	}
	out := make([]Movement, len(ms))
	for i, m := range ms {
		out[i] = m
		out[i].Calories = clonePtr(m.Calories)
	}
	return out
}

// ConfigItem is a food portion inside a meal block.
type ConfigItem struct {
	FoodID   string  `json:"food_id"`
	Name     string  `json:"name,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

type StrengthLinearConfig struct {
	Exercise string `json:"exercise,omitempty"`
	SetScheme
}

func (*StrengthLinearConfig) BlockType() BlockType { return BlockStrengthLinear }
func (c *StrengthLinearConfig) Scheme() *SetScheme { return &c.SetScheme }
func (c *StrengthLinearConfig) Clone() BlockConfig {
	return &StrengthLinearConfig{Exercise: c.Exercise, SetScheme: c.SetScheme.clone()}
}

// MetconFormat selects how a metcon is scored.
type MetconFormat string

const (
	MetconAMRAP   MetconFormat = "amrap"
	MetconRFT     MetconFormat = "rft"
	MetconEMOM    MetconFormat = "emom"
	MetconTabata  MetconFormat = "tabata"
	MetconForTime MetconFormat = "for_time"
)

// MetconFormats lists every metcon format.
var MetconFormats = []MetconFormat{MetconAMRAP, MetconRFT, MetconEMOM, MetconTabata, MetconForTime}

type MetconConfig struct {
	Format      MetconFormat `json:"format"`
	Rounds      *int         `json:"rounds,omitempty"`
	TimeCap     *int         `json:"time_cap,omitempty"` // seconds
	Interval    *int         `json:"interval,omitempty"` // EMOM interval, seconds
	WorkSeconds *int         `json:"work_seconds,omitempty"`
	RestSeconds *int         `json:"rest_seconds,omitempty"`
	Movements   []Movement   `json:"movements"`
}

func (*MetconConfig) BlockType() BlockType        { return BlockMetconStructured }
func (c *MetconConfig) MovementList() []Movement  { return c.Movements }
func (c *MetconConfig) SetMovements(m []Movement) { c.Movements = m }
func (c *MetconConfig) Clone() BlockConfig {
	out := *c
	out.Rounds = clonePtr(c.Rounds)
	out.TimeCap = clonePtr(c.TimeCap)
	out.Interval = clonePtr(c.Interval)
	out.WorkSeconds = clonePtr(c.WorkSeconds)
	out.RestSeconds = clonePtr(c.RestSeconds)
	out.Movements = cloneMovements(c.Movements)
	return &out
}

// Validate checks the fields each format needs.
func (c *MetconConfig) Validate() error {
	switch c.Format {
	case MetconAMRAP:
		if c.TimeCap == nil || *c.TimeCap <= 0 {
			return errors.New("amrap requires a positive time_cap")
		}
	case MetconRFT:
		if c.Rounds == nil || *c.Rounds <= 0 {
			return errors.New("rft requires a positive rounds count")
		}
	case MetconEMOM:
		if c.Interval == nil || *c.Interval <= 0 || c.Rounds == nil || *c.Rounds <= 0 {
			return errors.New("emom requires a positive interval and rounds count")
		}
	case MetconTabata, MetconForTime:
	default:
		return fmt.Errorf("unknown metcon format %q", c.Format)
	}
	return nil
}

// Summary renders the metcon header the way coaches write it.
func (c *MetconConfig) Summary() string {
	switch c.Format {
	case MetconAMRAP:
		return "AMRAP " + clock(deref(c.TimeCap))
	case MetconRFT:
		s := fmt.Sprintf("%d RFT", deref(c.Rounds))
		if c.TimeCap != nil {
			s += " (cap " + clock(*c.TimeCap) + ")"
		}
		return s
	case MetconEMOM:
		return fmt.Sprintf("EMOM %d x %s", deref(c.Rounds), clock(deref(c.Interval)))
	case MetconTabata:
		rounds, work, rest := 8, 20, 10
		if c.Rounds != nil {
			rounds = *c.Rounds
		}
		if c.WorkSeconds != nil {
			work = *c.WorkSeconds
		}
		if c.RestSeconds != nil {
			rest = *c.RestSeconds
		}
		return fmt.Sprintf("Tabata %d x %d/%d", rounds, work, rest)
	case MetconForTime:
		if c.TimeCap != nil {
			return "For time (cap " + clock(*c.TimeCap) + ")"
		}
		return "For time"
	}
	return string(c.Format)
}

type AccessoryConfig struct {
	SetScheme
	Movements []Movement `json:"movements,omitempty"`
}

func (*AccessoryConfig) BlockType() BlockType        { return BlockAccessory }
func (c *AccessoryConfig) Scheme() *SetScheme        { return &c.SetScheme }
func (c *AccessoryConfig) MovementList() []Movement  { return c.Movements }
func (c *AccessoryConfig) SetMovements(m []Movement) { c.Movements = m }
func (c *AccessoryConfig) Clone() BlockConfig {
	return &AccessoryConfig{SetScheme: c.SetScheme.clone(), Movements: cloneMovements(c.Movements)}
}

type SkillConfig struct {
	Focus     string     `json:"focus,omitempty"`
	Duration  *int       `json:"duration,omitempty"` // seconds
	Movements []Movement `json:"movements,omitempty"`
}

func (*SkillConfig) BlockType() BlockType        { return BlockSkill }
func (c *SkillConfig) MovementList() []Movement  { return c.Movements }
func (c *SkillConfig) SetMovements(m []Movement) { c.Movements = m }
func (c *SkillConfig) Clone() BlockConfig {
	return &SkillConfig{Focus: c.Focus, Duration: clonePtr(c.Duration), Movements: cloneMovements(c.Movements)}
}

type ConditioningConfig struct {
	Modality string `json:"modality,omitempty"` // row, bike, run, ski...
	Duration *int   `json:"duration,omitempty"`
	SetScheme
}

func (*ConditioningConfig) BlockType() BlockType { return BlockConditioning }
func (c *ConditioningConfig) Scheme() *SetScheme { return &c.SetScheme }
func (c *ConditioningConfig) Clone() BlockConfig {
	return &ConditioningConfig{Modality: c.Modality, Duration: clonePtr(c.Duration), SetScheme: c.SetScheme.clone()}
}

type WarmupConfig struct {
	Duration  *int       `json:"duration,omitempty"`
	Movements []Movement `json:"movements,omitempty"`
}

func (*WarmupConfig) BlockType() BlockType        { return BlockWarmup }
func (c *WarmupConfig) MovementList() []Movement  { return c.Movements }
func (c *WarmupConfig) SetMovements(m []Movement) { c.Movements = m }
func (c *WarmupConfig) Clone() BlockConfig {
	return &WarmupConfig{Duration: clonePtr(c.Duration), Movements: cloneMovements(c.Movements)}
}

type MealBlockConfig struct {
	Time  string       `json:"time,omitempty"`
	Items []ConfigItem `json:"items"`
}

func (*MealBlockConfig) BlockType() BlockType      { return BlockMeal }
func (c *MealBlockConfig) ItemList() []ConfigItem  { return c.Items }
func (c *MealBlockConfig) SetItems(i []ConfigItem) { c.Items = i }
func (c *MealBlockConfig) Clone() BlockConfig {
	return &MealBlockConfig{Time: c.Time, Items: slices.Clone(c.Items)}
}

// NewBlockConfig returns an empty config for t.
func NewBlockConfig(t BlockType) (BlockConfig, error) {
	return DecodeBlockConfig(t, nil)
}

// DecodeBlockConfig decodes raw into the config type registered for t.
// Every BlockType must have a case here; unknown types are rejected.
func DecodeBlockConfig(t BlockType, raw []byte) (BlockConfig, error) {
	var cfg BlockConfig
	switch t {
	case BlockStrengthLinear:
		cfg = &StrengthLinearConfig{}
	case BlockMetconStructured:
		cfg = &MetconConfig{Format: MetconForTime}
	case BlockAccessory:
		cfg = &AccessoryConfig{}
	case BlockSkill:
		cfg = &SkillConfig{}
	case BlockConditioning:
		cfg = &ConditioningConfig{}
	case BlockWarmup:
		cfg = &WarmupConfig{}
	case BlockMeal:
		cfg = &MealBlockConfig{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", t, err)
	}
	return cfg, nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
