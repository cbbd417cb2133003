// Package seed reads reference foods and program templates from TOML files
// and writes them through the services.
package seed

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//
// For TOML parsing only
//

type FoodsTOML struct {
	Foods []FoodTOML `toml:"food"`
}

type FoodTOML struct {
	Name        string  `toml:"name"`
	Brand       string  `toml:"brand,omitempty"`
	Category    string  `toml:"category,omitempty"`
	Calories    float64 `toml:"calories"`
	Protein     float64 `toml:"protein"`
	Carbs       float64 `toml:"carbs"`
	Fats        float64 `toml:"fats"`
	ServingSize float64 `toml:"serving_size"`
	Unit        string  `toml:"unit"`
}

type ProgramTOML struct {
	Name        string         `toml:"name"`
	Description string         `toml:"description"`
	Template    bool           `toml:"template"`
	Attributes  map[string]any `toml:"attributes,omitempty"`
	Weeks       []WeekTOML     `toml:"week"`
}

type WeekTOML struct {
	Number int       `toml:"number"`
	Focus  string    `toml:"focus,omitempty"`
	Days   []DayTOML `toml:"day"`
}

type DayTOML struct {
	Number int         `toml:"number"`
	Name   string      `toml:"name,omitempty"`
	Rest   bool        `toml:"rest,omitempty"`
	Notes  string      `toml:"notes,omitempty"`
	Blocks []BlockTOML `toml:"block"`
}

type BlockTOML struct {
	Type        string         `toml:"type"`
	Name        string         `toml:"name"`
	Format      string         `toml:"format,omitempty"`
	Progression string         `toml:"progression,omitempty"` // blocks sharing a key form one progression
	Config      map[string]any `toml:"config,omitempty"`
}

// ReadFoods decodes a foods file and validates every entry.
func ReadFoods(r io.Reader) ([]domain.Food, error) {
	var doc FoodsTOML
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode foods: %w", err)
	}
	foods := make([]domain.Food, 0, len(doc.Foods))
	for i, f := range doc.Foods {
		food := domain.Food{
			Name:        strings.TrimSpace(f.Name),
			Brand:       f.Brand,
			Category:    f.Category,
			Calories:    f.Calories,
			Protein:     f.Protein,
			Carbs:       f.Carbs,
			Fats:        f.Fats,
			ServingSize: f.ServingSize,
			Unit:        f.Unit,
		}
		if food.Unit == "" {
			food.Unit = "g"
		}
		if err := food.Validate(); err != nil {
			return nil, fmt.Errorf("food %d (%q): %w", i+1, f.Name, err)
		}
		foods = append(foods, food)
	}
	return foods, nil
}

// ReadProgram decodes a program template into a tree with local ids. The ids
// only link the nodes to each other; writing the tree assigns real ones.
func ReadProgram(r io.Reader) (*draft.Tree, error) {
	var doc ProgramTOML
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode program: %w", err)
	}
	return doc.Tree()
}

// Tree converts the template to a program tree.
func (p ProgramTOML) Tree() (*draft.Tree, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("program name is required")
	}
	tree := &draft.Tree{Program: domain.Program{
		Name:        p.Name,
		Description: p.Description,
		Status:      domain.ProgramDraft,
		IsTemplate:  p.Template,
		Attributes:  p.Attributes,
	}}

	seenWeeks := map[int]bool{}
	for wi, w := range p.Weeks {
		number := w.Number
		if number == 0 {
			number = wi + 1
		}
		if seenWeeks[number] {
			return nil, fmt.Errorf("week %d defined twice", number)
		}
		seenWeeks[number] = true
		mesoID := fmt.Sprintf("w%d", number)
		tree.Mesocycles = append(tree.Mesocycles, domain.Mesocycle{ID: mesoID, WeekNumber: number, Focus: w.Focus})

		seenDays := map[int]bool{}
		for _, d := range w.Days {
			if !domain.ValidDayNumber(d.Number) {
				return nil, fmt.Errorf("week %d: day number %d out of range", number, d.Number)
			}
			if seenDays[d.Number] {
				return nil, fmt.Errorf("week %d: day %d defined twice", number, d.Number)
			}
			seenDays[d.Number] = true
			dayID := fmt.Sprintf("%sd%d", mesoID, d.Number)
			day := domain.Day{ID: dayID, MesocycleID: mesoID, DayNumber: d.Number, IsRestDay: d.Rest, Notes: d.Notes}
			if d.Name != "" {
				name := d.Name
				day.Name = &name
			}
			tree.Days = append(tree.Days, day)

			for bi, b := range d.Blocks {
				block, err := b.block(fmt.Sprintf("%sb%d", dayID, bi), dayID, bi)
				if err != nil {
					return nil, fmt.Errorf("week %d day %d block %d: %w", number, d.Number, bi+1, err)
				}
				tree.Blocks = append(tree.Blocks, block)
			}
		}
	}
	return tree, nil
}

func (b BlockTOML) block(id, dayID string, order int) (domain.Block, error) {
	t := domain.BlockType(b.Type)
	var raw []byte
	if len(b.Config) > 0 {
		encoded, err := json.Marshal(b.Config)
		if err != nil {
			return domain.Block{}, err
		}
		raw = encoded
	}
	cfg, err := domain.DecodeBlockConfig(t, raw)
	if err != nil {
		return domain.Block{}, err
	}
	if v, ok := cfg.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return domain.Block{}, err
		}
	}
	block := domain.Block{
		ID:         id,
		DayID:      dayID,
		OrderIndex: order,
		Type:       t,
		Name:       b.Name,
		Format:     b.Format,
		Config:     cfg,
	}
	if b.Progression != "" {
		key := b.Progression
		block.ProgressionID = &key
	}
	return block, nil
}

// ReadFoodsFile reads foods from path.
func ReadFoodsFile(path string) ([]domain.Food, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open foods file: %w", err)
	}
	defer f.Close()
	foods, err := ReadFoods(f)
	if err != nil {
		return nil, fmt.Errorf("reading foods from %s: %w", path, err)
	}
	return foods, nil
}

// ReadProgramFile reads a program template from path.
func ReadProgramFile(path string) (*draft.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file: %w", err)
	}
	defer f.Close()
	tree, err := ReadProgram(f)
	if err != nil {
		return nil, fmt.Errorf("reading program from %s: %w", path, err)
	}
	return tree, nil
}
