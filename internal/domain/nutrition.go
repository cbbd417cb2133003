package domain

import (
	"errors"
	"time"
)

// Food is a flat nutrition reference record.
type Food struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand,omitempty"`
	Category    string    `json:"category,omitempty"`
	Calories    float64   `json:"calories"`
	Protein     float64   `json:"protein"`
	Carbs       float64   `json:"carbs"`
	Fats        float64   `json:"fats"`
	ServingSize float64   `json:"serving_size"`
	Unit        string    `json:"unit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the fields a food needs before it is written.
func (f Food) Validate() error {
	if f.Name == "" {
		return errors.New("food name is required")
	}
	if f.ServingSize <= 0 {
		return errors.New("serving size must be positive")
	}
	if f.Calories < 0 || f.Protein < 0 || f.Carbs < 0 || f.Fats < 0 {
		return errors.New("macros cannot be negative")
	}
	return nil
}

// Macros is a calorie and macronutrient total.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Add returns the sum of m and o.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fats:     m.Fats + o.Fats,
	}
}

// MacrosFor scales the food's per-serving values to quantity.
func (f Food) MacrosFor(quantity float64) Macros {
	if f.ServingSize <= 0 {
		return Macros{}
	}
	ratio := quantity / f.ServingSize
	return Macros{
		Calories: f.Calories * ratio,
		Protein:  f.Protein * ratio,
		Carbs:    f.Carbs * ratio,
		Fats:     f.Fats * ratio,
	}
}

// MealPlan groups the meals prescribed to one client.
type MealPlan struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ClientID  string    `json:"client_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Meal struct {
	ID         string    `json:"id"`
	MealPlanID string    `json:"meal_plan_id"`
	Name       string    `json:"name"`
	Order      int       `json:"order"`
	Time       string    `json:"time,omitempty"` // "07:30"
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type MealItem struct {
	ID        string    `json:"id"`
	MealID    string    `json:"meal_id"`
	FoodID    string    `json:"food_id"`
	Quantity  float64   `json:"quantity"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
