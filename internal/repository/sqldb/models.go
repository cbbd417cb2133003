package sqldb

import (
	"alcyxob/coach-dashboard/internal/domain"
	"time"

	"gorm.io/datatypes"
)

// Table models mirror the json column names used by the domain rows.

type ProgramModel struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	OwnerID     string         `gorm:"size:36;index" json:"owner_id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `json:"description"`
	Status      string         `gorm:"size:16;not null;default:draft" json:"status"`
	IsTemplate  bool           `gorm:"index" json:"is_template"`
	Attributes  datatypes.JSON `json:"attributes"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (ProgramModel) TableName() string { return string(domain.KindPrograms) }

type MesocycleModel struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	ProgramID  string         `gorm:"size:36;not null;uniqueIndex:idx_program_week" json:"program_id"`
	WeekNumber int            `gorm:"not null;uniqueIndex:idx_program_week" json:"week_number"`
	Focus      string         `gorm:"size:255" json:"focus"`
	Attributes datatypes.JSON `json:"attributes"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (MesocycleModel) TableName() string { return string(domain.KindMesocycles) }

type DayModel struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	MesocycleID string    `gorm:"size:36;not null;uniqueIndex:idx_mesocycle_day" json:"mesocycle_id"`
	DayNumber   int       `gorm:"not null;uniqueIndex:idx_mesocycle_day" json:"day_number"`
	Name        *string   `gorm:"size:255" json:"name"`
	IsRestDay   bool      `gorm:"not null;default:false" json:"is_rest_day"`
	Notes       string    `json:"notes"`
	StimulusID  *string   `gorm:"size:64" json:"stimulus_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (DayModel) TableName() string { return string(domain.KindDays) }

type BlockModel struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	DayID         string         `gorm:"size:36;not null;index" json:"day_id"`
	OrderIndex    int            `gorm:"not null;default:0" json:"order_index"`
	Type          string         `gorm:"size:32;not null" json:"type"`
	Name          string         `gorm:"size:255" json:"name"`
	Format        string         `gorm:"size:64" json:"format"`
	Config        datatypes.JSON `json:"config"`
	ProgressionID *string        `gorm:"size:128;index" json:"progression_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (BlockModel) TableName() string { return string(domain.KindBlocks) }

type MealPlanModel struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   string    `gorm:"size:36;index" json:"owner_id"`
	ClientID  string    `gorm:"size:36;index" json:"client_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MealPlanModel) TableName() string { return string(domain.KindMealPlans) }

type MealModel struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	MealPlanID string    `gorm:"size:36;not null;index" json:"meal_plan_id"`
	Name       string    `gorm:"size:255" json:"name"`
	Order      int       `gorm:"column:order;not null;default:0" json:"order"`
	Time       string    `gorm:"size:8" json:"time"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (MealModel) TableName() string { return string(domain.KindMeals) }

type MealItemModel struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	MealID    string    `gorm:"size:36;not null;index" json:"meal_id"`
	FoodID    string    `gorm:"size:36;not null" json:"food_id"`
	Quantity  float64   `json:"quantity"`
	Order     int       `gorm:"column:order;not null;default:0" json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MealItemModel) TableName() string { return string(domain.KindMealItems) }

type FoodModel struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255;not null;index" json:"name"`
	Brand       string    `gorm:"size:255" json:"brand"`
	Category    string    `gorm:"size:64;index" json:"category"`
	Calories    float64   `json:"calories"`
	Protein     float64   `json:"protein"`
	Carbs       float64   `json:"carbs"`
	Fats        float64   `json:"fats"`
	ServingSize float64   `json:"serving_size"`
	Unit        string    `gorm:"size:16" json:"unit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (FoodModel) TableName() string { return string(domain.KindFoods) }

type ProfileModel struct {
	ID                  string    `gorm:"primaryKey;size:36" json:"id"`
	Name                string    `gorm:"size:255" json:"name"`
	Email               string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash        string    `gorm:"size:255" json:"password_hash"`
	Role                string    `gorm:"size:16;not null" json:"role"`
	OnboardingCompleted bool      `gorm:"not null;default:false" json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (ProfileModel) TableName() string { return string(domain.KindProfiles) }

type ClientModel struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CoachID   string         `gorm:"size:36;not null;index" json:"coach_id"`
	ProfileID *string        `gorm:"size:36" json:"profile_id"`
	Kind      string         `gorm:"size:16;not null" json:"kind"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Email     string         `gorm:"size:255" json:"email"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (ClientModel) TableName() string { return string(domain.KindClients) }

// modelFactories creates an empty model for each kind.
var modelFactories = map[domain.EntityKind]func() any{
	domain.KindPrograms:   func() any { return &ProgramModel{} },
	domain.KindMesocycles: func() any { return &MesocycleModel{} },
	domain.KindDays:       func() any { return &DayModel{} },
	domain.KindBlocks:     func() any { return &BlockModel{} },
	domain.KindMealPlans:  func() any { return &MealPlanModel{} },
	domain.KindMeals:      func() any { return &MealModel{} },
	domain.KindMealItems:  func() any { return &MealItemModel{} },
	domain.KindFoods:      func() any { return &FoodModel{} },
	domain.KindProfiles:   func() any { return &ProfileModel{} },
	domain.KindClients:    func() any { return &ClientModel{} },
}

// AllModels returns one empty model per kind for AutoMigrate.
func AllModels() []any {
	models := make([]any, 0, len(domain.EntityKinds))
	for _, kind := range domain.EntityKinds {
		models = append(models, modelFactories[kind]())
	}
	return models
}
