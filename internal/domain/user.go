package domain

import (
	"time"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCoach   Role = "coach"
	RoleAthlete Role = "athlete"
	RoleGym     Role = "gym"
)

// Profile is the auth-linked user record.
type Profile struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"` // Should be unique
	PasswordHash        string    `json:"password_hash,omitempty"`
	Role                Role      `json:"role"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanCoach reports whether the profile may own programs.
func (p *Profile) CanCoach() bool {
	return p.Role == RoleAdmin || p.Role == RoleCoach
}

// ClientKind distinguishes individual athletes from gyms.
type ClientKind string

const (
	ClientAthlete ClientKind = "athlete"
	ClientGym     ClientKind = "gym"
)

// Client is a coached athlete or gym. Details holds body stats, goals,
// equipment and benchmarks as a free-form bag.
type Client struct {
	ID        string         `json:"id"`
	CoachID   string         `json:"coach_id"`
	ProfileID *string        `json:"profile_id,omitempty"`
	Kind      ClientKind     `json:"kind"`
	Name      string         `json:"name"`
	Email     string         `json:"email,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
