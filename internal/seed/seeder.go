package seed

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"alcyxob/coach-dashboard/internal/service"
	"context"
	"fmt"
	"strings"
)

// Seeder writes seed data through the services so the usual validation applies.
type Seeder struct {
	auth      service.AuthService
	programs  service.ProgramService
	nutrition service.NutritionService
	logger    service.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(auth service.AuthService, programs service.ProgramService, nutrition service.NutritionService, logger service.Logger) *Seeder {
	if logger == nil {
		logger = service.NewNopLogger()
	}
	return &Seeder{auth: auth, programs: programs, nutrition: nutrition, logger: logger}
}

// FoodsResult counts what SeedFoods did.
type FoodsResult struct {
	Created int
	Updated int
}

// seedActor writes reference data that belongs to nobody.
var seedActor = service.Actor{ID: "seed", Role: domain.RoleAdmin}

// SeedFoods upserts foods keyed by name and brand, so running it twice
// updates the rows written the first time instead of duplicating them.
func (s *Seeder) SeedFoods(ctx context.Context, foods []domain.Food) (FoodsResult, error) {
	existing, err := s.nutrition.ListFoods(ctx, service.FoodQuery{})
	if err != nil {
		return FoodsResult{}, fmt.Errorf("listing foods: %w", err)
	}
	byKey := make(map[string]string, len(existing))
	for _, f := range existing {
		byKey[foodKey(f)] = f.ID
	}

	var res FoodsResult
	for _, f := range foods {
		if id, ok := byKey[foodKey(f)]; ok {
			if _, err := s.nutrition.UpdateFood(ctx, seedActor, id, f); err != nil {
				return res, fmt.Errorf("updating food %q: %w", f.Name, err)
			}
			res.Updated++
			continue
		}
		created, err := s.nutrition.CreateFood(ctx, seedActor, f)
		if err != nil {
			return res, fmt.Errorf("creating food %q: %w", f.Name, err)
		}
		byKey[foodKey(*created)] = created.ID
		res.Created++
	}
	s.logger.Info("foods seeded", "created", res.Created, "updated", res.Updated)
	return res, nil
}

func foodKey(f domain.Food) string {
	return strings.ToLower(strings.TrimSpace(f.Name)) + "|" + strings.ToLower(strings.TrimSpace(f.Brand))
}

// SeedProgram writes tree as a new program owned by ownerID.
func (s *Seeder) SeedProgram(ctx context.Context, ownerID string, tree draft.Tree) (*domain.Program, error) {
	owner, err := s.auth.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("loading owner %s: %w", ownerID, err)
	}
	actor := service.Actor{ID: owner.ID, Role: owner.Role}
	program, err := s.programs.ImportTree(ctx, actor, tree)
	if err != nil {
		return nil, fmt.Errorf("importing program: %w", err)
	}
	s.logger.Info("program seeded", "program_id", program.ID, "owner_id", owner.ID,
		"weeks", len(tree.Mesocycles), "blocks", len(tree.Blocks))
	return program, nil
}

// SeedUser creates a profile with any role.
func (s *Seeder) SeedUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.Profile, error) {
	profile, err := s.auth.CreateUser(ctx, name, email, password, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user seeded", "user_id", profile.ID, "role", profile.Role)
	return profile, nil
}
