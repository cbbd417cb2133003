package api

import (
	"alcyxob/coach-dashboard/internal/app"
	"alcyxob/coach-dashboard/internal/config"
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"alcyxob/coach-dashboard/internal/repository/memory"
	"alcyxob/coach-dashboard/internal/service"
	"alcyxob/coach-dashboard/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type testServer struct {
	router   *gin.Engine
	services app.Services
	gw       *memory.Gateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		JWT:    config.JWTConfig{Secret: "test-secret", Expiration: time.Hour},
		Editor: config.EditorConfig{SessionTTL: time.Hour, MaxSessions: 16},
		Export: config.ExportConfig{Prefix: "exports", URLExpiry: time.Minute},
	}
	gw := memory.NewGateway()
	services := app.NewServices(cfg, gw, storage.NewMemoryStorage("http://files.test"), service.NewNopLogger())
	router := gin.New()
	SetupRoutes(router, services)
	return &testServer{router: router, services: services, gw: gw}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// expect fails the test unless the response has the wanted status.
func expect(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func (s *testServer) login(t *testing.T, email, password string) LoginResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: password})
	expect(t, rec, http.StatusOK)
	return decode[LoginResponse](t, rec)
}

// register creates an account through the API and returns a token issued
// after onboarding.
func (s *testServer) register(t *testing.T, email string, role domain.Role) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: "Test " + string(role), Email: email, Password: "password123", Role: role,
	})
	expect(t, rec, http.StatusCreated)
	token := s.login(t, email, "password123").Token

	rec = s.do(t, http.MethodPost, "/api/v1/auth/onboarding/complete", token, nil)
	expect(t, rec, http.StatusOK)
	return decode[LoginResponse](t, rec).Token
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	expect(t, s.do(t, http.MethodGet, "/api/v1/programs", "", nil), http.StatusUnauthorized)
	expect(t, s.do(t, http.MethodGet, "/api/v1/programs", "not-a-token", nil), http.StatusUnauthorized)
	expect(t, s.do(t, http.MethodGet, "/ping", "", nil), http.StatusOK)
}

func TestRegisterRejectsAdminAndDuplicates(t *testing.T) {
	s := newTestServer(t)

	req := RegisterRequest{Name: "Root", Email: "root@example.com", Password: "password123", Role: domain.RoleAdmin}
	expect(t, s.do(t, http.MethodPost, "/api/v1/auth/register", "", req), http.StatusBadRequest)

	req.Role = domain.RoleCoach
	expect(t, s.do(t, http.MethodPost, "/api/v1/auth/register", "", req), http.StatusCreated)
	expect(t, s.do(t, http.MethodPost, "/api/v1/auth/register", "", req), http.StatusConflict)

	req.Password = "short"
	req.Email = "other@example.com"
	expect(t, s.do(t, http.MethodPost, "/api/v1/auth/register", "", req), http.StatusBadRequest)
}

func TestCoachRoutesRequireOnboarding(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: "Coach", Email: "coach@example.com", Password: "password123", Role: domain.RoleCoach,
	})
	expect(t, rec, http.StatusCreated)

	first := s.login(t, "coach@example.com", "password123")
	if first.User.OnboardingCompleted {
		t.Fatal("new account should not be onboarded")
	}
	expect(t, s.do(t, http.MethodGet, "/api/v1/programs", first.Token, nil), http.StatusForbidden)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/onboarding/complete", first.Token, nil)
	expect(t, rec, http.StatusOK)
	onboarded := decode[LoginResponse](t, rec)
	if !onboarded.User.OnboardingCompleted {
		t.Fatal("expected onboarding to be completed")
	}
	expect(t, s.do(t, http.MethodGet, "/api/v1/programs", onboarded.Token, nil), http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/me", onboarded.Token, nil)
	expect(t, rec, http.StatusOK)
	if me := decode[UserResponse](t, rec); me.Email != "coach@example.com" || me.Role != domain.RoleCoach {
		t.Errorf("unexpected /me response: %+v", me)
	}
}

func TestAthleteCannotManagePrograms(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "athlete@example.com", domain.RoleAthlete)

	expect(t, s.do(t, http.MethodGet, "/api/v1/programs", token, nil), http.StatusForbidden)
	expect(t, s.do(t, http.MethodGet, "/api/v1/foods", token, nil), http.StatusOK)
	expect(t, s.do(t, http.MethodGet, "/api/v1/me/coaching", token, nil), http.StatusOK)
}

// createProgram creates a one-week program and returns its id and week id.
func createProgram(t *testing.T, s *testServer, token string) (string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/programs", token, CreateProgramRequest{Name: "Strength block", Weeks: 1})
	expect(t, rec, http.StatusCreated)
	program := decode[ProgramResponse](t, rec)

	rec = s.do(t, http.MethodGet, "/api/v1/programs/"+program.ID, token, nil)
	expect(t, rec, http.StatusOK)
	tree := decode[ProgramTreeResponse](t, rec)
	if len(tree.Mesocycles) != 1 {
		t.Fatalf("expected 1 week, got %d", len(tree.Mesocycles))
	}
	return program.ID, tree.Mesocycles[0].ID
}

func openSession(t *testing.T, s *testServer, token, programID string) SessionResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/programs/"+programID+"/sessions", token, nil)
	expect(t, rec, http.StatusCreated)
	return decode[SessionResponse](t, rec)
}

func TestEditorSessionEditAndSave(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "coach@example.com", domain.RoleCoach)
	programID, weekID := createProgram(t, s, token)

	sess := openSession(t, s, token, programID)
	if sess.SelectedWeek != 1 || len(sess.Days) != domain.DaysPerWeek {
		t.Fatalf("unexpected session: week %d, %d days", sess.SelectedWeek, len(sess.Days))
	}
	for _, d := range sess.Days {
		if !d.Placeholder {
			t.Fatalf("day %d should be a placeholder", d.Day.DayNumber)
		}
	}
	base := "/api/v1/sessions/" + sess.ID

	// Rest day toggled and written at once
	rec := s.do(t, http.MethodPost, base+"/days/toggle-rest?save=true", token, draft.Slot(weekID, 3))
	expect(t, rec, http.StatusOK)
	rest := decode[draft.DayView](t, rec)
	if !rest.Persisted || rest.Dirty || !rest.Day.IsRestDay {
		t.Fatalf("expected a saved rest day, got %+v", rest)
	}

	rec = s.do(t, http.MethodPost, base+"/days/blocks", token, gin.H{
		"mesocycle_id": weekID,
		"day_number":   1,
		"block": gin.H{
			"type":   domain.BlockStrengthLinear,
			"name":   "Back squat",
			"config": gin.H{"exercise": "Back squat", "sets": 5, "reps": "5"},
		},
	})
	expect(t, rec, http.StatusCreated)
	block := decode[draft.BlockView](t, rec)
	if block.Persisted || !block.Dirty {
		t.Fatalf("new block should be dirty and unsaved: %+v", block)
	}

	rec = s.do(t, http.MethodPatch, base+"/blocks/"+block.Block.ID, token, gin.H{"scheme": gin.H{"reps": "3"}})
	expect(t, rec, http.StatusOK)
	patched := decode[draft.BlockView](t, rec)
	cfg, ok := patched.Block.Config.(*domain.StrengthLinearConfig)
	if !ok || cfg.Reps != "3" || cfg.Sets != 5 {
		t.Fatalf("unexpected config after patch: %#v", patched.Block.Config)
	}

	expect(t, s.do(t, http.MethodPatch, base+"/blocks/missing", token, gin.H{"name": "x"}), http.StatusNotFound)
	expect(t, s.do(t, http.MethodPatch, base+"/blocks/"+block.Block.ID, token, gin.H{
		"config": gin.H{"sets": "five"},
	}), http.StatusBadRequest)

	rec = s.do(t, http.MethodPost, base+"/save", token, nil)
	expect(t, rec, http.StatusOK)
	report := decode[service.SaveReport](t, rec)
	if report.DaysSaved != 1 || report.BlocksSaved != 1 || len(report.Failures) != 0 {
		t.Fatalf("unexpected save report: %+v", report)
	}

	rec = s.do(t, http.MethodGet, base, token, nil)
	expect(t, rec, http.StatusOK)
	if decode[SessionResponse](t, rec).Dirty {
		t.Error("session should be clean after save")
	}

	rec = s.do(t, http.MethodGet, "/api/v1/programs/"+programID, token, nil)
	expect(t, rec, http.StatusOK)
	tree := decode[ProgramTreeResponse](t, rec)
	if len(tree.Days) != 2 || len(tree.Blocks) != 1 {
		t.Fatalf("expected 2 days and 1 block persisted, got %d and %d", len(tree.Days), len(tree.Blocks))
	}
}

func TestEditorSessionIsOwnerBound(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "coach@example.com", domain.RoleCoach)
	rival := s.register(t, "rival@example.com", domain.RoleCoach)
	programID, _ := createProgram(t, s, owner)
	sess := openSession(t, s, owner, programID)

	expect(t, s.do(t, http.MethodGet, "/api/v1/sessions/"+sess.ID, rival, nil), http.StatusNotFound)
	expect(t, s.do(t, http.MethodPost, "/api/v1/programs/"+programID+"/sessions", rival, nil), http.StatusForbidden)
}

func TestDeleteProgramClosesSessions(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "coach@example.com", domain.RoleCoach)
	programID, _ := createProgram(t, s, token)
	sess := openSession(t, s, token, programID)

	expect(t, s.do(t, http.MethodDelete, "/api/v1/programs/"+programID, token, nil), http.StatusNoContent)
	expect(t, s.do(t, http.MethodGet, "/api/v1/sessions/"+sess.ID, token, nil), http.StatusNotFound)
	expect(t, s.do(t, http.MethodGet, "/api/v1/programs/"+programID, token, nil), http.StatusNotFound)
}

func TestExportProgramReturnsDownloadURL(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "coach@example.com", domain.RoleCoach)
	programID, _ := createProgram(t, s, token)

	rec := s.do(t, http.MethodPost, "/api/v1/programs/"+programID+"/export", token, nil)
	expect(t, rec, http.StatusOK)
	export := decode[ExportResponse](t, rec)
	if export.ObjectKey == "" || export.DownloadURL == "" || export.ExpiresAt.IsZero() {
		t.Fatalf("incomplete export response: %+v", export)
	}
}

func TestMealSessionEditAndSave(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "coach@example.com", domain.RoleCoach)

	rec := s.do(t, http.MethodPost, "/api/v1/foods", token, FoodRequest{
		Name: "Oats", Calories: 380, Protein: 13, Carbs: 67, Fats: 7, ServingSize: 100,
	})
	expect(t, rec, http.StatusCreated)
	food := decode[domain.Food](t, rec)
	if food.Unit != "g" {
		t.Errorf("expected default unit g, got %q", food.Unit)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/foods?q=OAT", token, nil)
	expect(t, rec, http.StatusOK)
	if foods := decode[[]domain.Food](t, rec); len(foods) != 1 {
		t.Fatalf("expected 1 food matching search, got %d", len(foods))
	}

	rec = s.do(t, http.MethodPost, "/api/v1/meal-plans", token, CreateMealPlanRequest{Name: "Cut"})
	expect(t, rec, http.StatusCreated)
	plan := decode[domain.MealPlan](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/meal-plans/"+plan.ID+"/sessions", token, nil)
	expect(t, rec, http.StatusCreated)
	sess := decode[MealSessionResponse](t, rec)
	base := "/api/v1/meal-sessions/" + sess.ID

	rec = s.do(t, http.MethodPost, base+"/meals", token, AddMealRequest{Name: "Breakfast", Time: "07:30"})
	expect(t, rec, http.StatusCreated)
	meal := decode[draft.MealView](t, rec)

	rec = s.do(t, http.MethodPost, base+"/meals/"+meal.Meal.ID+"/items", token, AddMealItemRequest{FoodID: food.ID, Quantity: 50})
	expect(t, rec, http.StatusCreated)
	if got := decode[draft.MealView](t, rec).Totals.Calories; got != 190 {
		t.Errorf("expected 190 kcal for 50g oats, got %v", got)
	}

	expect(t, s.do(t, http.MethodDelete, base+"/meals/"+meal.Meal.ID+"/items/4", token, nil), http.StatusUnprocessableEntity)
	expect(t, s.do(t, http.MethodDelete, base+"/meals/missing/items/0", token, nil), http.StatusNotFound)

	rec = s.do(t, http.MethodPost, base+"/save", token, nil)
	expect(t, rec, http.StatusOK)
	if report := decode[service.MealSaveReport](t, rec); report.MealsSaved != 1 {
		t.Fatalf("unexpected save report: %+v", report)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/meal-plans/"+plan.ID, token, nil)
	expect(t, rec, http.StatusOK)
	loaded := decode[MealPlanResponse](t, rec)
	if len(loaded.Meals) != 1 || loaded.Totals.Calories != 190 {
		t.Fatalf("unexpected persisted plan: %d meals, %v kcal", len(loaded.Meals), loaded.Totals.Calories)
	}
}

func TestClientsCreateAndBulkDelete(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "coach@example.com", domain.RoleCoach)

	rec := s.do(t, http.MethodPost, "/api/v1/clients", token, CreateClientRequest{
		Kind: domain.ClientAthlete, Name: "Sam", Details: map[string]any{"goal": "strength"},
	})
	expect(t, rec, http.StatusCreated)
	client := decode[ClientResponse](t, rec)

	rec = s.do(t, http.MethodPatch, "/api/v1/clients/"+client.ID, token, gin.H{"details": gin.H{"goal": nil, "squat": 140}})
	expect(t, rec, http.StatusOK)
	updated := decode[ClientResponse](t, rec)
	if _, ok := updated.Details["goal"]; ok || updated.Details["squat"] != float64(140) {
		t.Errorf("unexpected details after merge: %v", updated.Details)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/clients", token, CreateClientRequest{Kind: domain.ClientGym, Name: "Iron Gym"})
	expect(t, rec, http.StatusCreated)
	gym := decode[ClientResponse](t, rec)
	s.gw.SetFault(func(op string, kind domain.EntityKind, id string) error {
		if op == "delete" && id == gym.ID {
			return errors.New("row locked")
		}
		return nil
	})

	rec = s.do(t, http.MethodPost, "/api/v1/clients/bulk-delete", token, BulkDeleteRequest{IDs: []string{client.ID, gym.ID, "missing"}})
	expect(t, rec, http.StatusOK)
	result := decode[BulkDeleteResponse[ClientResponse]](t, rec)
	if len(result.Succeeded) != 1 || len(result.Failed) != 2 {
		t.Fatalf("unexpected bulk result: %+v", result.BulkResult)
	}
	if len(result.Items) != 1 || result.Items[0].ID != gym.ID {
		t.Errorf("expected only the failed client to remain, got %+v", result.Items)
	}
	s.gw.SetFault(nil)

	expect(t, s.do(t, http.MethodPost, "/api/v1/clients/bulk-delete", token, BulkDeleteRequest{}), http.StatusBadRequest)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	coach := s.register(t, "coach@example.com", domain.RoleCoach)
	admin, err := s.services.Auth.CreateUser(context.Background(), "Admin", "admin@example.com", "adminpass1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	token := s.login(t, "admin@example.com", "adminpass1").Token

	expect(t, s.do(t, http.MethodGet, "/api/v1/admin/users", coach, nil), http.StatusForbidden)

	rec := s.do(t, http.MethodGet, "/api/v1/admin/users", token, nil)
	expect(t, rec, http.StatusOK)
	if users := decode[[]UserResponse](t, rec); len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	rec = s.do(t, http.MethodPost, "/api/v1/admin/users/bulk-delete", token, BulkDeleteRequest{IDs: []string{admin.ID}})
	expect(t, rec, http.StatusOK)
	result := decode[BulkDeleteResponse[UserResponse]](t, rec)
	if len(result.Failed) != 1 || len(result.Items) != 2 {
		t.Fatalf("admin should not delete itself: %+v, %d users left", result.BulkResult, len(result.Items))
	}

	// Admins skip onboarding
	expect(t, s.do(t, http.MethodGet, "/api/v1/programs", token, nil), http.StatusOK)
}

func TestBulkDeleteFoodsReturnsRemainingFoods(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "coach@example.com", domain.RoleCoach)

	var ids []string
	for _, name := range []string{"Oats", "Rice", "Eggs"} {
		rec := s.do(t, http.MethodPost, "/api/v1/foods", token, FoodRequest{Name: name, Calories: 100, ServingSize: 100})
		expect(t, rec, http.StatusCreated)
		ids = append(ids, decode[domain.Food](t, rec).ID)
	}
	s.gw.SetFault(func(op string, kind domain.EntityKind, id string) error {
		if op == "delete" && id == ids[1] {
			return errors.New("row locked")
		}
		return nil
	})

	rec := s.do(t, http.MethodPost, "/api/v1/foods/bulk-delete", token, BulkDeleteRequest{IDs: []string{ids[0], ids[1], ""}})
	expect(t, rec, http.StatusOK)
	result := decode[BulkDeleteResponse[domain.Food]](t, rec)
	if ok, failed := result.Counts(); ok != 1 || failed != 2 {
		t.Fatalf("counts = %d/%d, want 1/2", ok, failed)
	}
	if len(result.Items) != 2 || result.Items[0].Name != "Eggs" || result.Items[1].Name != "Rice" {
		t.Errorf("remaining foods = %+v", result.Items)
	}
}
