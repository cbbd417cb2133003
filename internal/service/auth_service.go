package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrInvalidRole          = errors.New("role cannot be self-assigned")
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID    string      `json:"uid"`
	Role      domain.Role `json:"role"`
	Onboarded bool        `json:"onboarded"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.Profile, error)
	Login(ctx context.Context, email, password string) (token string, profile *domain.Profile, err error)
	// CreateUser registers a profile with any role, including admin. Used by seeding.
	CreateUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.Profile, error)
	CompleteOnboarding(ctx context.Context, userID string) (token string, profile *domain.Profile, err error)
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	ParseToken(token string) (*Claims, error)
	GetJWTSecret() string
}

// authService implements the AuthService interface.
type authService struct {
	gw            repository.Gateway
	jwtSecret     string
	jwtExpiration time.Duration
	clock         Clock
}

// NewAuthService creates a new instance of authService.
func NewAuthService(gw repository.Gateway, jwtSecret string, jwtExpiration time.Duration, clock Clock) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &authService{
		gw:            gw,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		clock:         clock,
	}
}

// Register handles public sign-up. Admin accounts cannot be self-registered.
func (s *authService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.Profile, error) {
	if role == domain.RoleAdmin {
		return nil, ErrInvalidRole
	}
	return s.CreateUser(ctx, name, email, password, role)
}

func (s *authService) CreateUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.Profile, error) {
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" || role == "" {
		return nil, validationError("name, email, password, and role cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationError("invalid email address")
	}
	switch role {
	case domain.RoleAdmin, domain.RoleCoach, domain.RoleAthlete, domain.RoleGym:
	default:
		return nil, validationError("unknown role %q", role)
	}
	if len(password) < 8 {
		return nil, validationError("password must be at least 8 characters")
	}

	// Check if user already exists
	if _, err := s.findByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	profile, err := upsertEntity[domain.Profile](ctx, s.gw, domain.KindProfiles, nil, domain.Profile{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		// Admins manage the system; everyone else goes through onboarding first.
		OnboardingCompleted: role == domain.RoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	// Remove password hash before returning
	profile.PasswordHash = ""
	return profile, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.Profile, error) {
	if email == "" || password == "" {
		return "", nil, validationError("email and password cannot be empty")
	}

	profile, err := s.findByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(profile)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	profile.PasswordHash = ""
	return token, profile, nil
}

// CompleteOnboarding sets the onboarding flag and issues a token carrying it.
func (s *authService) CompleteOnboarding(ctx context.Context, userID string) (string, *domain.Profile, error) {
	if _, err := getRow(ctx, s.gw, domain.KindProfiles, userID, ErrUserNotFound); err != nil {
		return "", nil, err
	}
	profile, err := patchEntity[domain.Profile](ctx, s.gw, domain.KindProfiles, userID, domain.Fields{"onboarding_completed": true})
	if err != nil {
		return "", nil, err
	}
	token, err := s.generateJWT(profile)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	profile.PasswordHash = ""
	return token, profile, nil
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := getEntity[domain.Profile](ctx, s.gw, domain.KindProfiles, userID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	profile.PasswordHash = ""
	return profile, nil
}

func (s *authService) findByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	profiles, err := listEntities[domain.Profile](ctx, s.gw, domain.KindProfiles, domain.Filter{"email": email})
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, ErrUserNotFound
	}
	return &profiles[0], nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// --- JWT Helper ---

// generateJWT creates a new JWT token for the given profile.
func (s *authService) generateJWT(profile *domain.Profile) (string, error) {
	now := s.clock.Now()
	claims := &Claims{
		UserID:    profile.ID,
		Role:      profile.Role,
		Onboarded: profile.OnboardingCompleted,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "coach-dashboard",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates a token and returns its claims.
func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
