package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/config"
	"github.com/Dan9191/cashflow-forecast/internal/forecast"
	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for any authentication failure
var ErrInvalidCredentials = errors.New("invalid credentials")

// Store is the persistence the service depends on
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListForecastUsers(ctx context.Context) ([]models.User, error)
	ListAccounts(ctx context.Context, userID int64) ([]models.Account, error)
	ListClearedExpenses(ctx context.Context, userID int64, from, to time.Time) ([]models.Transaction, error)
	GetForecastSettings(ctx context.Context, userID int64) (models.ForecastSettings, error)
	SaveSnapshot(ctx context.Context, snapshot *models.ForecastSnapshot) error
	LatestSnapshot(ctx context.Context, userID int64) (*models.ForecastSnapshot, error)
	CreateRule(ctx context.Context, rule *models.RecurringRule) error
	ListRules(ctx context.Context, userID int64) ([]models.RecurringRule, error)
	ListActiveRules(ctx context.Context, userID int64) ([]models.RecurringRule, error)
	ListAllActiveRules(ctx context.Context) ([]models.RecurringRule, error)
	UpdateRuleSchedule(ctx context.Context, id uuid.UUID, generatedAt time.Time, next *time.Time, active bool) error
}

// Notifier delivers forecast warnings to a user
type Notifier interface {
	SendForecastWarnings(to, username string, warnings []forecast.Warning) error
}

// Service handles business logic
type Service struct {
	repo     Store
	log      *logrus.Logger
	config   *config.Config
	engine   *forecast.Engine
	notifier Notifier
	now      func() time.Time
}

// NewService initializes a new service. notifier may be nil.
func NewService(repo Store, log *logrus.Logger, cfg *config.Config, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		config:   cfg,
		engine:   forecast.NewEngine(log),
		notifier: notifier,
		now:      time.Now,
	}
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("username, email and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}
