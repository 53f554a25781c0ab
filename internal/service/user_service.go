package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/repository"
)

// UserService authenticates users and handles password-reset requests.
type UserService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	RequestPasswordReset(ctx context.Context, payload dto.PasswordResetRequest) error
	GetByID(ctx context.Context, id uint) (models.User, error)
}

type userService struct {
	users     repository.UserRepository
	outbox    repository.OutboxRepository
	fanout    FanoutService
	validator *validator.Validate
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(userRepo repository.UserRepository, outboxRepo repository.OutboxRepository, fanout FanoutService, validate *validator.Validate, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) UserService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	return &userService{
		users:     userRepo,
		outbox:    outboxRepo,
		fanout:    fanout,
		validator: validate,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("component", "user_service").Logger(),
		now:       time.Now,
	}
}

func (s *userService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"name": user.Username,
		"role": user.Role,
		"team": user.Team,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Str("username", user.Username).Str("role", user.Role).Msg("user logged in")

	return dto.LoginResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

// RequestPasswordReset notifies every admin that the named account wants a
// reset. Unknown usernames are reported to the caller as success so the
// endpoint cannot be used to probe accounts.
func (s *userService) RequestPasswordReset(ctx context.Context, payload dto.PasswordResetRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.users.GetByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Str("username", payload.Username).Msg("password reset requested for unknown account")
			return nil
		}
		return err
	}

	event := models.OutboxEvent{
		Kind:          models.EventPasswordResetRequest,
		ActorID:       user.ID,
		ActorUsername: user.Username,
		ActorRole:     user.Role,
		OwnerID:       user.ID,
		Team:          user.Team,
	}

	if err := s.outbox.Create(ctx, &event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record password reset event")
	}
	s.fanout.Dispatch(ctx, event)

	return nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
