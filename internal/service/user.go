package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/craftchain/marketplace-service/internal/config"
	"github.com/craftchain/marketplace-service/internal/entities"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u entities.User) error
	GetUserByEmail(ctx context.Context, email string) (entities.User, error)
	GetUserByID(ctx context.Context, id string) (entities.User, error)
}

type userService struct {
	logger *slog.Logger
	repo   UserRepo
	cfg    config.Auth
}

func NewUserService(logger *slog.Logger, repo UserRepo, cfg config.Auth) *userService {
	return &userService{
		logger: logger.With(slog.String("service", "user")),
		repo:   repo,
		cfg:    cfg,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Seller    bool
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (entities.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return entities.User{}, "", err
	}

	user := entities.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Seller:       in.Seller,
		CreatedAt:    time.Now(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return entities.User{}, "", err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return entities.User{}, "", err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (entities.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, entities.ErrUserNotFound) {
		return entities.User{}, "", entities.ErrInvalidCredentials
	}
	if err != nil {
		return entities.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return entities.User{}, "", entities.ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return entities.User{}, "", err
	}
	return user, token, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (entities.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *userService) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
