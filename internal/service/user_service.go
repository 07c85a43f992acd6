package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Georgemuchir/thrift-ease/internal/auth"
	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Avatar    string
}

type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type UserService struct {
	repo   repository.UserRepository
	stats  repository.StatsRepository
	hasher auth.PasswordHasher
	tokens *auth.TokenManager
}

func NewUserService(repo repository.UserRepository, stats repository.StatsRepository, hasher auth.PasswordHasher, tokens *auth.TokenManager) *UserService {
	return &UserService{
		repo:   repo,
		stats:  stats,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *UserService) Register(ctx context.Context, input *RegisterInput) (*domain.User, error) {
	if input.FirstName == "" || input.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Phone:        input.Phone,
		Avatar:       input.Avatar,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Same error for unknown email and bad password.
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if errTouch := s.repo.TouchLastLogin(ctx, user.ID); errTouch != nil {
		log.Printf("touch last login error for user %d: %v", user.ID, errTouch)
	}

	return s.newSession(user)
}

func (s *UserService) Refresh(ctx context.Context, userID int64) (*Session, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return s.newSession(user)
}

func (s *UserService) newSession(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context, skip, limit int) ([]*domain.User, error) {
	skip, limit = clampPage(skip, limit)
	return s.repo.List(ctx, skip, limit)
}

func (s *UserService) MakeAdmin(ctx context.Context, userID int64) error {
	return s.repo.SetRole(ctx, userID, domain.RoleAdmin)
}

func (s *UserService) DeactivateUser(ctx context.Context, userID int64) error {
	return s.repo.Deactivate(ctx, userID)
}

func (s *UserService) AdminStats(ctx context.Context) (*repository.AdminStats, error) {
	return s.stats.AdminStats(ctx)
}
