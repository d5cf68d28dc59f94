package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pitlane.io/pitlane/internal/domain"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/pkg/logger"
	"pitlane.io/pitlane/internal/repository"
)

// minPasswordLength is enforced on registration.
const minPasswordLength = 8

// RegisterInput describes a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UserService manages accounts and password login.
type UserService struct {
	users      repository.UserRepo
	bcryptCost int
	now        func() time.Time
}

// NewUserService creates a new UserService. A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func NewUserService(users repository.UserRepo, bcryptCost int) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{users: users, bcryptCost: bcryptCost, now: func() time.Time { return time.Now().UTC() }}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)

	var fieldErrs []apperrors.FieldError
	if in.Name == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "name", Code: "required", Message: "is required"})
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "email", Code: "email", Message: "must be a valid address"})
	}
	if len(in.Password) < minPasswordLength {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "password", Code: "min",
			Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)})
	}
	if !in.Role.Valid() {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "role", Code: "oneof", Message: "must be user, mechanic or admin"})
	}
	if len(fieldErrs) > 0 {
		return nil, apperrors.ErrValidation("invalid user").WithFieldErrors(fieldErrs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}
	now := s.now()
	u := &domain.User{
		ID:           id.String(),
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, apperrors.Conflict(apperrors.CodeEmailExists, "an account with this email already exists").
				WithParams(map[string]interface{}{"email": u.Email})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info("User registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Authenticate checks an email/password pair. Unknown email and wrong
// password produce the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	failed := apperrors.Unauthorized(apperrors.CodeAuthFailed, "invalid email or password")

	u, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, failed
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		logger.Warn("Login failed", zap.String("user_id", u.ID))
		return nil, failed
	}
	return u, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeUserNotFound, "user", id)
	}
	return u, nil
}
