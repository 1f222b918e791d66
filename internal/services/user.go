package services

import (
	"context"
	"errors"
	"strings"

	"github.com/lidercheck/apiserver/internal/store"
	"github.com/lidercheck/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// MaskedPassword is what clients echo back for an unchanged password.
const MaskedPassword = "******"

var (
	// ErrInvalidCredentials is returned when a login or recovery does not
	// match the stored user.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput is returned when a request misses a required field.
	ErrInvalidInput = errors.New("invalid input")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Get(ctx context.Context, matricula string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) error
	Update(ctx context.Context, original string, user types.User) error
	UpdatePassword(ctx context.Context, matricula, passwordHash string) error
	Delete(ctx context.Context, matricula string) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, matricula string) (types.User, error) {
	return s.repo.Get(ctx, matricula)
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

// Authenticate returns the user when password matches its stored hash.
func (s *UserService) Authenticate(ctx context.Context, matricula, password string) (types.User, error) {
	user, err := s.repo.Get(ctx, matricula)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a non-admin user. store.ErrAlreadyExists is returned when
// the matricula is taken.
func (s *UserService) Register(ctx context.Context, user types.User, password string) (types.User, error) {
	user.Matricula = strings.TrimSpace(user.Matricula)
	if user.Matricula == "" || password == "" {
		return types.User{}, ErrInvalidInput
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}
	user.PasswordHash = string(hashed)
	user.IsAdmin = false

	if err := s.repo.Create(ctx, user); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Recover sets a new password for the user whose email and name match,
// ignoring case and surrounding blanks.
func (s *UserService) Recover(ctx context.Context, matricula, email, name, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidInput
	}

	user, err := s.repo.Get(ctx, strings.TrimSpace(matricula))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if normalize(user.Email) != normalize(email) || normalize(user.Name) != normalize(name) {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.Matricula, string(hashed))
}

// Update rewrites the user keyed by original, which defaults to
// user.Matricula. An empty or masked password keeps the current one.
func (s *UserService) Update(ctx context.Context, original string, user types.User, password string) error {
	user.Matricula = strings.TrimSpace(user.Matricula)
	original = strings.TrimSpace(original)
	if original == "" {
		original = user.Matricula
	}
	if user.Matricula == "" {
		return ErrInvalidInput
	}

	user.PasswordHash = ""
	if password != "" && password != MaskedPassword {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.PasswordHash = string(hashed)
	}
	return s.repo.Update(ctx, original, user)
}

func (s *UserService) Delete(ctx context.Context, matricula string) error {
	return s.repo.Delete(ctx, matricula)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
