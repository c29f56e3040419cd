package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/repositories"
	"github.com/Dosada05/bracket-manager/utils"
)

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	CreateUser(ctx context.Context, account models.Account, input CreateUserInput) (*models.User, error)
	// EnsureAdmin creates the bootstrap administrator unless the email is taken.
	EnsureAdmin(ctx context.Context, email, password string) error
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateUserInput struct {
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

const minPasswordLength = 8

type authService struct {
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

func NewAuthService(userRepo repositories.UserRepository, logger *slog.Logger) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{userRepo: userRepo, logger: logger}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, ErrAuthInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) CreateUser(ctx context.Context, account models.Account, input CreateUserInput) (*models.User, error) {
	if !account.HasPermission(models.PermAdminister) {
		return nil, ErrForbiddenOperation
	}
	user, err := s.createUser(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created", slog.Int("user_id", user.ID), slog.String("role", string(user.Role)), slog.Int("created_by", account.UserID))
	return user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}
	user, err := s.createUser(ctx, CreateUserInput{Email: email, Name: "admin", Password: password, Role: models.RoleAdmin})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	s.logger.InfoContext(ctx, "admin user created", slog.Int("user_id", user.ID))
	return nil
}

func (s *authService) createUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	errs := ValidationErrors{}
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if !utils.IsValidEmail(input.Email) {
		errs["email"] = "A valid email address is required."
	}
	if len(input.Password) < minPasswordLength {
		errs["password"] = fmt.Sprintf("Password must be at least %d characters long.", minPasswordLength)
	}
	if input.Role == "" {
		input.Role = models.RoleViewer
	}
	if !input.Role.IsValid() {
		errs["role"] = "Unknown role."
	}
	if input.Name == "" {
		input.Name = input.Email
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	user := &models.User{Email: input.Email, Name: input.Name, PasswordHash: hash, Role: input.Role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrAuthEmailTaken
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}
