package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

var _ domain.UserService = (*UserService)(nil)

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(user)
	if err := validateUser(user); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

// validateUser checks the user and lower-cases the email, so uniqueness is
// case-insensitive on every store.
func validateUser(u *models.User) error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := validate.Var(u.Email, "required,email"); err != nil {
		return fmt.Errorf("%w: email %q is invalid", domain.ErrValidation, u.Email)
	}
	return nil
}
