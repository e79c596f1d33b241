package service

import (
	"context"
	"errors"
	"strings"

	"sharekeep/internal/apperr"
	"sharekeep/internal/database"
	"sharekeep/internal/domain"
	"sharekeep/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("user with id %d not found", id)
	}
	return user, err
}

func (s *UserService) Create(ctx context.Context, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, apperr.Validation("user name must not be blank")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	if err := s.checkEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Blank fields in the patch are no-ops, same as for items.
	if name := trimmedPatchField(patch.Name); name != "" {
		user.Name = name
	}
	if email := trimmedPatchField(patch.Email); email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if err := s.checkEmailFree(ctx, email, id); err != nil {
			return nil, err
		}
		user.Email = email
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.repo.DeleteUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return apperr.NotFound("user with id %d not found", id)
	}
	if err == nil {
		s.logger.Info().Int64("user_id", id).Msg("user deleted")
	}
	return err
}

// checkEmailFree fails with Conflict when the email belongs to a user other
// than selfID. Matching is case-insensitive.
func (s *UserService) checkEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return apperr.Conflict("email %s is already registered", email)
	}
	return nil
}

// trimmedPatchField collapses an absent or blank patch field to "".
func trimmedPatchField(field *string) string {
	if field == nil {
		return ""
	}
	return strings.TrimSpace(*field)
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email must not be blank")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return apperr.Validation("malformed email: %s", email)
	}
	return nil
}
