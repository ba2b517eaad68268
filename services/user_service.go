package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/dto"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const msgNoUser = "No user found with that ID"

type UserService struct {
	users repositories.UserRepository
	query *apifeatures.Builder
}

func NewUserService(users repositories.UserRepository, query *apifeatures.Builder) *UserService {
	return &UserService{users: users, query: query}
}

func (s *UserService) List(ctx context.Context, params url.Values) ([]models.User, int64, error) {
	spec := s.query.Build(params)
	users, err := s.users.List(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.Count(ctx, spec.Filter)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, msgNoUser)
	}
	return user, nil
}

// UpdateMe changes profile data only. Passwords go through UpdatePassword.
func (s *UserService) UpdateMe(ctx context.Context, id bson.ObjectID, in dto.UpdateMeDTO) (*models.User, error) {
	if in.HasPassword() {
		return nil, apperrors.BadRequest("This route is not for password updates. Please use /updateMyPassword.")
	}

	set := bson.M{}
	if in.Name != nil {
		set["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		set["email"] = normalizeEmail(*in.Email)
	}
	if len(set) == 0 {
		return s.Get(ctx, id)
	}

	user, err := s.users.UpdateByID(ctx, id, set)
	if err != nil {
		return nil, notFound(err, msgNoUser)
	}
	return user, nil
}

// Deactivate soft deletes a user. Inactive users can no longer log in.
func (s *UserService) Deactivate(ctx context.Context, id bson.ObjectID) error {
	if _, err := s.users.UpdateByID(ctx, id, bson.M{"active": false}); err != nil {
		return notFound(err, msgNoUser)
	}
	return nil
}

func (s *UserService) Update(ctx context.Context, id bson.ObjectID, in dto.UpdateUserDTO) (*models.User, error) {
	set := bson.M{}
	if in.Name != nil {
		set["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		set["email"] = normalizeEmail(*in.Email)
	}
	if in.Role != nil {
		role := models.Role(*in.Role)
		if !role.Valid() {
			return nil, apperrors.Validation("Invalid input data. role is either: user, guide, lead-guide, admin")
		}
		set["role"] = role
	}
	if in.Photo != nil {
		set["photo"] = strings.TrimSpace(*in.Photo)
	}
	if len(set) == 0 {
		return nil, apperrors.BadRequest("No updates provided")
	}

	user, err := s.users.UpdateByID(ctx, id, set)
	if err != nil {
		return nil, notFound(err, msgNoUser)
	}
	return user, nil
}

// notFound maps a missing document to a NotFound error with msg and leaves
// other errors alone.
func notFound(err error, msg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound(msg)
	}
	return err
}
