package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/dto"
	"github.com/princinho/toursbackend/logger"
	"github.com/princinho/toursbackend/mailer"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/repositories"
	"github.com/princinho/toursbackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	msgIncorrectCredentials = "Incorrect email or password"
	msgNotLoggedIn          = "You are not logged in! Please log in to get access."
	msgInvalidToken         = "Invalid token. Please log in again!"
	msgUserGone             = "The user belonging to this token does no longer exist."
	msgPasswordChanged      = "User recently changed password! Please log in again."
)

type AuthService struct {
	users  repositories.UserRepository
	tokens *utils.TokenIssuer
	mailer mailer.Mailer
	now    func() time.Time
}

func NewAuthService(users repositories.UserRepository, tokens *utils.TokenIssuer, m mailer.Mailer) *AuthService {
	return &AuthService{users: users, tokens: tokens, mailer: m, now: time.Now}
}

// WithClock swaps the time source, for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Signup always creates a plain user. Roles are granted by an admin.
func (s *AuthService) Signup(ctx context.Context, in dto.SignupDTO) (*models.User, string, error) {
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, "", apperrors.Unexpected(err)
	}

	photo := strings.TrimSpace(in.Photo)
	if photo == "" {
		photo = models.DefaultPhoto
	}

	user := &models.User{
		ID:           bson.NewObjectID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		Photo:        photo,
		Role:         models.RoleUser,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	logger.FromContext(ctx).Info("user signed up", "user_id", user.ID.Hex())
	return s.issue(user)
}

// Login answers unknown emails and wrong passwords with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", apperrors.BadRequest("Please provide email and password!")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", apperrors.Unauthorized(msgIncorrectCredentials)
		}
		return nil, "", err
	}
	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, "", apperrors.Unauthorized(msgIncorrectCredentials)
	}

	return s.issue(user)
}

// Authenticate resolves a presented token to its still valid user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized(msgNotLoggedIn)
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.Normalize(err)
	}

	id, err := bson.ObjectIDFromHex(claims.ID)
	if err != nil {
		return nil, apperrors.Unauthorized(msgInvalidToken).WithError(err)
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgUserGone)
		}
		return nil, err
	}

	if user.ChangedPasswordSince(claims.PasswordStamp) {
		return nil, apperrors.Unauthorized(msgPasswordChanged)
	}
	return user, nil
}

// ForgotPassword mails a reset link built by resetURL from the plain secret.
// A failed delivery clears the stored secret again.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, resetURL func(secret string) string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("There is no user with that email address.")
		}
		return err
	}

	secret, err := user.CreatePasswordResetToken(s.now())
	if err != nil {
		return apperrors.Unexpected(err)
	}
	hashed := user.PasswordResetToken
	if err := s.users.SetPasswordReset(ctx, user.ID, hashed, *user.PasswordResetExpires); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("There is no user with that email address.")
		}
		return err
	}

	subject, body := mailer.PasswordReset(resetURL(secret))
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		if clearErr := s.users.ClearPasswordReset(ctx, user.ID, hashed); clearErr != nil {
			logger.FromContext(ctx).Error("could not clear reset token", "user_id", user.ID.Hex(), "error", clearErr)
		}
		return apperrors.Internal("There was an error sending the email. Try again later!", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, secret string, in dto.ResetPasswordDTO) (*models.User, string, error) {
	now := s.now()
	user, err := s.users.FindByResetToken(ctx, models.HashResetToken(secret), now)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", apperrors.BadRequest("Token is invalid or has expired")
		}
		return nil, "", err
	}

	if err := s.changePassword(ctx, user, in.Password, now); err != nil {
		return nil, "", err
	}
	return s.issue(user)
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID bson.ObjectID, in dto.UpdatePasswordDTO) (*models.User, string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", apperrors.Unauthorized(msgUserGone)
		}
		return nil, "", err
	}

	if err := utils.CheckPassword(user.PasswordHash, in.PasswordCurrent); err != nil {
		return nil, "", apperrors.Unauthorized("Your current password is wrong.")
	}

	if err := s.changePassword(ctx, user, in.Password, s.now()); err != nil {
		return nil, "", err
	}
	return s.issue(user)
}

func (s *AuthService) changePassword(ctx context.Context, user *models.User, password string, now time.Time) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return apperrors.Unexpected(err)
	}
	user.SetPassword(hash, now)
	if err := s.users.SetPassword(ctx, user.ID, user.PasswordHash, *user.PasswordChangedAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.Unauthorized(msgUserGone)
		}
		return err
	}
	return nil
}

func (s *AuthService) issue(user *models.User) (*models.User, string, error) {
	token, err := s.tokens.Sign(user.ID.Hex(), user.PasswordStamp())
	if err != nil {
		return nil, "", apperrors.Unexpected(err)
	}
	return user, token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
