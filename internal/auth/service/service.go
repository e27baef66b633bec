// Package service implements credential verification and access token
// issuance.
package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"studio_production_backend/internal/auth/transport"
	identityrepo "studio_production_backend/internal/identity/repository"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/config"
	"studio_production_backend/platform/logger"
)

const accessTokenType = "access"

const msgInvalidCredentials = "invalid credentials"

// Users is the slice of the identity store the auth service reads.
type Users interface {
	GetUserByEmail(ctx context.Context, email string) (identityrepo.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (identityrepo.User, error)
}

// Service provides authentication business logic.
type Service struct {
	users Users
	cfg   config.AuthServiceConfig
	log   *logger.Logger
}

func New(users Users, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{users: users, cfg: cfg, log: log}
}

// Login verifies the credentials and issues an access token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.LoginResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return transport.LoginResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return transport.LoginResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	ttl := s.cfg.GetAccessTokenTTL()
	token, err := s.signAccessToken(user.ID, user.Role, ttl)
	if err != nil {
		return transport.LoginResponse{}, apperr.Wrap(apperr.KindInternal, "failed to sign access token", err)
	}

	s.log.Info("user logged in", "user_id", user.ID.String(), "role", user.Role)

	return transport.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(ttl.Seconds()),
		User:        toUserResponse(user),
	}, nil
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (transport.UserResponse, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return transport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (s *Service) signAccessToken(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"type": accessTokenType,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}

func toUserResponse(user identityrepo.User) transport.UserResponse {
	return transport.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}
