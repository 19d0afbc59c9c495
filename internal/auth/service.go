package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskboard/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is the single error for every login failure so a
	// caller cannot tell a missing username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

type Service struct {
	db  *gorm.DB
	jwt *JWTService
}

func NewService(db *gorm.DB, jwt *JWTService) *Service {
	return &Service{db: db, jwt: jwt}
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login verifies credentials and mints a new session token. Sessions are
// appended, never replaced: concurrent logins for the same user all stay valid.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Organization").
		Where("username = ?", input.Username).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	session := models.SessionToken{
		UserID:    user.ID,
		TokenHash: HashToken(token),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &user,
	}, nil
}

// Authenticate resolves a bearer token to its user. The signature must verify
// AND a live session row for exactly this token must exist; any failure
// collapses to ErrNotAuthenticated so nothing leaks about which check failed.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	var session models.SessionToken
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND token_hash = ? AND revoked_at IS NULL", userID, HashToken(token)).
		First(&session).Error; err != nil {
		return nil, ErrNotAuthenticated
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrNotAuthenticated
	}

	return &user, nil
}

// Logout revokes the presented token only; other sessions stay live.
func (s *Service) Logout(ctx context.Context, token string) error {
	now := time.Now()
	return s.db.WithContext(ctx).
		Model(&models.SessionToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", HashToken(token)).
		Update("revoked_at", &now).Error
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Organization").
		First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
