// Package users manages accounts, credentials and roles.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xelth-com/stockflow/internal/config"
	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

// Service handles users and sign-in
type Service struct {
	db  *database.DB
	cfg *config.Config
}

// NewService creates a user service
func NewService(db *database.DB, cfg *config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// RegisterInput is the body of a registration
type RegisterInput struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Name     string      `json:"name" validate:"required,min=2"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=ADMIN WORKER1 WORKER2 USER"`
}

// LoginInput holds credentials
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Tokens is a signed access and refresh token pair
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is returned by login and refresh
type Session struct {
	Tokens Tokens       `json:"tokens"`
	User   *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Only an ADMIN caller may choose the role;
// everyone else gets USER.
func (s *Service) Register(ctx context.Context, in RegisterInput, callerRole models.Role) (*models.User, error) {
	role := models.RoleUser
	if callerRole == models.RoleAdmin && in.Role != "" {
		if !in.Role.Valid() {
			return nil, utils.ValidationError("Invalid role")
		}
		role = in.Role
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    normalizeEmail(in.Email),
		Password: hash,
		Name:     strings.TrimSpace(in.Name),
		Role:     role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.BadRequest("EMAIL_EXISTS", "Email already in use")
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("user registered", zap.String("user", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login checks credentials and issues tokens
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	invalid := utils.NewAPIError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(in.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(in.Password, user.Password) {
		return nil, invalid
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		zap.L().Warn("failed to record last login", zap.String("user", user.ID), zap.Error(err))
	}

	return s.issue(&user)
}

// Refresh exchanges a refresh token for a new pair. The role is read again
// so role changes take effect on the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := utils.ValidateRefreshToken(refreshToken, s.cfg.JWTSecret)
	if err != nil {
		return nil, utils.ErrUnauthorized
	}
	id, _ := claims["id"].(string)

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return s.issue(&user)
}

func (s *Service) issue(user *models.User) (*Session, error) {
	access, refresh, err := utils.GenerateTokens(user, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return &Session{Tokens: Tokens{AccessToken: access, RefreshToken: refresh}, User: user}, nil
}

// List returns all users by name
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	var list []models.User
	err := s.db.WithContext(ctx).Order("name").Find(&list).Error
	return list, err
}

// SetRole changes a user's role
func (s *Service) SetRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, utils.ValidationError("Invalid role")
	}

	var user models.User
	db := s.db.WithContext(ctx)
	err := db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("user", "User not found")
	}
	if err != nil {
		return nil, err
	}
	if err := db.Model(&user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role

	zap.L().Info("user role changed", zap.String("user", id), zap.String("role", string(role)))
	return &user, nil
}
