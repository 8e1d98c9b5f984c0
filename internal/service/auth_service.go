package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/quillford/inkpress/internal/models"
	"github.com/quillford/inkpress/internal/repository"
	"github.com/quillford/inkpress/internal/utils"
	"github.com/quillford/inkpress/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked after repeated failures")
	ErrInvalidRole        = errors.New("role must be Admin or Author")

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// LockoutConfig controls the optional login lockout. Threshold 0 disables it.
type LockoutConfig struct {
	Threshold int
	Window    time.Duration
}

type AuthService struct {
	userRepo    *repository.UserRepository
	roleRepo    *repository.RoleRepository
	redis       *redis.Client
	lockout     LockoutConfig
	jwtSecret   string
	jwtIssuer   string
	jwtAudience string
	ctx         context.Context
}

func NewAuthService(
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	redisClient *redis.Client,
	lockout LockoutConfig,
	jwtSecret, jwtIssuer, jwtAudience string,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		redis:       redisClient,
		lockout:     lockout,
		jwtSecret:   jwtSecret,
		jwtIssuer:   jwtIssuer,
		jwtAudience: jwtAudience,
		ctx:         context.Background(),
	}
}

func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	logger.Log.Debug("Processing login", zap.String("email", email))

	if s.isLockedOut(email) {
		logger.Log.Warn("Login rejected: account locked",
			zap.String("email", email),
		)
		return nil, "", ErrAccountLocked
	}

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		logger.Log.Error("Failed to get user by email",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if user == nil {
		s.recordFailure(email)
		logger.Log.Warn("Login failed: user not found",
			zap.String("email", email),
		)
		return nil, "", ErrInvalidCredentials
	}

	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if !valid {
		s.recordFailure(email)
		logger.Log.Warn("Login failed: invalid password",
			zap.String("email", email),
			zap.String("user_id", user.ID.String()),
		)
		return nil, "", ErrInvalidCredentials
	}

	s.clearFailures(email)

	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtIssuer, s.jwtAudience)
	if err != nil {
		logger.Log.Error("Failed to generate token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, "", err
	}

	logger.Log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.Strings("roles", user.RoleNames()),
	)

	return user, token, nil
}

// CreateUser provisions an account with a single role. Admin-only at the
// HTTP layer.
func (s *AuthService) CreateUser(email, password, displayName, roleName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.validateNewUser(email, password, displayName); err != nil {
		logger.Log.Warn("User creation validation failed",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	if roleName != models.RoleAdmin && roleName != models.RoleAuthor {
		return nil, ErrInvalidRole
	}

	exists, err := s.userRepo.EmailExists(email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	role, err := s.roleRepo.GetByName(roleName)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrInvalidRole
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		Roles:        []models.Role{*role},
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		logger.Log.Error("Failed to create user",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", roleName),
	)

	return user, nil
}

func (s *AuthService) GetUser(id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetUserByID(id)
}

func (s *AuthService) validateNewUser(email, password, displayName string) error {
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	if len(email) > 100 {
		return errors.New("email too long")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return errors.New("password too long")
	}
	if strings.TrimSpace(displayName) == "" {
		return errors.New("display name is required")
	}
	if len(displayName) > 100 {
		return errors.New("display name too long")
	}
	return nil
}

func lockoutKey(email string) string {
	return fmt.Sprintf("login:failed:%s", email)
}

func (s *AuthService) isLockedOut(email string) bool {
	if s.lockout.Threshold <= 0 || s.redis == nil {
		return false
	}
	count, err := s.redis.Get(s.ctx, lockoutKey(email)).Int()
	if err != nil {
		// Fail open: a Redis outage must not block logins
		return false
	}
	return count >= s.lockout.Threshold
}

func (s *AuthService) recordFailure(email string) {
	if s.lockout.Threshold <= 0 || s.redis == nil {
		return
	}
	count, err := s.redis.Incr(s.ctx, lockoutKey(email)).Result()
	if err != nil {
		logger.Log.Warn("Failed to record login failure", zap.Error(err))
		return
	}
	if count == 1 {
		s.redis.Expire(s.ctx, lockoutKey(email), s.lockout.Window)
	}
}

func (s *AuthService) clearFailures(email string) {
	if s.lockout.Threshold <= 0 || s.redis == nil {
		return
	}
	s.redis.Del(s.ctx, lockoutKey(email))
}
