package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mapstreak/geoquiz/internal/auth/jwt"
	"github.com/mapstreak/geoquiz/internal/db/repository"
)

// UserStore is the account persistence the service needs.
// *repository.UserRepository satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, params repository.CreateUserParams) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (*repository.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*repository.User, error)
	PromoteGuest(ctx context.Context, params repository.PromoteGuestParams) (repository.User, error)
	UpdateLogin(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// Service handles authentication and account management.
type Service struct {
	users    UserStore
	tokenMgr *jwt.Manager
	redis    *redis.Client
	emailSvc *EmailService
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service. Redis and EmailSvc are
// optional; without them the password reset flow is disabled.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
	Redis       *redis.Client
	EmailSvc    *EmailService
}

// NewService creates an authentication service.
func NewService(users UserStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		redis:    opts.Redis,
		emailSvc: opts.EmailSvc,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new registered account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, *TokenPair, error) {
	if req.Email == "" {
		return nil, nil, fmt.Errorf("email required")
	}
	if req.DisplayName == "" {
		return nil, nil, fmt.Errorf("display name required")
	}

	if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, nil, fmt.Errorf("email already registered")
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	row, err := s.users.CreateUser(ctx, repository.CreateUserParams{
		Email:        &req.Email,
		PasswordHash: &passwordHash,
		DisplayName:  req.DisplayName,
		UserType:     "registered",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	user := toUser(row)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, tokens, nil
}

// Login authenticates an account with email/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, *TokenPair, error) {
	row, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil || row == nil || row.PasswordHash == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(*row.PasswordHash, req.Password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user := toUser(*row)
	if err := s.users.UpdateLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to stamp login")
	}

	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return user, tokens, nil
}

// CreateGuest creates an ephemeral guest account so play can start
// before sign-up. The device fingerprint lands in metadata for later
// duplicate detection.
func (s *Service) CreateGuest(ctx context.Context, req GuestRequest) (*User, *TokenPair, error) {
	displayName := req.DisplayName
	if displayName == "" {
		displayName = "Explorer"
	}

	metadata, _ := json.Marshal(map[string]string{
		"device_fingerprint": req.DeviceFingerprint,
	})

	row, err := s.users.CreateUser(ctx, repository.CreateUserParams{
		ID:          uuid.New(),
		DisplayName: displayName,
		UserType:    "guest",
		Metadata:    metadata,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create guest: %w", err)
	}

	user := toUser(row)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("guest created")
	return user, tokens, nil
}

// ConvertGuest upgrades a guest account to registered, keeping its id
// so existing runs and mastery survive the upgrade.
func (s *Service) ConvertGuest(ctx context.Context, req ConvertGuestRequest) (*User, *TokenPair, error) {
	if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, nil, fmt.Errorf("email already registered")
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	row, err := s.users.PromoteGuest(ctx, repository.PromoteGuestParams{
		UserID:       req.GuestID,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("guest account not found")
		}
		return nil, nil, fmt.Errorf("convert guest: %w", err)
	}

	user := toUser(row)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("guest converted to registered")
	return user, tokens, nil
}

// RefreshToken issues a new token pair from a valid refresh token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	row, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil || row == nil {
		return nil, fmt.Errorf("user not found")
	}

	return s.generateTokenPair(*toUser(*row))
}

// ValidateToken validates an access token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(tokenString)
}

// GetUser fetches an account by id.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	row, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUser(*row), nil
}

// RequestPasswordReset issues a single-use reset token and mails it.
// A missing account is not reported, to avoid email enumeration.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if s.redis == nil {
		return fmt.Errorf("redis not configured for password reset")
	}
	if s.emailSvc == nil {
		return fmt.Errorf("email service not configured")
	}

	row, err := s.users.GetByEmail(ctx, email)
	if err != nil || row == nil {
		return nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	tokenJSON, _ := json.Marshal(map[string]string{
		"user_id": row.ID.String(),
		"email":   email,
	})
	if err := s.redis.Set(ctx, resetKey(token), tokenJSON, time.Hour).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.emailSvc.SendPasswordResetEmail(ctx, email, token); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("password reset requested")
	return nil
}

// ResetPassword validates the reset token and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.redis == nil {
		return fmt.Errorf("redis not configured for password reset")
	}
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	tokenJSON, err := s.redis.Get(ctx, resetKey(token)).Result()
	if err == redis.Nil {
		return fmt.Errorf("invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("get reset token: %w", err)
	}

	var tokenData map[string]string
	if err := json.Unmarshal([]byte(tokenJSON), &tokenData); err != nil {
		return fmt.Errorf("decode token data: %w", err)
	}
	userID, err := uuid.Parse(tokenData["user_id"])
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Single use.
	if err := s.redis.Del(ctx, resetKey(token)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete reset token")
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("password reset completed")
	return nil
}

func resetKey(token string) string {
	return "password_reset:" + token
}

func toUser(row repository.User) *User {
	return &User{
		ID:          row.ID,
		Email:       row.Email,
		DisplayName: row.DisplayName,
		UserType:    row.UserType,
		IsGuest:     row.UserType == "guest",
	}
}

func (s *Service) generateTokenPair(user User) (*TokenPair, error) {
	jwtUser := jwt.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		UserType:    user.UserType,
		IsGuest:     user.IsGuest,
	}

	accessToken, err := s.tokenMgr.GenerateAccessToken(jwtUser)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokenMgr.GenerateRefreshToken(jwtUser)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}
