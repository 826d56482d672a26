package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/config"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/pkg/jwt"
	"campus-aid-buddy/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Auth errors
var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenRevoked      = errors.New("token revoked")
	ErrUserInactive      = errors.New("user account is inactive")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	jwtCfg           config.JWTConfig
	log              zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	jwtCfg config.JWTConfig,
	l zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtCfg:           jwtCfg,
		log:              l,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Name       string      `json:"name"`
	Role       domain.Role `json:"role"`
	Department string      `json:"department"`
	RollNumber string      `json:"roll_number"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

func (in *RegisterInput) normalize() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Department = strings.TrimSpace(in.Department)
	in.RollNumber = strings.TrimSpace(in.RollNumber)
	if in.Role == "" {
		in.Role = domain.RoleStudent
	}

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.Validationf("invalid email address")
	}
	if in.Name == "" {
		return domain.Validationf("name is required")
	}
	if !in.Role.Valid() {
		return domain.Validationf("unknown role %q", in.Role)
	}
	if in.Role != domain.RoleStudent && in.RollNumber != "" {
		return domain.Validationf("roll number is only recorded for students")
	}
	if err := password.Validate(in.Password); err != nil {
		return domain.Validationf("%s", err.Error())
	}
	return nil
}

// Register creates an account. Anyone may register a student; other roles
// require registeredBy to be an admin. Tokens are only issued for
// self-registration.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput, registeredBy *domain.Actor) (*AuthResponse, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}

	byAdmin := registeredBy != nil && registeredBy.Role == domain.RoleAdmin
	if input.Role != domain.RoleStudent && !byAdmin {
		return nil, domain.ErrPermissionDenied
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:      input.Email,
		Name:       input.Name,
		Role:       input.Role,
		Department: input.Department,
		RollNumber: input.RollNumber,
		Password:   hashedPassword,
		IsActive:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Bool("by_admin", byAdmin).Msg("user registered")

	if byAdmin {
		return &AuthResponse{User: user.ToResponse()}, nil
	}
	return s.issue(ctx, user)
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return s.issue(ctx, user)
}

// RefreshToken rotates a refresh token and issues a new pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.jwtCfg.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if storedToken.IsRevoked() {
		// a rotated token was replayed; treat the whole family as stolen
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, storedToken.UserID); err != nil {
			return nil, err
		}
		s.log.Warn().Str("user_id", storedToken.UserID).Msg("revoked refresh token reused, all sessions revoked")
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// Token rotation
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	return s.issue(ctx, user)
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken))
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Msg("all sessions revoked")
	return nil
}

// ValidateAccessToken validates an access token and returns the actor it names
func (s *AuthService) ValidateAccessToken(accessToken string) (*domain.Actor, error) {
	claims, err := jwt.ValidateAccessToken(accessToken, s.jwtCfg.Secret)
	if err != nil {
		return nil, err
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		return nil, jwt.ErrTokenInvalid
	}
	return &domain.Actor{
		ID:         claims.UserID,
		Email:      claims.Email,
		Name:       claims.Name,
		Role:       role,
		Department: claims.Department,
		RollNumber: claims.RollNumber,
	}, nil
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// CleanupExpiredTokens deletes refresh tokens past their expiry
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx)
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(jwt.Identity{
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       string(user.Role),
		Department: user.Department,
		RollNumber: user.RollNumber,
	}, s.jwtCfg.Secret, s.jwtCfg.AccessTTL())
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(user.ID, uuid.NewString(), s.jwtCfg.RefreshSecret, s.jwtCfg.RefreshTTL())
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID, refreshToken string) error {
	return s.refreshTokenRepo.Create(ctx, &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: time.Now().Add(s.jwtCfg.RefreshTTL()),
	})
}
