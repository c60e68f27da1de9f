package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/luminedu/assess-engine/internal/config"
)

// Common auth errors.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionAlreadyActive = errors.New("another login is already active for this participant")
)

// TokenType distinguishes participant vs grader tokens.
type TokenType string

const (
	TokenTypeParticipant TokenType = "participant"
	TokenTypeGrader      TokenType = "grader"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    int       `json:"user_id"`
}

// AuthService handles authentication, JWT, and login-session management.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb}
}

// HashAccessCode hashes an access code with the configured bcrypt cost.
func (s *AuthService) HashAccessCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckAccessCode compares a plaintext access code against a bcrypt hash.
func (s *AuthService) CheckAccessCode(hash, code string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateParticipantToken creates a JWT for a participant and registers the
// login in Redis. A second login while one is active is rejected.
func (s *AuthService) GenerateParticipantToken(ctx context.Context, participantID int) (string, error) {
	authKey := config.CacheKey.ParticipantAuthKey(participantID)

	existing, err := s.rdb.Get(ctx, authKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("check login: %w", err)
	}
	if existing != "" {
		return "", ErrSessionAlreadyActive
	}

	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(participantID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: TokenTypeParticipant,
		UserID:    participantID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.rdb.Set(ctx, authKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store login: %w", err)
	}

	return signed, nil
}

// GenerateGraderToken creates a JWT for a grader.
func (s *AuthService) GenerateGraderToken(graderID int) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(graderID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: TokenTypeGrader,
		UserID:    graderID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidateParticipantLogin checks that the token's JTI matches the active
// login recorded in Redis.
func (s *AuthService) ValidateParticipantLogin(ctx context.Context, participantID int, jti string) error {
	authKey := config.CacheKey.ParticipantAuthKey(participantID)
	stored, err := s.rdb.Get(ctx, authKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errors.New("no active login")
		}
		return fmt.Errorf("check login: %w", err)
	}
	if stored != jti {
		return errors.New("login invalidated")
	}
	return nil
}

// ResetParticipantLogin removes a participant's login from Redis, allowing a
// new login.
func (s *AuthService) ResetParticipantLogin(ctx context.Context, participantID int) error {
	authKey := config.CacheKey.ParticipantAuthKey(participantID)
	return s.rdb.Del(ctx, authKey).Err()
}
