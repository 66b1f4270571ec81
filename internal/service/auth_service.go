package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionAlreadyActive = errors.New("another login session is already active")
)

// TokenType distinguishes student vs teacher tokens.
type TokenType string

const (
	TokenTypeStudent TokenType = "student"
	TokenTypeTeacher TokenType = "teacher"
)

// Claims extends JWT standard claims with app-specific fields. The engine
// never re-derives roles: whatever the token says is the resolved fact.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    int       `json:"user_id"`
	ClassID   int       `json:"class_id,omitempty"` // Student only
}

// AuthService handles authentication, JWT, and login session management.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateStudentToken creates a JWT for a student and registers the login
// in Redis. A student may hold one login at a time; a second device is
// rejected until the first session expires or logs out.
func (s *AuthService) GenerateStudentToken(ctx context.Context, studentID, classID int) (string, error) {
	loginKey := config.CacheKey.StudentLoginKey(studentID)

	existing, err := s.rdb.Get(ctx, loginKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("check login session: %w", err)
	}
	if existing != "" {
		return "", ErrSessionAlreadyActive
	}

	jti := uuid.New().String()
	token, err := s.signToken(Claims{
		RegisteredClaims: s.registeredClaims(jti, studentID),
		TokenType:        TokenTypeStudent,
		UserID:           studentID,
		ClassID:          classID,
	})
	if err != nil {
		return "", err
	}

	if err := s.rdb.Set(ctx, loginKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("register login session: %w", err)
	}
	return token, nil
}

// GenerateTeacherToken creates a JWT for a teacher. Teachers may be logged
// in from several devices (classroom PC and phone), so no Redis gate.
func (s *AuthService) GenerateTeacherToken(teacherID int) (string, error) {
	return s.signToken(Claims{
		RegisteredClaims: s.registeredClaims(uuid.New().String(), teacherID),
		TokenType:        TokenTypeTeacher,
		UserID:           teacherID,
	})
}

// ValidateToken parses and validates a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// CheckStudentLogin verifies the token's jti is still the registered login
// for the student. Enforces the single-device rule per request.
func (s *AuthService) CheckStudentLogin(ctx context.Context, claims *Claims) error {
	registered, err := s.rdb.Get(ctx, config.CacheKey.StudentLoginKey(claims.UserID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errors.New("login session invalidated")
		}
		return fmt.Errorf("check login session: %w", err)
	}
	if registered != claims.ID {
		return errors.New("login session superseded")
	}
	return nil
}

// InvalidateStudentLogin removes the student's registered login (logout, or
// an admin reset).
func (s *AuthService) InvalidateStudentLogin(ctx context.Context, studentID int) error {
	return s.rdb.Del(ctx, config.CacheKey.StudentLoginKey(studentID)).Err()
}

func (s *AuthService) registeredClaims(jti string, subject int) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        jti,
		Subject:   strconv.Itoa(subject),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
	}
}

func (s *AuthService) signToken(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
