package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"medform/internal/model"
)

const RoleAdmin = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAdminDisabled      = errors.New("admin access is not configured")
)

// AuthService issues and checks admin tokens
type AuthService struct {
	passwordHash []byte
	jwtSecret    []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

// NewAuthService creates a new auth service. An empty hash or secret
// disables admin login.
func NewAuthService(passwordHash, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &AuthService{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
		now:          time.Now,
	}
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login checks the admin password and returns a signed token
func (s *AuthService) Login(password string) (*model.LoginResponse, error) {
	if len(s.passwordHash) == 0 || len(s.jwtSecret) == 0 {
		return nil, ErrAdminDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(s.tokenTTL)
	claims := &model.AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:     tokenString,
		ExpiresAt: expires.Unix(),
	}, nil
}

// ValidateAdminToken validates an admin JWT and returns its claims
func (s *AuthService) ValidateAdminToken(tokenString string) (*model.AdminClaims, error) {
	if len(s.jwtSecret) == 0 {
		return nil, ErrAdminDisabled
	}

	token, err := jwt.ParseWithClaims(tokenString, &model.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.AdminClaims)
	if !ok || !token.Valid || claims.Role != RoleAdmin {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
