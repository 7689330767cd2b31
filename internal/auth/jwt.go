package auth

import (
	"errors"
	"fmt"
	"time"

	"classifieds_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Identity - то, что граница аутентификации сообщает о пользователе.
// Токен уже проверен, дальше ему доверяем.
type Identity struct {
	UserID    string
	Role      models.UserRole
	IsPremium bool
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.UserRoleAdmin
}

type Claims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Premium bool   `json:"premium"`
	jwt.RegisteredClaims
}

// TokenManager подписывает и проверяет HS256-токены общим секретом
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) IssueToken(identity Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  identity.UserID,
		Role:    string(identity.Role),
		Premium: identity.IsPremium,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) ParseToken(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	role := models.UserRole(claims.Role)
	if role == "" {
		role = models.UserRoleUser
	}
	return &Identity{
		UserID:    claims.UserID,
		Role:      role,
		IsPremium: claims.Premium,
	}, nil
}
