package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type JWTManager struct {
	signingKey []byte
	accessTTL  time.Duration
}

func NewJWTManager(signingKey string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{
		signingKey: []byte(signingKey),
		accessTTL:  accessTTL,
	}
}

type AccessClaims struct {
	jwt.RegisteredClaims
	Role   string `json:"role,omitempty"` // admin | driver | customer (подсказка, итог решает Gate)
	UserID string `json:"user_id,omitempty"`
}

// Issue подписывает access token; в проде токены выпускает внешний провайдер
// с тем же секретом, здесь — для тестов и локальной отладки.
func (m *JWTManager) Issue(userID, role string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
		Role:   role,
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
}

// ParseAccess проверяет подпись и срок; user_id берётся из user_id или sub.
func (m *JWTManager) ParseAccess(tokenStr string) (userID, role string, err error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return m.signingKey, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := tok.Claims.(*AccessClaims)
	if !ok || !tok.Valid {
		return "", "", ErrInvalidToken
	}
	userID = claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return userID, claims.Role, nil
}
