package jwt

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eventhive-services/common/authz"
	apperrors "github.com/eventhive-services/common/errors"
)

// Claims represents JWT claims structure
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

const devSecret = "eventhive-local-development-secret-change-me"

var (
	secretMu  sync.RWMutex
	secretKey = []byte(getEnv("JWT_SECRET", devSecret))

	// Token expiration time (7 days)
	tokenExpiration = 7 * 24 * time.Hour
)

// SetSecret replaces the signing secret. Empty values are ignored.
func SetSecret(secret string) {
	if secret == "" {
		return
	}
	secretMu.Lock()
	secretKey = []byte(secret)
	secretMu.Unlock()
}

func currentSecret() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	return secretKey
}

// GenerateToken generates a JWT token for a user
func GenerateToken(userID int64, email, role string) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(currentSecret())
}

// ValidateToken validates a JWT token and returns claims
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return currentSecret(), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Authenticate resolves an opaque credential (a bearer header value or a raw
// token) to the principal it identifies. Any failure is Unauthenticated.
func Authenticate(credential string) (authz.Principal, error) {
	token := strings.TrimSpace(credential)
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return authz.Principal{}, apperrors.Unauthenticated("Missing credential")
	}

	claims, err := ValidateToken(token)
	if err != nil {
		return authz.Principal{}, apperrors.InvalidToken().WithCause(err)
	}

	role, ok := authz.ParseRole(claims.Role)
	if !ok || claims.UserID <= 0 {
		return authz.Principal{}, apperrors.InvalidToken()
	}

	return authz.Principal{UserID: claims.UserID, Role: role}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
