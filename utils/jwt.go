// Package utils holds small helpers shared across the service and HTTP layers.
package utils

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var jwtSecret = getJWTSecret()

func getJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("ENV") == "production" {
			log.Fatal("JWT_SECRET must be set in production")
		}
		// Development fallback. Tokens signed with it are worthless elsewhere.
		secret = "conciliacao_dev_secret_do_not_use_in_production"
	}
	return []byte(secret)
}

// ActorClaims carries the already-validated identity issued by the external
// identity provider. This service only reads these claims for attribution;
// it never authenticates credentials.
type ActorClaims struct {
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for the given actor. Used by seeding tools and
// tests; production tokens come from the identity provider.
func GenerateToken(userID uint, name string, role string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		UserID: userID,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseToken validates the signature and returns the actor claims.
func ParseToken(tokenString string) (*ActorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ActorClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
