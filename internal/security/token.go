package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	tokenIssuer   = "movie-rental-auth"
	tokenAudience = "movie-rental-api"
)

// UserClaims mirrors the payload the identity service signs: the account id,
// display name, email and the admin flag.
type UserClaims struct {
	UserID  string `json:"_id"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager interface {
	GenerateAccessToken(userID, name, email string, isAdmin bool) (string, error)
	ValidateToken(tokenString string) (*UserClaims, error)
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string) TokenManager {
	return &tokenManager{
		secret: []byte(secret),
		ttl:    time.Hour,
	}
}

// GenerateAccessToken signs a token the way the identity service does. The
// server only validates tokens; this is used by tooling and tests.
func (m *tokenManager) GenerateAccessToken(userID, name, email string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID:  userID,
		Name:    name,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
