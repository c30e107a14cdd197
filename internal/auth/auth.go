// Package auth issues and checks reviewer tokens for the HTTP API.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ContextReviewer is the gin context key holding the authenticated reviewer.
const ContextReviewer = "reviewer"

// ErrInvalidCredentials is returned by Login for an unknown reviewer or a
// wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims defines the structure of the JWT claims.
type Claims struct {
	Reviewer string `json:"reviewer"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens for a fixed set of
// reviewers.
type Authenticator struct {
	secret    []byte
	reviewers map[string]string // name -> argon2id hash
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// New creates an Authenticator. reviewers maps a reviewer name to a hash
// produced by HashPassword.
func New(secret string, reviewers map[string]string, ttl time.Duration, logger *zap.Logger) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("auth secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid token ttl %s", ttl)
	}
	return &Authenticator{
		secret:    []byte(secret),
		reviewers: reviewers,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Login checks a reviewer's password and returns a signed token with its
// expiration time.
func (a *Authenticator) Login(name, password string) (string, time.Time, error) {
	hash, ok := a.reviewers[name]
	if !ok {
		return "", time.Time{}, ErrInvalidCredentials
	}
	match, err := VerifyPassword(hash, password)
	if err != nil {
		a.logger.Error("Stored password hash is invalid", zap.String("reviewer", name), zap.Error(err))
		return "", time.Time{}, ErrInvalidCredentials
	}
	if !match {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := a.now()
	expirationTime := now.Add(a.ttl)
	claims := &Claims{
		Reviewer: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	a.logger.Info("Reviewer logged in", zap.String("reviewer", name))
	return tokenString, expirationTime, nil
}

// Parse validates a token and returns its claims.
func (a *Authenticator) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Reviewer == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Middleware rejects requests without a valid Bearer token and stores the
// reviewer name under ContextReviewer.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer <token>"})
			return
		}

		claims, err := a.Parse(tokenString)
		if errors.Is(err, jwt.ErrTokenExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			return
		}
		if err != nil {
			a.logger.Debug("Invalid token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ContextReviewer, claims.Reviewer)
		c.Next()
	}
}
