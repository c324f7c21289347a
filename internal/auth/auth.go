// Package auth covers credential hashing and the JWT session layer used by
// the HTTP handlers. The signing key and bcrypt cost are injected at
// construction instead of living in package state.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const accountIDKey contextKey = "accountID"

const tokenTTL = 24 * time.Hour

// Claims carries the authenticated account through a signed token.
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// Auth issues and validates session tokens and hashes credentials.
type Auth struct {
	key  []byte
	cost int
}

// New builds an Auth with the given signing secret and bcrypt cost. A cost of
// zero selects bcrypt.DefaultCost.
func New(secret string, bcryptCost int) *Auth {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Auth{key: []byte(secret), cost: bcryptCost}
}

// HashCredential returns the bcrypt hash of a plaintext credential.
func (a *Auth) HashCredential(credential string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return "", fmt.Errorf("could not hash credential: %w", err)
	}
	return string(hash), nil
}

// CheckCredential reports whether the plaintext credential matches the stored
// bcrypt hash.
func CheckCredential(hash, credential string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)) == nil
}

// GenerateToken issues a signed token for the account.
func (a *Auth) GenerateToken(accountID string) (string, error) {
	claims := &Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.key)
}

// ValidateToken parses and verifies a token, returning its claims.
func (a *Auth) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Middleware requires a valid Bearer token and stores the account ID in the
// request context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			http.Error(w, "Invalid token format", http.StatusUnauthorized)
			return
		}

		claims, err := a.ValidateToken(tokenStr)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, claims.AccountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccountIDFromContext returns the authenticated account ID placed in the
// context by Middleware.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok && id != ""
}
