// Package auth issues and checks the bearer tokens that guard the admin routes.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// AdminSubject is the subject of every admin token; there is a single admin account.
const AdminSubject = "admin"

var ErrInvalidPassword = errors.New("invalid password")

type JWTManager struct {
	secretKey     string
	tokenDuration time.Duration
	passwordHash  string
}

func NewJWTManager(secret, passwordHash string, duration time.Duration) *JWTManager {
	return &JWTManager{secretKey: secret, passwordHash: passwordHash, tokenDuration: duration}
}

// Login checks password against the configured bcrypt hash and issues a token.
func (m *JWTManager) Login(password string) (string, time.Time, error) {
	if m.passwordHash == "" {
		return "", time.Time{}, ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.passwordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidPassword
	}
	return m.Generate(AdminSubject)
}

// Generate signs an HS256 token for subject.
func (m *JWTManager) Generate(subject string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(m.tokenDuration)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses and validates a token.
func (m *JWTManager) Verify(accessToken string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ExtractTokenFromHeader returns the bearer token of the Authorization header.
func ExtractTokenFromHeader(r *http.Request) (string, error) {
	hdr := r.Header.Get("Authorization")
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid Authorization header")
	}
	return parts[1], nil
}
