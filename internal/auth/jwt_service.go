package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// DefaultTokenExpiry is the lifetime of an operator token unless overridden.
const DefaultTokenExpiry = 12 * time.Hour

// ContextKey is where echo-jwt stores the parsed token.
const ContextKey = "user"

// Role is what an operator may do.
type Role string

const (
	// RoleVendor manages bookings of the vendor's own properties.
	RoleVendor Role = "vendor"
	// RoleAdmin manages every property and payment.
	RoleAdmin Role = "admin"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleVendor, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Claims represents operator JWT claims.
type Claims struct {
	OperatorID uint `json:"operator_id"`
	Role       Role `json:"role"`
	jwt.RegisteredClaims
}

// VendorScope returns the vendor id that restricts this operator, or nil for admins.
func (c *Claims) VendorScope() *uint {
	if c.Role == RoleAdmin {
		return nil
	}
	id := c.OperatorID
	return &id
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

// GenerateOperatorToken issues a token for an operator.
func (s *JWTService) GenerateOperatorToken(operatorID uint, role Role, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenExpiry
	}
	now := time.Now()
	claims := &Claims{
		OperatorID: operatorID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   fmt.Sprintf("%s:%d", role, operatorID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies the signature and registered claims of a token.
// The router hands it to echo-jwt so handlers see *jwt.Token with *Claims.
func (s *JWTService) ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token")
	}
	if _, err := ParseRole(string(claims.Role)); err != nil {
		return nil, err
	}

	return claims, nil
}

// FromContext returns the operator claims stored by the JWT middleware.
func FromContext(c echo.Context) (*Claims, bool) {
	token, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	return claims, ok
}
