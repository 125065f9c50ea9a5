package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateOperatorToken(t *testing.T) {
	svc := NewJWTService("secret")

	token, err := svc.GenerateOperatorToken(7, RoleVendor, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.OperatorID)
	assert.Equal(t, RoleVendor, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "vendor:7", claims.Subject)
	require.NotNil(t, claims.VendorScope())
	assert.Equal(t, uint(7), *claims.VendorScope())
}

func TestAdminHasNoVendorScope(t *testing.T) {
	claims := &Claims{OperatorID: 1, Role: RoleAdmin}
	assert.Nil(t, claims.VendorScope())
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewJWTService("secret")

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTService("other").GenerateOperatorToken(1, RoleAdmin, time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := &Claims{
			OperatorID: 1,
			Role:       RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := &Claims{
			OperatorID: 1,
			Role:       "guest",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	svc := NewJWTService("secret")
	raw, err := svc.GenerateOperatorToken(3, RoleVendor, time.Hour)
	require.NoError(t, err)
	token, err := svc.ParseToken(raw)
	require.NoError(t, err)

	e := echo.New()
	c := e.NewContext(httptest.NewRequest("GET", "/", nil), httptest.NewRecorder())

	_, ok := FromContext(c)
	assert.False(t, ok)

	c.Set(ContextKey, token)
	claims, ok := FromContext(c)
	require.True(t, ok)
	assert.Equal(t, uint(3), claims.OperatorID)
}

type memRevocations map[string]time.Duration

func (m memRevocations) Revoke(_ context.Context, id string, ttl time.Duration) error {
	m[id] = ttl
	return nil
}

func (m memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m[id]
	return ok, nil
}

func TestRevokeClaimsUsesRemainingLifetime(t *testing.T) {
	store := memRevocations{}
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "jti-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * time.Minute)),
	}}

	require.NoError(t, RevokeClaims(context.Background(), store, claims))

	revoked, _ := store.IsRevoked(context.Background(), "jti-1")
	assert.True(t, revoked)
	assert.InDelta(t, (30 * time.Minute).Seconds(), store["jti-1"].Seconds(), 5)
}

func TestTokenStoreWithoutRedisNeverReportsRevoked(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti", time.Minute))
	revoked, err := store.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}
