package auth

import (
	"context"
	"time"

	"bookingcore/internal/cache"
)

const revokedTokenKeyPrefix = "revoked:operator_token:"

// RevocationStore tracks operator tokens revoked before they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore keeps revoked token ids in Redis until the token would have expired.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements RevocationStore
var _ RevocationStore = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// Revoke marks a token id as revoked for ttl.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked checks if a token id was revoked.
func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedTokenKeyPrefix+tokenID)
	if err != nil {
		return false, nil // fail open like the rest of the cache layer
	}
	return data != nil, nil
}

// RevokeClaims revokes the token carrying claims for the rest of its lifetime.
func RevokeClaims(ctx context.Context, store RevocationStore, claims *Claims) error {
	if claims.ExpiresAt == nil {
		return store.Revoke(ctx, claims.ID, DefaultTokenExpiry)
	}
	return store.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}
