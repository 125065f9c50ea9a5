package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"bookingcore/internal/repository"
)

const (
	referencePrefix   = "RES-"
	referenceLength   = 8
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxReferenceTries = 10
)

// GenerateReference returns RES- followed by 8 random uppercase alphanumerics.
func GenerateReference(r io.Reader) (string, error) {
	buf := make([]byte, referenceLength)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(r, max)
		if err != nil {
			return "", fmt.Errorf("generate reference: %w", err)
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return referencePrefix + string(buf), nil
}

// uniqueReference draws references until one is free.
func uniqueReference(ctx context.Context, bookings repository.BookingRepository, r io.Reader) (string, error) {
	for i := 0; i < maxReferenceTries; i++ {
		ref, err := GenerateReference(r)
		if err != nil {
			return "", err
		}
		taken, err := bookings.ReferenceExists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("check reference: %w", err)
		}
		if !taken {
			return ref, nil
		}
	}
	return "", fmt.Errorf("no free booking reference after %d attempts", maxReferenceTries)
}
