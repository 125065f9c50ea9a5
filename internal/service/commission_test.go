package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingcore/internal/model"
	"bookingcore/internal/repository"
)

func TestComputeCommission(t *testing.T) {
	tests := []struct {
		name  string
		kind  model.CommissionType
		value string
		sale  string
		want  string
	}{
		{"percentage", model.CommissionTypePercentage, "10", "5900", "590"},
		{"fractional percentage rounds", model.CommissionTypePercentage, "7.5", "1234.57", "92.59"},
		{"flat ignores sale", model.CommissionTypeFlat, "250", "5900", "250"},
		{"unset type is percentage", "", "5", "1000", "50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeCommission(tt.kind, decimal.RequireFromString(tt.value), decimal.RequireFromString(tt.sale))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCommissionService_Accrue(t *testing.T) {
	logger, _ := nullLogger()
	svc := NewCommissionService(logger)
	store := newMemStore()
	store.addProperty(model.Property{ID: 1, ConnectorID: uintPtr(9), CommissionType: model.CommissionTypeFlat, CommissionValue: decimal.NewFromInt(300)})
	store.addProperty(model.Property{ID: 2})

	ctx := context.Background()
	withConnector := &model.Booking{ID: 10, PropertyID: 1, TotalAmount: decimal.NewFromInt(4000)}
	direct := &model.Booking{ID: 11, PropertyID: 2, TotalAmount: decimal.NewFromInt(4000)}

	for i := 0; i < 2; i++ {
		err := store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			if err := svc.Accrue(ctx, tx, withConnector); err != nil {
				return err
			}
			return svc.Accrue(ctx, tx, direct)
		})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, store.earningCount())
	require.Len(t, store.state.earnings, 1)
	e := store.state.earnings[0]
	assert.Equal(t, uint(9), e.ConnectorID)
	assert.True(t, decimal.NewFromInt(300).Equal(e.CommissionAmount))
	assert.Equal(t, model.PayoutStatusPending, e.PayoutStatus)
}
