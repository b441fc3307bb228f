package service

import (
	"errors"
	"testing"

	"storefront-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func trx(productID int64, qty int, paid bool, proof *string) *models.Transaction {
	return &models.Transaction{
		ID:        1,
		ProductID: productID,
		Quantity:  qty,
		IsPaid:    paid,
		Proof:     proof,
	}
}

func TestPlanCreate(t *testing.T) {
	tests := []struct {
		name      string
		after     *models.Transaction
		wantDelta int
		wantErr   error
		wantField string
	}{
		{
			name:      "unpaid create has no stock effect",
			after:     trx(7, 3, false, nil),
			wantDelta: 0,
		},
		{
			name:      "paid create reserves quantity",
			after:     trx(7, 3, true, strPtr("proofs/a.jpg")),
			wantDelta: -3,
		},
		{
			name:      "paid create without proof rejected",
			after:     trx(7, 3, true, nil),
			wantErr:   ErrMissingProof,
			wantField: "proof",
		},
		{
			name:      "paid create with empty proof rejected",
			after:     trx(7, 3, true, strPtr("")),
			wantErr:   ErrMissingProof,
			wantField: "proof",
		},
		{
			name:      "zero quantity rejected",
			after:     trx(7, 0, false, nil),
			wantErr:   ErrInvalidQuantity,
			wantField: "quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff, err := PlanTransition(OpCreate, nil, tt.after)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				var fieldErr *FieldError
				require.ErrorAs(t, err, &fieldErr)
				assert.Equal(t, tt.wantField, fieldErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDelta, eff.Delta)
		})
	}
}

func TestPlanUpdate(t *testing.T) {
	tests := []struct {
		name      string
		before    *models.Transaction
		after     *models.Transaction
		wantDelta int
		wantErr   error
		wantField string
	}{
		{
			name:      "approval reserves quantity",
			before:    trx(7, 4, false, strPtr("proofs/a.jpg")),
			after:     trx(7, 4, true, strPtr("proofs/a.jpg")),
			wantDelta: -4,
		},
		{
			name:      "approval without proof rejected",
			before:    trx(7, 4, false, nil),
			after:     trx(7, 4, true, nil),
			wantErr:   ErrMissingProof,
			wantField: "proof",
		},
		{
			name:      "paid cannot revert to unpaid",
			before:    trx(7, 4, true, strPtr("proofs/a.jpg")),
			after:     trx(7, 4, false, strPtr("proofs/a.jpg")),
			wantErr:   ErrIrreversibleTransition,
			wantField: "is_paid",
		},
		{
			name:      "paid quantity is immutable",
			before:    trx(7, 4, true, strPtr("proofs/a.jpg")),
			after:     trx(7, 5, true, strPtr("proofs/a.jpg")),
			wantErr:   ErrImmutableQuantity,
			wantField: "quantity",
		},
		{
			name:      "unpaid quantity edit has no stock effect",
			before:    trx(7, 4, false, nil),
			after:     trx(7, 9, false, nil),
			wantDelta: 0,
		},
		{
			name:      "unpaid quantity cannot drop below 1",
			before:    trx(7, 4, false, nil),
			after:     trx(7, 0, false, nil),
			wantErr:   ErrInvalidQuantity,
			wantField: "quantity",
		},
		{
			name:      "paid to paid with same quantity is a no-op",
			before:    trx(7, 4, true, strPtr("proofs/a.jpg")),
			after:     trx(7, 4, true, strPtr("proofs/a.jpg")),
			wantDelta: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff, err := PlanTransition(OpUpdate, tt.before, tt.after)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				var fieldErr *FieldError
				require.ErrorAs(t, err, &fieldErr)
				assert.Equal(t, tt.wantField, fieldErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDelta, eff.Delta)
		})
	}
}

func TestPlanDeleteRestore(t *testing.T) {
	paid := trx(7, 4, true, strPtr("proofs/a.jpg"))
	unpaid := trx(7, 4, false, nil)

	eff, err := PlanTransition(OpSoftDelete, paid, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, eff.Delta, "soft-deleting a paid transaction releases its reservation")

	eff, err = PlanTransition(OpSoftDelete, unpaid, nil)
	require.NoError(t, err)
	assert.Zero(t, eff.Delta)

	eff, err = PlanTransition(OpRestore, paid, nil)
	require.NoError(t, err)
	assert.Equal(t, -4, eff.Delta, "restoring a paid transaction re-reserves")

	eff, err = PlanTransition(OpRestore, unpaid, nil)
	require.NoError(t, err)
	assert.Zero(t, eff.Delta)

	eff, err = PlanTransition(OpForceDelete, paid, nil)
	require.NoError(t, err)
	assert.Zero(t, eff.Delta, "force delete never touches stock")
}

func TestFieldErrorUnwrap(t *testing.T) {
	err := insufficientStock(5, 2)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Contains(t, err.Error(), "quantity")
}
