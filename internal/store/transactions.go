package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-admin/internal/models"
)

// GetTransaction retrieves a transaction by ID. When withTrashed is false,
// soft-deleted records are invisible.
func (s *Store) GetTransaction(ctx context.Context, id int64, withTrashed bool) (*models.Transaction, error) {
	query := "SELECT * FROM product_transactions WHERE id = $1"
	if !withTrashed {
		query += " AND deleted_at IS NULL"
	}

	var trx models.Transaction
	err := s.db.GetContext(ctx, &trx, query, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrTransactionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

// ListTransactions retrieves all active transactions, newest first
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var trxs []models.Transaction
	err := s.db.SelectContext(ctx, &trxs,
		"SELECT * FROM product_transactions WHERE deleted_at IS NULL ORDER BY created_at DESC")
	return trxs, err
}

// BookingTrxIDExists reports whether a booking ID is already taken,
// soft-deleted records included.
func (s *Store) BookingTrxIDExists(ctx context.Context, bookingTrxID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM product_transactions WHERE booking_trx_id = $1)", bookingTrxID)
	return exists, err
}

func (u *txUnit) LockTransaction(ctx context.Context, id int64, withTrashed bool) (*models.Transaction, error) {
	query := "SELECT * FROM product_transactions WHERE id = $1"
	if !withTrashed {
		query += " AND deleted_at IS NULL"
	}
	query += " FOR UPDATE"

	var trx models.Transaction
	err := u.tx.GetContext(ctx, &trx, query, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrTransactionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	return &trx, nil
}

func (u *txUnit) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO product_transactions
			(booking_trx_id, name, phone, email, city, post_code, address,
			 product_id, shoe_size, quantity, sub_total_amount, discount_amount,
			 grand_total_amount, promo_code_id, is_paid, proof)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`

	return u.tx.GetContext(ctx, t, query,
		t.BookingTrxID, t.Name, t.Phone, t.Email, t.City, t.PostCode, t.Address,
		t.ProductID, t.ShoeSize, t.Quantity, t.SubTotalAmount, t.DiscountAmount,
		t.GrandTotalAmount, t.PromoCodeID, t.IsPaid, t.Proof)
}

func (u *txUnit) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	query := `
		UPDATE product_transactions SET
			name = $1, phone = $2, email = $3, city = $4, post_code = $5,
			address = $6, shoe_size = $7, quantity = $8, sub_total_amount = $9,
			discount_amount = $10, grand_total_amount = $11, promo_code_id = $12,
			is_paid = $13, proof = $14, updated_at = NOW()
		WHERE id = $15 AND deleted_at IS NULL
		RETURNING updated_at`

	err := u.tx.GetContext(ctx, &t.UpdatedAt, query,
		t.Name, t.Phone, t.Email, t.City, t.PostCode, t.Address,
		t.ShoeSize, t.Quantity, t.SubTotalAmount, t.DiscountAmount,
		t.GrandTotalAmount, t.PromoCodeID, t.IsPaid, t.Proof, t.ID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %d", ErrTransactionNotFound, t.ID)
	}
	return err
}

func (u *txUnit) SoftDeleteTransaction(ctx context.Context, id int64) error {
	res, err := u.tx.ExecContext(ctx,
		"UPDATE product_transactions SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL",
		id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

func (u *txUnit) RestoreTransaction(ctx context.Context, id int64) error {
	res, err := u.tx.ExecContext(ctx,
		"UPDATE product_transactions SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL",
		id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

func (u *txUnit) ForceDeleteTransaction(ctx context.Context, id int64) error {
	res, err := u.tx.ExecContext(ctx,
		"DELETE FROM product_transactions WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrTransactionNotFound, id)
	}
	return nil
}
