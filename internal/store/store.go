package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-admin/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Sentinel errors surfaced by the inventory store.
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
)

// UnitOfWork is the handle passed to InTx callbacks. Every method runs on
// the same database transaction, so a product row locked with LockProduct
// stays locked until the unit of work commits or rolls back.
type UnitOfWork interface {
	// LockProduct acquires an exclusive row lock on the product and returns
	// its current state. Returns ErrProductNotFound if no such product.
	LockProduct(ctx context.Context, productID int64) (*models.Product, error)

	// DecrementStock reduces stock by qty. Returns ErrInsufficientStock when
	// the guarded update would drive stock negative.
	DecrementStock(ctx context.Context, productID int64, qty int) error

	// IncrementStock returns qty units to the pool.
	IncrementStock(ctx context.Context, productID int64, qty int) error

	// LockTransaction acquires an exclusive row lock on the transaction and
	// returns its current state, so the transition precondition is checked
	// against the committed row, not a snapshot read before the unit of
	// work began. Returns ErrTransactionNotFound if no such row (or it is
	// trashed and withTrashed is false).
	LockTransaction(ctx context.Context, id int64, withTrashed bool) (*models.Transaction, error)

	InsertTransaction(ctx context.Context, t *models.Transaction) error
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	SoftDeleteTransaction(ctx context.Context, id int64) error
	RestoreTransaction(ctx context.Context, id int64) error
	ForceDeleteTransaction(ctx context.Context, id int64) error
}

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// InTx runs fn inside a single database transaction. Any error from fn
// rolls the whole unit of work back, including stock mutations already
// issued through the UnitOfWork handle.
func (s *Store) InTx(ctx context.Context, fn func(UnitOfWork) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txUnit{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

// GetProduct retrieves a product by ID (no lock)
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 AND deleted_at IS NULL", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves all active products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE deleted_at IS NULL ORDER BY id")
	return products, err
}

// txUnit implements UnitOfWork over a live sqlx transaction.
type txUnit struct {
	tx *sqlx.Tx
}

func (u *txUnit) LockProduct(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	err := u.tx.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE", productID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return &product, nil
}

func (u *txUnit) DecrementStock(ctx context.Context, productID int64, qty int) error {
	res, err := u.tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1",
		qty, productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: product %d, requested %d", ErrInsufficientStock, productID, qty)
	}
	return nil
}

func (u *txUnit) IncrementStock(ctx context.Context, productID int64, qty int) error {
	_, err := u.tx.ExecContext(ctx,
		"UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2",
		qty, productID)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	return nil
}
