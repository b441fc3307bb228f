package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"storefront-admin/internal/models"
	"storefront-admin/internal/store"
	"storefront-admin/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the persistence surface the transition engine needs. It is
// implemented by *store.Store and by the in-memory store used in tests.
type Store interface {
	GetTransaction(ctx context.Context, id int64, withTrashed bool) (*models.Transaction, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
	BookingTrxIDExists(ctx context.Context, bookingTrxID string) (bool, error)
	InTx(ctx context.Context, fn func(store.UnitOfWork) error) error
}

// EventPublisher publishes transaction lifecycle events.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *models.TransactionEvent) error
}

// TransactionService is the gatekeeper for every lifecycle event of a
// transaction and the only writer of product stock on a transaction's
// behalf. Each transition runs in one unit of work that holds the product
// row lock from validation through commit.
type TransactionService struct {
	store     Store
	publisher EventPublisher
	logger    *zap.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(st Store, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     st,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// CreateTransactionRequest represents a request to record a transaction
type CreateTransactionRequest struct {
	Name             string  `json:"name" binding:"required"`
	Phone            string  `json:"phone" binding:"required"`
	Email            string  `json:"email" binding:"required,email"`
	City             string  `json:"city" binding:"required"`
	PostCode         string  `json:"post_code" binding:"required"`
	Address          string  `json:"address" binding:"required"`
	ProductID        int64   `json:"product_id" binding:"required"`
	ShoeSize         string  `json:"shoe_size" binding:"required"`
	Quantity         int     `json:"quantity" binding:"required,min=1"`
	SubTotalAmount   int64   `json:"sub_total_amount"`
	DiscountAmount   int64   `json:"discount_amount"`
	GrandTotalAmount int64   `json:"grand_total_amount"`
	PromoCodeID      *int64  `json:"promo_code_id,omitempty"`
	IsPaid           bool    `json:"is_paid"`
	Proof            *string `json:"proof,omitempty"`
}

// UpdateTransactionRequest is a partial change set; nil fields are left
// untouched. The engine receives the persisted snapshot and the proposed
// one, never a live record mutated in place.
type UpdateTransactionRequest struct {
	Name             *string `json:"name,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Email            *string `json:"email,omitempty"`
	City             *string `json:"city,omitempty"`
	PostCode         *string `json:"post_code,omitempty"`
	Address          *string `json:"address,omitempty"`
	ShoeSize         *string `json:"shoe_size,omitempty"`
	Quantity         *int    `json:"quantity,omitempty"`
	SubTotalAmount   *int64  `json:"sub_total_amount,omitempty"`
	DiscountAmount   *int64  `json:"discount_amount,omitempty"`
	GrandTotalAmount *int64  `json:"grand_total_amount,omitempty"`
	PromoCodeID      *int64  `json:"promo_code_id,omitempty"`
	IsPaid           *bool   `json:"is_paid,omitempty"`
	Proof            *string `json:"proof,omitempty"`
}

func (r *UpdateTransactionRequest) apply(before *models.Transaction) *models.Transaction {
	after := before.Clone()
	if r.Name != nil {
		after.Name = *r.Name
	}
	if r.Phone != nil {
		after.Phone = *r.Phone
	}
	if r.Email != nil {
		after.Email = *r.Email
	}
	if r.City != nil {
		after.City = *r.City
	}
	if r.PostCode != nil {
		after.PostCode = *r.PostCode
	}
	if r.Address != nil {
		after.Address = *r.Address
	}
	if r.ShoeSize != nil {
		after.ShoeSize = *r.ShoeSize
	}
	if r.Quantity != nil {
		after.Quantity = *r.Quantity
	}
	if r.SubTotalAmount != nil {
		after.SubTotalAmount = *r.SubTotalAmount
	}
	if r.DiscountAmount != nil {
		after.DiscountAmount = *r.DiscountAmount
	}
	if r.GrandTotalAmount != nil {
		after.GrandTotalAmount = *r.GrandTotalAmount
	}
	if r.PromoCodeID != nil {
		after.PromoCodeID = r.PromoCodeID
	}
	if r.IsPaid != nil {
		after.IsPaid = *r.IsPaid
	}
	if r.Proof != nil {
		after.Proof = r.Proof
	}
	return after
}

// ApproveResult is the outcome of an approval attempt. ProofRequired is a
// soft signal that the operator must attach proof of payment and retry; it
// is not a validation failure.
type ApproveResult struct {
	Transaction   *models.Transaction `json:"transaction"`
	ProofRequired bool                `json:"proof_required"`
}

// Create records a new transaction. A transaction created directly in the
// paid state reserves stock immediately; creation aborts with
// ErrInsufficientStock when the product cannot cover the quantity.
func (s *TransactionService) Create(ctx context.Context, req *CreateTransactionRequest) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.Create")
	defer span.End()
	defer observeLatency(OpCreate, time.Now())

	trx := &models.Transaction{
		Name:             req.Name,
		Phone:            req.Phone,
		Email:            req.Email,
		City:             req.City,
		PostCode:         req.PostCode,
		Address:          req.Address,
		ProductID:        req.ProductID,
		ShoeSize:         req.ShoeSize,
		Quantity:         req.Quantity,
		SubTotalAmount:   req.SubTotalAmount,
		DiscountAmount:   req.DiscountAmount,
		GrandTotalAmount: req.GrandTotalAmount,
		PromoCodeID:      req.PromoCodeID,
		IsPaid:           req.IsPaid,
		Proof:            req.Proof,
	}

	bookingID, err := s.newBookingTrxID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking trx id: %w", err)
	}
	trx.BookingTrxID = bookingID

	eff, err := PlanTransition(OpCreate, nil, trx)
	if err != nil {
		s.recordRejection(OpCreate, err)
		return nil, err
	}

	var applied int
	err = s.store.InTx(ctx, func(uow store.UnitOfWork) error {
		applied, err = s.applyStockEffect(ctx, uow, eff)
		if err != nil {
			return err
		}
		return uow.InsertTransaction(ctx, trx)
	})
	if err != nil {
		s.recordRejection(OpCreate, err)
		return nil, err
	}

	util.TransactionsCreatedTotal.Inc()
	recordStockUnits(applied)
	s.logger.Info("Transaction created",
		zap.Int64("transaction_id", trx.ID),
		zap.String("booking_trx_id", trx.BookingTrxID),
		zap.Bool("is_paid", trx.IsPaid))

	s.publish(ctx, models.EventTypeTransactionCreated, trx, applied)
	return trx, nil
}

// Update applies a partial change set to an active transaction. Disallowed
// transitions (paid reverted to unpaid, paid quantity changed) are rejected
// and nothing is persisted.
func (s *TransactionService) Update(ctx context.Context, id int64, req *UpdateTransactionRequest) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.Update")
	defer span.End()
	defer observeLatency(OpUpdate, time.Now())

	// the whole read-check-write sequence runs under the transaction row
	// lock, so a concurrent approval or quantity edit of the same record
	// serializes here and re-validates against the committed state
	var after *models.Transaction
	var approving bool
	var applied int
	err := s.store.InTx(ctx, func(uow store.UnitOfWork) error {
		before, err := uow.LockTransaction(ctx, id, false)
		if err != nil {
			return err
		}

		after = req.apply(before)
		approving = !before.IsPaid && after.IsPaid

		eff, err := PlanTransition(OpUpdate, before, after)
		if err != nil {
			return err
		}

		applied, err = s.applyStockEffect(ctx, uow, eff)
		if err != nil {
			return err
		}
		return uow.UpdateTransaction(ctx, after)
	})
	if err != nil {
		s.recordRejection(OpUpdate, err)
		return nil, err
	}

	recordStockUnits(applied)

	eventType := models.EventTypeTransactionUpdated
	if approving {
		eventType = models.EventTypeTransactionApproved
		util.TransactionsApprovedTotal.Inc()
		s.logger.Info("Transaction approved",
			zap.Int64("transaction_id", after.ID),
			zap.Int("quantity", after.Quantity))
	}

	s.publish(ctx, eventType, after, applied)
	return after, nil
}

// Approve marks a transaction paid. When proof of payment is missing it
// reports ProofRequired instead of failing, so the operator is prompted to
// attach proof first.
func (s *TransactionService) Approve(ctx context.Context, id int64) (*ApproveResult, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.Approve")
	defer span.End()

	trx, err := s.store.GetTransaction(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if trx.IsPaid {
		return &ApproveResult{Transaction: trx}, nil
	}

	if !trx.HasProof() {
		util.ApproveProofPromptsTotal.Inc()
		s.logger.Info("Approval deferred, proof of payment missing",
			zap.Int64("transaction_id", trx.ID))
		return &ApproveResult{Transaction: trx, ProofRequired: true}, nil
	}

	paid := true
	updated, err := s.Update(ctx, id, &UpdateTransactionRequest{IsPaid: &paid})
	if err != nil {
		return nil, err
	}
	return &ApproveResult{Transaction: updated}, nil
}

// SoftDelete moves a transaction to the trash. A paid transaction releases
// its reservation back to the product's stock.
func (s *TransactionService) SoftDelete(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "TransactionService.SoftDelete")
	defer span.End()
	defer observeLatency(OpSoftDelete, time.Now())

	var before *models.Transaction
	var applied int
	err := s.store.InTx(ctx, func(uow store.UnitOfWork) error {
		var err error
		before, err = uow.LockTransaction(ctx, id, false)
		if err != nil {
			return err
		}

		eff, err := PlanTransition(OpSoftDelete, before, nil)
		if err != nil {
			return err
		}

		applied, err = s.applyStockEffect(ctx, uow, eff)
		if err != nil {
			return err
		}
		return uow.SoftDeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}

	util.TransactionsSoftDeletedTotal.Inc()
	recordStockUnits(applied)
	s.logger.Info("Transaction soft-deleted",
		zap.Int64("transaction_id", id),
		zap.Int("stock_released", applied))

	s.publish(ctx, models.EventTypeTransactionSoftDeleted, before, applied)
	return nil
}

// Restore brings a trashed transaction back. A paid transaction must
// re-reserve its quantity; when stock no longer covers it the restore fails
// with ErrInsufficientStock and the record stays in the trash.
func (s *TransactionService) Restore(ctx context.Context, id int64) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.Restore")
	defer span.End()
	defer observeLatency(OpRestore, time.Now())

	var before *models.Transaction
	var applied int
	alreadyActive := false
	err := s.store.InTx(ctx, func(uow store.UnitOfWork) error {
		var err error
		before, err = uow.LockTransaction(ctx, id, true)
		if err != nil {
			return err
		}
		if !before.Trashed() {
			alreadyActive = true
			return nil
		}

		eff, err := PlanTransition(OpRestore, before, nil)
		if err != nil {
			return err
		}

		applied, err = s.applyStockEffect(ctx, uow, eff)
		if err != nil {
			return err
		}
		return uow.RestoreTransaction(ctx, id)
	})
	if err != nil {
		s.recordRejection(OpRestore, err)
		return nil, err
	}
	if alreadyActive {
		return before, nil
	}

	util.TransactionsRestoredTotal.Inc()
	recordStockUnits(applied)
	s.logger.Info("Transaction restored",
		zap.Int64("transaction_id", id),
		zap.Int("stock_reserved", -applied))

	restored, err := s.store.GetTransaction(ctx, id, false)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.EventTypeTransactionRestored, restored, applied)
	return restored, nil
}

// ForceDelete permanently removes a transaction. Stock is untouched: any
// reservation was already reconciled by the preceding soft delete.
func (s *TransactionService) ForceDelete(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "TransactionService.ForceDelete")
	defer span.End()
	defer observeLatency(OpForceDelete, time.Now())

	var before *models.Transaction
	err := s.store.InTx(ctx, func(uow store.UnitOfWork) error {
		var err error
		before, err = uow.LockTransaction(ctx, id, true)
		if err != nil {
			return err
		}
		return uow.ForceDeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}

	util.TransactionsPurgedTotal.Inc()
	s.logger.Info("Transaction force-deleted", zap.Int64("transaction_id", id))

	s.publish(ctx, models.EventTypeTransactionPurged, before, 0)
	return nil
}

// Get retrieves an active transaction by ID
func (s *TransactionService) Get(ctx context.Context, id int64) (*models.Transaction, error) {
	return s.store.GetTransaction(ctx, id, false)
}

// List retrieves all active transactions
func (s *TransactionService) List(ctx context.Context) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// applyStockEffect locks the product row and applies the planned delta.
// A missing product skips the effect instead of failing, so orphaned
// records can still be deleted or restored.
func (s *TransactionService) applyStockEffect(ctx context.Context, uow store.UnitOfWork, eff StockEffect) (int, error) {
	if eff.Delta == 0 {
		return 0, nil
	}

	product, err := uow.LockProduct(ctx, eff.ProductID)
	if errors.Is(err, store.ErrProductNotFound) {
		s.logger.Warn("Product missing, skipping stock effect",
			zap.Int64("product_id", eff.ProductID),
			zap.Int("delta", eff.Delta))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if eff.Delta < 0 {
		need := -eff.Delta
		if need > product.Stock {
			return 0, insufficientStock(need, product.Stock)
		}
		if err := uow.DecrementStock(ctx, eff.ProductID, need); err != nil {
			if errors.Is(err, store.ErrInsufficientStock) {
				return 0, insufficientStock(need, product.Stock)
			}
			return 0, err
		}
		return eff.Delta, nil
	}

	if err := uow.IncrementStock(ctx, eff.ProductID, eff.Delta); err != nil {
		return 0, err
	}
	return eff.Delta, nil
}

// newBookingTrxID generates a unique TJH-prefixed booking ID.
func (s *TransactionService) newBookingTrxID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		id := fmt.Sprintf("TJH%d", 10001+rand.Intn(89999))
		exists, err := s.store.BookingTrxIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("booking trx id space exhausted")
}

func (s *TransactionService) publish(ctx context.Context, eventType string, trx *models.Transaction, stockDelta int) {
	if s.publisher == nil {
		return
	}

	event := &models.TransactionEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
		},
		TransactionID: trx.ID,
		BookingTrxID:  trx.BookingTrxID,
		ProductID:     trx.ProductID,
		Quantity:      trx.Quantity,
		IsPaid:        trx.IsPaid,
		StockDelta:    stockDelta,
	}

	if err := s.publisher.PublishTransactionEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish transaction event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

func (s *TransactionService) recordRejection(op Op, err error) {
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		return
	}

	reason := "invalid"
	switch {
	case errors.Is(err, ErrInsufficientStock):
		reason = "insufficient_stock"
	case errors.Is(err, ErrMissingProof):
		reason = "missing_proof"
	case errors.Is(err, ErrIrreversibleTransition):
		reason = "irreversible_transition"
	case errors.Is(err, ErrImmutableQuantity):
		reason = "immutable_quantity"
	case errors.Is(err, ErrInvalidQuantity):
		reason = "invalid_quantity"
	}

	util.TransitionsRejectedTotal.WithLabelValues(op.String(), reason).Inc()
	s.logger.Warn("Transition rejected",
		zap.String("op", op.String()),
		zap.String("reason", reason),
		zap.String("field", fieldErr.Field))
}

func recordStockUnits(applied int) {
	if applied < 0 {
		util.StockReservedUnits.Add(float64(-applied))
	} else if applied > 0 {
		util.StockReleasedUnits.Add(float64(applied))
	}
}

func observeLatency(op Op, start time.Time) {
	util.TransitionLatency.WithLabelValues(op.String()).Observe(time.Since(start).Seconds())
}
