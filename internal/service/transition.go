package service

import (
	"fmt"

	"storefront-admin/internal/models"
)

// Op identifies a transaction lifecycle event.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpSoftDelete
	OpRestore
	OpForceDelete
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpSoftDelete:
		return "soft_delete"
	case OpRestore:
		return "restore"
	case OpForceDelete:
		return "force_delete"
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// StockEffect is the inventory adjustment a transition requires. Delta is
// negative when stock must be reserved and positive when it is released.
// A zero delta means the transition does not touch inventory.
type StockEffect struct {
	ProductID int64
	Delta     int
}

// PlanTransition validates a lifecycle event against the persisted snapshot
// (before) and the proposed one (after) and returns the stock effect the
// caller must apply inside the same unit of work as the record mutation.
//
// Approval is the only point where stock is committed: an unpaid
// transaction reserves nothing, and marking it paid is irreversible.
// Neither snapshot is ever mutated.
func PlanTransition(op Op, before, after *models.Transaction) (StockEffect, error) {
	switch op {
	case OpCreate:
		return planCreate(after)
	case OpUpdate:
		return planUpdate(before, after)
	case OpSoftDelete:
		if before.IsPaid {
			// release the reservation while the record sits in the trash
			return StockEffect{ProductID: before.ProductID, Delta: before.Quantity}, nil
		}
		return StockEffect{}, nil
	case OpRestore:
		if before.IsPaid {
			// re-reserve; the caller fails the restore when stock is short
			return StockEffect{ProductID: before.ProductID, Delta: -before.Quantity}, nil
		}
		return StockEffect{}, nil
	case OpForceDelete:
		// stock was reconciled by the preceding soft delete
		return StockEffect{}, nil
	}
	return StockEffect{}, fmt.Errorf("unknown transition op: %d", int(op))
}

func planCreate(after *models.Transaction) (StockEffect, error) {
	if after.Quantity < 1 {
		return StockEffect{}, invalidQuantity(after.Quantity)
	}
	if !after.IsPaid {
		return StockEffect{}, nil
	}
	if !after.HasProof() {
		return StockEffect{}, missingProof()
	}
	return StockEffect{ProductID: after.ProductID, Delta: -after.Quantity}, nil
}

func planUpdate(before, after *models.Transaction) (StockEffect, error) {
	if before.IsPaid && !after.IsPaid {
		return StockEffect{}, irreversibleTransition()
	}
	if before.IsPaid && after.Quantity != before.Quantity {
		return StockEffect{}, immutableQuantity()
	}
	if after.Quantity < 1 {
		return StockEffect{}, invalidQuantity(after.Quantity)
	}

	// unpaid -> paid: the reservation becomes binding
	if !before.IsPaid && after.IsPaid {
		if !after.HasProof() {
			return StockEffect{}, missingProof()
		}
		return StockEffect{ProductID: after.ProductID, Delta: -after.Quantity}, nil
	}

	return StockEffect{}, nil
}
