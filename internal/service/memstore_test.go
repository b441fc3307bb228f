package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-admin/internal/models"
	"storefront-admin/internal/store"
)

// memStore is an in-memory implementation of the Store and UnitOfWork
// surfaces. It mimics the database's behavior where it matters to the
// engine: per-product row locks held for the whole unit of work, and full
// rollback of every mutation when the unit of work fails.
type memStore struct {
	mu        sync.Mutex
	products  map[int64]*models.Product
	trxs      map[int64]*models.Transaction
	rowLocks  map[int64]*sync.Mutex
	trxLocks  map[int64]*sync.Mutex
	nextTrxID int64
}

func newMemStore(products ...*models.Product) *memStore {
	ms := &memStore{
		products: make(map[int64]*models.Product),
		trxs:     make(map[int64]*models.Transaction),
		rowLocks: make(map[int64]*sync.Mutex),
		trxLocks: make(map[int64]*sync.Mutex),
	}
	for _, p := range products {
		ms.products[p.ID] = p
	}
	return ms
}

func (ms *memStore) stock(productID int64) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.products[productID].Stock
}

func (ms *memStore) rowLock(productID int64) *sync.Mutex {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.rowLocks[productID]; !ok {
		ms.rowLocks[productID] = &sync.Mutex{}
	}
	return ms.rowLocks[productID]
}

func (ms *memStore) trxLock(id int64) *sync.Mutex {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.trxLocks[id]; !ok {
		ms.trxLocks[id] = &sync.Mutex{}
	}
	return ms.trxLocks[id]
}

func (ms *memStore) GetTransaction(ctx context.Context, id int64, withTrashed bool) (*models.Transaction, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	trx, ok := ms.trxs[id]
	if !ok || (!withTrashed && trx.Trashed()) {
		return nil, fmt.Errorf("%w: %d", store.ErrTransactionNotFound, id)
	}
	return trx.Clone(), nil
}

func (ms *memStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []models.Transaction
	for _, trx := range ms.trxs {
		if !trx.Trashed() {
			out = append(out, *trx.Clone())
		}
	}
	return out, nil
}

func (ms *memStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	p, ok := ms.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", store.ErrProductNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (ms *memStore) GetProducts(ctx context.Context) ([]models.Product, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []models.Product
	for _, p := range ms.products {
		out = append(out, *p)
	}
	return out, nil
}

func (ms *memStore) BookingTrxIDExists(ctx context.Context, bookingTrxID string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, trx := range ms.trxs {
		if trx.BookingTrxID == bookingTrxID {
			return true, nil
		}
	}
	return false, nil
}

func (ms *memStore) InTx(ctx context.Context, fn func(store.UnitOfWork) error) error {
	uow := &memUnit{ms: ms}
	defer uow.releaseLocks()

	if err := fn(uow); err != nil {
		uow.rollback()
		return err
	}
	return nil
}

type memUnit struct {
	ms   *memStore
	held []*sync.Mutex
	undo []func()
}

func (u *memUnit) releaseLocks() {
	for i := len(u.held) - 1; i >= 0; i-- {
		u.held[i].Unlock()
	}
	u.held = nil
}

func (u *memUnit) rollback() {
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
}

func (u *memUnit) LockProduct(ctx context.Context, productID int64) (*models.Product, error) {
	lock := u.ms.rowLock(productID)
	lock.Lock()
	u.held = append(u.held, lock)

	u.ms.mu.Lock()
	defer u.ms.mu.Unlock()
	p, ok := u.ms.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", store.ErrProductNotFound, productID)
	}
	cp := *p
	return &cp, nil
}

func (u *memUnit) LockTransaction(ctx context.Context, id int64, withTrashed bool) (*models.Transaction, error) {
	lock := u.ms.trxLock(id)
	lock.Lock()
	u.held = append(u.held, lock)

	u.ms.mu.Lock()
	defer u.ms.mu.Unlock()
	trx, ok := u.ms.trxs[id]
	if !ok || (!withTrashed && trx.Trashed()) {
		return nil, fmt.Errorf("%w: %d", store.ErrTransactionNotFound, id)
	}
	return trx.Clone(), nil
}

func (u *memUnit) DecrementStock(ctx context.Context, productID int64, qty int) error {
	u.ms.mu.Lock()
	defer u.ms.mu.Unlock()
	p, ok := u.ms.products[productID]
	if !ok {
		return fmt.Errorf("%w: %d", store.ErrProductNotFound, productID)
	}
	if p.Stock < qty {
		return fmt.Errorf("%w: product %d", store.ErrInsufficientStock, productID)
	}
	p.Stock -= qty
	u.undo = append(u.undo, func() {
		u.ms.mu.Lock()
		defer u.ms.mu.Unlock()
		p.Stock += qty
	})
	return nil
}

func (u *memUnit) IncrementStock(ctx context.Context, productID int64, qty int) error {
	u.ms.mu.Lock()
	defer u.ms.mu.Unlock()
	p, ok := u.ms.products[productID]
	if !ok {
		return fmt.Errorf("%w: %d", store.ErrProductNotFound, productID)
	}
	p.Stock += qty
	u.undo = append(u.undo, func() {
		u.ms.mu.Lock()
		defer u.ms.mu.Unlock()
		p.Stock -= qty
	})
	return nil
}

func (u *memUnit) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	u.ms.mu.Lock()
	defer u.ms.mu.Unlock()
	u.ms.nextTrxID++
	t.ID = u.ms.nextTrxID
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	u.ms.trxs[t.ID] = t.Clone()

	id := t.ID
	u.undo = append(u.undo, func() {
		u.ms.mu.Lock()
		defer u.ms.mu.Unlock()
		delete(u.ms.trxs, id)
	})
	return nil
}

func (u *memUnit) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	u.ms.mu.Lock()
	defer u.ms.mu.Unlock()
	old, ok := u.ms.trxs[t.ID]
	if !ok || old.Trashed() {
		return fmt.Errorf("%w: %d", store.ErrTransactionNotFound, t.ID)
	}
	t.UpdatedAt = time.Now()
	u.ms.trxs[t.ID] = t.Clone()
	u.undo = append(u.undo, func() {
		u.ms.mu.Lock()
		defer u.ms.mu.Unlock()
		u.ms.trxs[t.ID] = old
	})
	return nil
}

func (u *memUnit) SoftDeleteTransaction(ctx context.Context, id int64) error {
	u.ms.mu.Lock()
	defer u.ms.mu.Unlock()
	trx, ok := u.ms.trxs[id]
	if !ok || trx.Trashed() {
		return fmt.Errorf("%w: %d", store.ErrTransactionNotFound, id)
	}
	now := time.Now()
	trx.DeletedAt = &now
	u.undo = append(u.undo, func() {
		u.ms.mu.Lock()
		defer u.ms.mu.Unlock()
		trx.DeletedAt = nil
	})
	return nil
}

func (u *memUnit) RestoreTransaction(ctx context.Context, id int64) error {
	u.ms.mu.Lock()
	defer u.ms.mu.Unlock()
	trx, ok := u.ms.trxs[id]
	if !ok || !trx.Trashed() {
		return fmt.Errorf("%w: %d", store.ErrTransactionNotFound, id)
	}
	deletedAt := trx.DeletedAt
	trx.DeletedAt = nil
	u.undo = append(u.undo, func() {
		u.ms.mu.Lock()
		defer u.ms.mu.Unlock()
		trx.DeletedAt = deletedAt
	})
	return nil
}

func (u *memUnit) ForceDeleteTransaction(ctx context.Context, id int64) error {
	u.ms.mu.Lock()
	defer u.ms.mu.Unlock()
	trx, ok := u.ms.trxs[id]
	if !ok {
		return fmt.Errorf("%w: %d", store.ErrTransactionNotFound, id)
	}
	delete(u.ms.trxs, id)
	u.undo = append(u.undo, func() {
		u.ms.mu.Lock()
		defer u.ms.mu.Unlock()
		u.ms.trxs[id] = trx
	})
	return nil
}
