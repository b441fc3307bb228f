package worker

import (
	"context"
	"errors"
	"log"

	"storefront-admin/internal/broker"
	"storefront-admin/internal/redisclient"
	"storefront-admin/internal/store"

	"github.com/segmentio/kafka-go"
)

// StockCacheWorker consumes transaction lifecycle events and refreshes the
// Redis stock mirror for the affected product from the database.
type StockCacheWorker struct {
	consumer *broker.Consumer
	store    *store.Store
	cache    *redisclient.Client
}

// NewStockCacheWorker creates a new stock cache worker
func NewStockCacheWorker(consumer *broker.Consumer, st *store.Store, cache *redisclient.Client) *StockCacheWorker {
	return &StockCacheWorker{
		consumer: consumer,
		store:    st,
		cache:    cache,
	}
}

// Start starts the worker
func (w *StockCacheWorker) Start(ctx context.Context) error {
	log.Println("Starting stock cache worker...")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *StockCacheWorker) Stop() error {
	log.Println("Stopping stock cache worker...")
	return w.consumer.Close()
}

func (w *StockCacheWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	event, err := broker.DecodeTransactionEvent(msg)
	if err != nil {
		log.Printf("Dropping undecodable message: %v", err)
		return nil
	}

	if event.StockDelta == 0 {
		return nil
	}

	product, err := w.store.GetProduct(ctx, event.ProductID)
	if errors.Is(err, store.ErrProductNotFound) {
		return w.cache.Invalidate(ctx, event.ProductID)
	}
	if err != nil {
		return err
	}

	if err := w.cache.SetStock(ctx, product.ID, product.Stock); err != nil {
		log.Printf("Failed to refresh stock cache for product %d: %v", product.ID, err)
		return err
	}

	log.Printf("Stock cache refreshed: product=%d, stock=%d", product.ID, product.Stock)
	return nil
}

// WarmUp primes the stock cache for all products
func (w *StockCacheWorker) WarmUp(ctx context.Context) error {
	products, err := w.store.GetProducts(ctx)
	if err != nil {
		return err
	}

	for _, product := range products {
		if err := w.cache.SetStock(ctx, product.ID, product.Stock); err != nil {
			log.Printf("Failed to warm stock cache for product %d: %v", product.ID, err)
		}
	}

	log.Printf("Stock cache warmed: %d products", len(products))
	return nil
}
