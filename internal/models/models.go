package models

import "time"

// Product represents a catalog product with its sellable stock
type Product struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Slug       string     `db:"slug" json:"slug"`
	Price      int64      `db:"price" json:"price"`
	Stock      int        `db:"stock" json:"stock"`
	IsPopular  bool       `db:"is_popular" json:"is_popular"`
	CategoryID int64      `db:"category_id" json:"category_id"`
	BrandID    int64      `db:"brand_id" json:"brand_id"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Transaction represents a purchase transaction recorded by the back office.
// Once IsPaid is set the quantity is frozen and the paid flag never reverts.
type Transaction struct {
	ID               int64      `db:"id" json:"id"`
	BookingTrxID     string     `db:"booking_trx_id" json:"booking_trx_id"`
	Name             string     `db:"name" json:"name"`
	Phone            string     `db:"phone" json:"phone"`
	Email            string     `db:"email" json:"email"`
	City             string     `db:"city" json:"city"`
	PostCode         string     `db:"post_code" json:"post_code"`
	Address          string     `db:"address" json:"address"`
	ProductID        int64      `db:"product_id" json:"product_id"`
	ShoeSize         string     `db:"shoe_size" json:"shoe_size"`
	Quantity         int        `db:"quantity" json:"quantity"`
	SubTotalAmount   int64      `db:"sub_total_amount" json:"sub_total_amount"`
	DiscountAmount   int64      `db:"discount_amount" json:"discount_amount"`
	GrandTotalAmount int64      `db:"grand_total_amount" json:"grand_total_amount"`
	PromoCodeID      *int64     `db:"promo_code_id" json:"promo_code_id,omitempty"`
	IsPaid           bool       `db:"is_paid" json:"is_paid"`
	Proof            *string    `db:"proof" json:"proof,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// HasProof reports whether a proof of payment is attached.
func (t *Transaction) HasProof() bool {
	return t.Proof != nil && *t.Proof != ""
}

// Trashed reports whether the transaction is soft-deleted.
func (t *Transaction) Trashed() bool {
	return t.DeletedAt != nil
}

// Clone returns a copy of the transaction for use as a proposed snapshot.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.Proof != nil {
		proof := *t.Proof
		c.Proof = &proof
	}
	if t.PromoCodeID != nil {
		id := *t.PromoCodeID
		c.PromoCodeID = &id
	}
	if t.DeletedAt != nil {
		ts := *t.DeletedAt
		c.DeletedAt = &ts
	}
	return &c
}
