// Package store is the local durable adapter each node keeps behind the
// coordination core: three typed tables, a write-ahead log, and periodic
// snapshots. Every mutation that reaches it has already been decided by
// a quorum round — Apply never rejects on disagreement, only when the
// decided command fails a local check: a uniqueness constraint, an
// unknown customer or article, a malformed field, an inactive customer
// or an out-of-stock article.
package store

import "time"

// CustomerStatus mirrors the Activo/Inactivo flag of the original
// schema. It is not a field of any wire command; activate_cliente and
// deactivate_cliente set it.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// StockStatus mirrors the Disponible/Agotado flag of the original
// schema. It is not a field of any wire command; the article and
// shipping-guide commands set it.
type StockStatus string

const (
	StockAvailable  StockStatus = "available"
	StockOutOfStock StockStatus = "out_of_stock"
)

// Customer is a row of the customers table, keyed by surrogate ID with a
// unique username and card number.
type Customer struct {
	ID       int64          `json:"id"`
	Username string         `json:"username" validate:"required"`
	Name     string         `json:"name" validate:"required"`
	Address  string         `json:"address" validate:"required"`
	Card     string         `json:"card" validate:"required,numeric"`
	Status   CustomerStatus `json:"status"`
}

// Article is a row of the articles table, keyed by surrogate ID with a
// unique product code. Stock is a two-state flag, not a count: a
// shipping guide can only be created against an Available article, and
// creating one flips it straight to OutOfStock; RestockArticle is the
// only way back to Available.
type Article struct {
	ID       int64       `json:"id"`
	Code     string      `json:"code" validate:"required"`
	Name     string      `json:"name" validate:"required"`
	Price    float64     `json:"price" validate:"gt=0"`
	BranchID string      `json:"branch_id" validate:"required"`
	Status   StockStatus `json:"status"`
}

// ShippingGuide is a row of the shipping guides table: one article sent
// to one customer from one branch, with a unique serial number. Amount
// is the total purchase amount, not a unit count.
type ShippingGuide struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id" validate:"required"`
	ArticleID  int64     `json:"article_id" validate:"required"`
	BranchID   string    `json:"branch_id" validate:"required"`
	Serial     string    `json:"serial" validate:"required"`
	Amount     float64   `json:"amount" validate:"gt=0"`
	PurchaseTS time.Time `json:"purchase_ts"`
}
