package model

import "time"

// Order statuses.  An order only moves forward through the preparation
// stages; pago and cancelado are terminal.
const (
	OrderPreparando = "preparando"
	OrderPronto     = "pronto"
	OrderEntregue   = "entregue"
	OrderPago       = "pago"
	OrderCancelado  = "cancelado"
)

// CanTransition reports whether an order may move from one status to
// another.  Statuses only move forward through the preparation stages;
// cancellation is allowed while the order has not been delivered.
func CanTransition(from, to string) bool {
	switch from {
	case OrderPreparando:
		return to == OrderPronto || to == OrderCancelado
	case OrderPronto:
		return to == OrderEntregue || to == OrderCancelado
	case OrderEntregue:
		return to == OrderPago
	}
	return false
}

// Order represents one waiter-submitted cart of menu items tied to a
// table.  Orders accumulate per table during a dining session and are
// settled together by a single per-table payment.
//
// Fields:
//
//	ID            – primary key identifier.
//	TableID       – table the order belongs to.
//	WaiterID      – waiter who created the order.
//	Status        – preparation status (see constants above).
//	TotalAmount   – sum of item totals in reais.
//	Observations  – optional order-level notes (allergies etc.).
//	EstimatedTime – longest preparation time among the items, in minutes.
//	PaymentID     – settlement payment, set when the order is paid.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Order struct {
	ID            uint64    // orders.id
	TableID       uint64    // orders.table_id
	WaiterID      uint64    // orders.waiter_id
	Status        string    // orders.status
	TotalAmount   float64   // orders.total_amount
	Observations  *string   // orders.observations (nullable)
	EstimatedTime uint32    // orders.estimated_time
	PaymentID     *uint64   // orders.payment_id (nullable until settled)
	CreatedAt     time.Time // orders.created_at
	UpdatedAt     time.Time // orders.updated_at
	Items         []OrderItem
}

// OrderItem is a line item inside an order.  ProductName and UnitPrice
// are snapshots taken from the catalog when the order is created, so
// later price edits leave existing orders untouched.
//
// Fields:
//
//	ID           – primary key identifier.
//	OrderID      – owning order.
//	ProductID    – catalog product reference.
//	ProductName  – name snapshot at order time.
//	UnitPrice    – price snapshot at order time.
//	Quantity     – ordered quantity (positive).
//	TotalPrice   – UnitPrice × Quantity.
//	Observations – optional per-item notes ("sem gelo").
type OrderItem struct {
	ID           uint64  // order_items.id
	OrderID      uint64  // order_items.order_id
	ProductID    uint64  // order_items.product_id
	ProductName  string  // order_items.product_name
	UnitPrice    float64 // order_items.unit_price
	Quantity     uint32  // order_items.quantity
	TotalPrice   float64 // order_items.total_price
	Observations *string // order_items.observations (nullable)
}
