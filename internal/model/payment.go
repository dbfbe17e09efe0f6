package model

import "time"

// Payment statuses.  A table carries at most one payment that is not
// cancelado.
const (
	PaymentPendente  = "pendente"
	PaymentPago      = "pago"
	PaymentCancelado = "cancelado"
)

// Recognized payment-method types.
var PaymentMethodTypes = []string{
	"dinheiro",
	"cartao_credito",
	"cartao_debito",
	"pix",
	"outro",
}

// Payment records the settlement of all delivered orders of a table in a
// single event.  The amount may be split across several payment methods;
// the sum of the method amounts must match the orders' total within a
// 0.01 tolerance.  Payments are immutable after creation.
//
// Fields:
//
//	ID                   – primary key identifier.
//	TableID              – table being settled.
//	TableIdentification  – snapshot of the table's party label at payment time.
//	TotalAmount          – sum of the settled orders' totals in reais.
//	Status               – pendente, pago or cancelado.
//	PaidAt               – when the payment was registered.
//	ChangeAmount         – change due on cash methods, zero otherwise.
//	CreatedAt            – creation timestamp.
type Payment struct {
	ID                  uint64    // payments.id
	TableID             uint64    // payments.table_id
	TableIdentification *string   // payments.table_identification (nullable)
	TotalAmount         float64   // payments.total_amount
	Status              string    // payments.status
	PaidAt              time.Time // payments.paid_at
	ChangeAmount        float64   // payments.change_amount
	CreatedAt           time.Time // payments.created_at
	Methods             []PaymentMethod
	OrderIDs            []uint64
}

// PaymentMethod is one entry of a split payment.
//
// Fields:
//
//	ID             – primary key identifier.
//	PaymentID      – owning payment.
//	Type           – method type (see PaymentMethodTypes).
//	Amount         – amount settled through this method (positive).
//	Description    – optional note ("Cartão Visa terminado em 1234").
//	ReceivedAmount – cash tendered for dinheiro methods (nil otherwise).
type PaymentMethod struct {
	ID             uint64   // payment_methods.id
	PaymentID      uint64   // payment_methods.payment_id
	Type           string   // payment_methods.type
	Amount         float64  // payment_methods.amount
	Description    *string  // payment_methods.description (nullable)
	ReceivedAmount *float64 // payment_methods.received_amount (nullable)
}
