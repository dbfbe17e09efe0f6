// Package billing holds the settlement rules for per-table payments:
// order total computation, table payability, payment-method validation and
// the advisory split-bill figure.  Everything here is pure so the rules can
// be exercised without a database.
package billing

import (
	"errors"
	"fmt"
	"math"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

// Tolerance is the accepted absolute difference between the sum of the
// payment-method amounts and the orders' total.
const Tolerance = 0.01

// ErrNoMethods is returned when a payment is submitted without methods.
var ErrNoMethods = errors.New("métodos de pagamento são obrigatórios")

// AmountMismatchError reports that the submitted methods do not add up to
// the table's total.  Both figures are carried so handlers can surface
// them verbatim to the caller.
type AmountMismatchError struct {
	MethodsTotal float64
	OrdersTotal  float64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("Total dos métodos de pagamento (%.2f) não confere com o valor total da mesa (%.2f)",
		e.MethodsTotal, e.OrdersTotal)
}

// InvalidMethodError reports an unrecognized payment-method type.
type InvalidMethodError struct {
	Type string
}

func (e *InvalidMethodError) Error() string {
	return fmt.Sprintf("Método de pagamento inválido: %s", e.Type)
}

// Round2 rounds a currency value to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ItemTotal computes a line item's total price from the unit-price
// snapshot and the quantity.
func ItemTotal(unitPrice float64, quantity uint32) float64 {
	return Round2(unitPrice * float64(quantity))
}

// OrderTotal computes an order's total amount from its item snapshots.
// No taxes, discounts or rounding rules beyond 2-decimal currency apply.
func OrderTotal(items []model.OrderItem) float64 {
	total := 0.0
	for _, it := range items {
		total += it.TotalPrice
	}
	return Round2(total)
}

// OrdersTotal sums the total amounts of a set of orders.
func OrdersTotal(orders []model.Order) float64 {
	total := 0.0
	for _, o := range orders {
		total += o.TotalAmount
	}
	return Round2(total)
}

// CanPay decides whether a table is eligible for settlement.  A table can
// pay iff it has at least one delivered order, no non-cancelled order is
// still in preparation stages, and no active payment exists.  All-or
// nothing: there is no partial settlement of a subset of orders.  A table
// with zero orders is never payable.
func CanPay(orders []model.Order, hasActivePayment bool) bool {
	if hasActivePayment {
		return false
	}
	delivered := 0
	for _, o := range orders {
		switch o.Status {
		case model.OrderEntregue:
			delivered++
		case model.OrderPreparando, model.OrderPronto:
			return false
		}
	}
	return delivered > 0
}

// ValidMethodType reports whether t is a recognized payment-method type.
func ValidMethodType(t string) bool {
	for _, v := range model.PaymentMethodTypes {
		if v == t {
			return true
		}
	}
	return false
}

// MethodsTotal sums the amounts of the submitted payment methods.
func MethodsTotal(methods []model.PaymentMethod) float64 {
	total := 0.0
	for _, m := range methods {
		total += m.Amount
	}
	return Round2(total)
}

// ValidateMethods checks a split payment against the orders' total.  Every
// method must carry a recognized type and a positive amount, and the sum
// of the amounts must match total within Tolerance.
func ValidateMethods(methods []model.PaymentMethod, total float64) error {
	if len(methods) == 0 {
		return ErrNoMethods
	}
	for _, m := range methods {
		if m.Type == "" || m.Amount <= 0 {
			return errors.New("todos os métodos de pagamento devem ter tipo e valor válidos")
		}
		if !ValidMethodType(m.Type) {
			return &InvalidMethodError{Type: m.Type}
		}
	}
	mt := MethodsTotal(methods)
	if math.Abs(mt-total) > Tolerance {
		return &AmountMismatchError{MethodsTotal: mt, OrdersTotal: total}
	}
	return nil
}

// SplitBill computes the advisory per-person amount when a bill including
// an optional tip is divided among people patrons.  The figure is
// presentation-only: payment validation compares the raw order totals
// against the submitted methods, never against this value.
func SplitBill(total, tip float64, people int) float64 {
	if people < 1 {
		people = 1
	}
	return Round2((total + tip) / float64(people))
}

// CashChange computes the change due across the cash methods of a split
// payment: the excess of tendered cash over each method's amount.  Methods
// without a received amount contribute nothing.
func CashChange(methods []model.PaymentMethod) float64 {
	change := 0.0
	for _, m := range methods {
		if m.Type != "dinheiro" || m.ReceivedAmount == nil {
			continue
		}
		if d := *m.ReceivedAmount - m.Amount; d > 0 {
			change += d
		}
	}
	return Round2(change)
}
