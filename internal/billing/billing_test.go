package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

func deliveredOrders() []model.Order {
	return []model.Order{
		{ID: 1, Status: model.OrderEntregue, TotalAmount: 25.80},
		{ID: 2, Status: model.OrderEntregue, TotalAmount: 20.00},
	}
}

func TestItemTotal(t *testing.T) {
	assert.Equal(t, 25.80, ItemTotal(12.90, 2))
	assert.Equal(t, 0.30, ItemTotal(0.10, 3))
	assert.Equal(t, 0.0, ItemTotal(9.99, 0))
}

func TestOrderTotalSumsItemSnapshots(t *testing.T) {
	items := []model.OrderItem{
		{UnitPrice: 12.90, Quantity: 2, TotalPrice: 25.80},
		{UnitPrice: 20.00, Quantity: 1, TotalPrice: 20.00},
	}
	assert.Equal(t, 45.80, OrderTotal(items))
	assert.Equal(t, 0.0, OrderTotal(nil))
}

func TestOrdersTotal(t *testing.T) {
	assert.Equal(t, 45.80, OrdersTotal(deliveredOrders()))
}

func TestCanPay(t *testing.T) {
	tests := []struct {
		name          string
		orders        []model.Order
		activePayment bool
		want          bool
	}{
		{
			name:   "all delivered",
			orders: deliveredOrders(),
			want:   true,
		},
		{
			name:          "active payment blocks",
			orders:        deliveredOrders(),
			activePayment: true,
			want:          false,
		},
		{
			name: "order still preparing",
			orders: []model.Order{
				{Status: model.OrderEntregue, TotalAmount: 25.80},
				{Status: model.OrderPreparando, TotalAmount: 20.00},
			},
			want: false,
		},
		{
			name: "order ready but not delivered",
			orders: []model.Order{
				{Status: model.OrderEntregue, TotalAmount: 25.80},
				{Status: model.OrderPronto, TotalAmount: 20.00},
			},
			want: false,
		},
		{
			name: "cancelled orders are ignored",
			orders: []model.Order{
				{Status: model.OrderEntregue, TotalAmount: 25.80},
				{Status: model.OrderCancelado, TotalAmount: 20.00},
			},
			want: true,
		},
		{
			name: "only paid orders",
			orders: []model.Order{
				{Status: model.OrderPago, TotalAmount: 25.80},
			},
			want: false,
		},
		{
			name:   "zero orders never payable",
			orders: nil,
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPay(tt.orders, tt.activePayment))
		})
	}
}

func TestValidateMethodsMatch(t *testing.T) {
	methods := []model.PaymentMethod{
		{Type: "dinheiro", Amount: 25.80},
		{Type: "pix", Amount: 20.00},
	}
	assert.NoError(t, ValidateMethods(methods, 45.80))
}

func TestValidateMethodsWithinTolerance(t *testing.T) {
	methods := []model.PaymentMethod{{Type: "cartao_credito", Amount: 45.79}}
	assert.NoError(t, ValidateMethods(methods, 45.80))
}

func TestValidateMethodsMismatch(t *testing.T) {
	methods := []model.PaymentMethod{{Type: "dinheiro", Amount: 45.00}}
	err := ValidateMethods(methods, 45.80)
	require.Error(t, err)

	var mismatch *AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 45.00, mismatch.MethodsTotal)
	assert.Equal(t, 45.80, mismatch.OrdersTotal)
	assert.Equal(t,
		"Total dos métodos de pagamento (45.00) não confere com o valor total da mesa (45.80)",
		err.Error())
}

func TestValidateMethodsRejectsBadInput(t *testing.T) {
	assert.ErrorIs(t, ValidateMethods(nil, 10), ErrNoMethods)

	err := ValidateMethods([]model.PaymentMethod{{Type: "cheque", Amount: 10}}, 10)
	var invalid *InvalidMethodError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "cheque", invalid.Type)

	assert.Error(t, ValidateMethods([]model.PaymentMethod{{Type: "pix", Amount: 0}}, 0))
	assert.Error(t, ValidateMethods([]model.PaymentMethod{{Type: "", Amount: 10}}, 10))
}

// The per-person split is advisory only: multiplying it back by the head
// count does not necessarily reproduce total+tip, and settlement
// validation compares methods against the raw order totals, never against
// the split figure.
func TestSplitBillIsAdvisoryOnly(t *testing.T) {
	total := OrdersTotal(deliveredOrders()) // 45.80
	perPerson := SplitBill(total, 5.00, 3)
	assert.Equal(t, 16.93, perPerson)

	// Rounding loses a cent against the tipped bill.
	assert.NotEqual(t, Round2(total+5.00), Round2(perPerson*3))

	// Methods summing to the split-derived figure fail validation...
	split := []model.PaymentMethod{
		{Type: "pix", Amount: perPerson},
		{Type: "pix", Amount: perPerson},
		{Type: "pix", Amount: perPerson},
	}
	assert.Error(t, ValidateMethods(split, total))

	// ...while methods summing to the raw order total pass.
	exact := []model.PaymentMethod{{Type: "pix", Amount: total}}
	assert.NoError(t, ValidateMethods(exact, total))
}

func TestSplitBillClampsPeople(t *testing.T) {
	assert.Equal(t, 50.80, SplitBill(45.80, 5.00, 0))
	assert.Equal(t, 45.80, SplitBill(45.80, 0, 1))
}

func TestCashChange(t *testing.T) {
	fifty := 50.0
	ten := 10.0
	methods := []model.PaymentMethod{
		{Type: "dinheiro", Amount: 45.80, ReceivedAmount: &fifty},
		{Type: "pix", Amount: 10.00, ReceivedAmount: &ten}, // ignored: not cash
		{Type: "dinheiro", Amount: 5.00},                   // ignored: nothing tendered
	}
	assert.Equal(t, 4.20, CashChange(methods))
	assert.Equal(t, 0.0, CashChange(nil))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 16.93, Round2(16.933333))
	assert.Equal(t, 16.94, Round2(16.936))
	assert.Equal(t, 0.0, Round2(0))
}
