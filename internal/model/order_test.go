package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderPreparando, OrderPronto, true},
		{OrderPreparando, OrderCancelado, true},
		{OrderPronto, OrderEntregue, true},
		{OrderPronto, OrderCancelado, true},
		{OrderEntregue, OrderPago, true},

		// skipping stages is not allowed
		{OrderPreparando, OrderEntregue, false},
		{OrderPreparando, OrderPago, false},
		{OrderPronto, OrderPago, false},

		// backward moves are rejected
		{OrderPronto, OrderPreparando, false},
		{OrderEntregue, OrderPronto, false},
		{OrderEntregue, OrderPreparando, false},

		// terminal states
		{OrderPago, OrderEntregue, false},
		{OrderPago, OrderCancelado, false},
		{OrderCancelado, OrderPreparando, false},
		{OrderCancelado, OrderPronto, false},

		// delivered orders cannot be cancelled, only paid
		{OrderEntregue, OrderCancelado, false},

		// no-op and unknown statuses
		{OrderPreparando, OrderPreparando, false},
		{"desconhecido", OrderPronto, false},
		{OrderPreparando, "desconhecido", false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
