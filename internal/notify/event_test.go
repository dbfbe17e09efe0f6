package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

func TestAudienceKeys(t *testing.T) {
	assert.Equal(t, "role.garcom", RoleAudience(model.RoleGarcom))
	assert.Equal(t, "role.recepcionista", RoleAudience(model.RoleRecepcionista))
	assert.Equal(t, "user.42", UserAudience(42))
}

func TestNewOrderTargetsReceptionists(t *testing.T) {
	n, audiences := NewOrder(7, 3, 2)
	assert.Equal(t, TypeNewOrder, n.Type)
	assert.Equal(t, "Mesa 3 - 2 item(s)", n.Message)
	assert.Equal(t, uint64(7), n.OrderID)
	assert.Equal(t, []string{"role.recepcionista"}, audiences)
}

func TestOrderStatusRouting(t *testing.T) {
	tests := []struct {
		status    string
		audiences []string
	}{
		{model.OrderPreparando, []string{"user.5"}},
		{model.OrderPronto, []string{"user.5", "role.recepcionista"}},
		{model.OrderEntregue, []string{"role.recepcionista"}},
		{model.OrderPago, nil},
		{model.OrderCancelado, nil},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			n, audiences := OrderStatus(9, 2, tt.status, 5)
			assert.Equal(t, tt.audiences, audiences)
			assert.Equal(t, tt.status, n.Status)
			assert.Equal(t, uint64(9), n.OrderID)
		})
	}
}

func TestTableChange(t *testing.T) {
	n, audiences := TableChange(4, 12, true)
	assert.Equal(t, TypeTableOccupied, n.Type)
	assert.Equal(t, "Mesa 12 foi ocupada", n.Message)
	assert.Equal(t, []string{"role.recepcionista"}, audiences)

	n, _ = TableChange(4, 12, false)
	assert.Equal(t, TypeTableFreed, n.Type)
	assert.Equal(t, "Mesa 12 está disponível", n.Message)
}

func TestPaymentRegistered(t *testing.T) {
	n, audiences := PaymentRegistered(11, 4, 45.80)
	assert.Equal(t, TypePaymentRegistered, n.Type)
	assert.Equal(t, "Mesa 4 - R$ 45.80", n.Message)
	assert.Equal(t, uint64(11), n.PaymentID)
	assert.Equal(t, []string{"role.recepcionista"}, audiences)
}

func TestSystemBroadcastReachesAllRoles(t *testing.T) {
	n, audiences := SystemBroadcast("fechamos mais cedo hoje")
	assert.Equal(t, TypeSystemBroadcast, n.Type)
	assert.ElementsMatch(t, []string{"role.garcom", "role.recepcionista"}, audiences)
}

func TestFormatAuditLine(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	n := Notification{
		Type:      TypePaymentRegistered,
		Title:     "Pagamento Recebido",
		Message:   "Mesa 4 - R$ 45.80",
		Timestamp: ts,
		PaymentID: 11,
	}
	line := FormatAuditLine("role.recepcionista", n)
	assert.Contains(t, line, "[2025-06-01T12:30:00Z]")
	assert.Contains(t, line, "payment_registered")
	assert.Contains(t, line, "audience=role.recepcionista")
	assert.Contains(t, line, "payment_id=11")
	assert.True(t, line[len(line)-1] == '\n')
}
