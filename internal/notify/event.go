// Package notify defines the notification events exchanged over the
// message broker and the fixed routing table mapping each event to its
// title, message and target audiences.
package notify

import (
	"fmt"
	"strconv"
	"time"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
)

// Event types relayed to connected staff.
const (
	TypeNewOrder          = "new_order"
	TypeOrderUpdate       = "order_update"
	TypeTableOccupied     = "table_occupied"
	TypeTableFreed        = "table_freed"
	TypePaymentRegistered = "payment_registered"
	TypeUserCreated       = "user_created"
	TypeSystemBroadcast   = "system_broadcast"
)

// Notification is the payload delivered to listeners.  Entity references
// are carried as IDs so consumers can fetch details on demand without the
// relay guaranteeing anything beyond best-effort delivery.
type Notification struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	TableID   uint64    `json:"table_id,omitempty"`
	OrderID   uint64    `json:"order_id,omitempty"`
	PaymentID uint64    `json:"payment_id,omitempty"`
	Status    string    `json:"status,omitempty"`
}

// Audience routing keys.  Role audiences fan out to every connected staff
// member of a role; user audiences target a single staff member.
func RoleAudience(role string) string { return "role." + role }

func UserAudience(userID uint64) string { return "user." + strconv.FormatUint(userID, 10) }

// BroadcastAudiences addresses every role at once.  System broadcasts use
// it instead of enumerating connections.
func BroadcastAudiences() []string {
	return []string{RoleAudience(model.RoleGarcom), RoleAudience(model.RoleRecepcionista)}
}

// NewOrder builds the event emitted when a waiter submits an order.
// Receptionists are notified so the kitchen can start preparing.
func NewOrder(orderID uint64, tableNumber uint32, itemCount int) (Notification, []string) {
	return Notification{
		Type:      TypeNewOrder,
		Title:     "Novo Pedido!",
		Message:   fmt.Sprintf("Mesa %d - %d item(s)", tableNumber, itemCount),
		Timestamp: time.Now().UTC(),
		OrderID:   orderID,
	}, []string{RoleAudience(model.RoleRecepcionista)}
}

// OrderStatus builds the event for an order status change.  The routing
// table is fixed per status: preparando notifies the waiter, pronto the
// waiter and the receptionists, entregue the receptionists.  Statuses
// without an entry (pago, cancelado) produce no audiences; payment has
// its own event.
func OrderStatus(orderID uint64, tableNumber uint32, status string, waiterID uint64) (Notification, []string) {
	n := Notification{
		Type:      TypeOrderUpdate,
		Timestamp: time.Now().UTC(),
		OrderID:   orderID,
		Status:    status,
	}
	switch status {
	case model.OrderPreparando:
		n.Title = "Pedido em Preparo"
		n.Message = fmt.Sprintf("Mesa %d - Pedido sendo preparado", tableNumber)
		return n, []string{UserAudience(waiterID)}
	case model.OrderPronto:
		n.Title = "Pedido Pronto!"
		n.Message = fmt.Sprintf("Mesa %d - Pedido pronto para entrega", tableNumber)
		return n, []string{UserAudience(waiterID), RoleAudience(model.RoleRecepcionista)}
	case model.OrderEntregue:
		n.Title = "Pedido Entregue"
		n.Message = fmt.Sprintf("Mesa %d - Pedido entregue com sucesso", tableNumber)
		return n, []string{RoleAudience(model.RoleRecepcionista)}
	}
	return n, nil
}

// TableChange builds the occupancy-change event for a table.
func TableChange(tableID uint64, tableNumber uint32, occupied bool) (Notification, []string) {
	n := Notification{
		Timestamp: time.Now().UTC(),
		TableID:   tableID,
	}
	if occupied {
		n.Type = TypeTableOccupied
		n.Title = "Mesa Ocupada"
		n.Message = fmt.Sprintf("Mesa %d foi ocupada", tableNumber)
	} else {
		n.Type = TypeTableFreed
		n.Title = "Mesa Disponível"
		n.Message = fmt.Sprintf("Mesa %d está disponível", tableNumber)
	}
	return n, []string{RoleAudience(model.RoleRecepcionista)}
}

// PaymentRegistered builds the event emitted after a table settlement.
func PaymentRegistered(paymentID uint64, tableNumber uint32, totalAmount float64) (Notification, []string) {
	return Notification{
		Type:      TypePaymentRegistered,
		Title:     "Pagamento Recebido",
		Message:   fmt.Sprintf("Mesa %d - R$ %.2f", tableNumber, totalAmount),
		Timestamp: time.Now().UTC(),
		PaymentID: paymentID,
	}, []string{RoleAudience(model.RoleRecepcionista)}
}

// UserCreated builds the event emitted when a new staff account is added.
func UserCreated(username, role string) (Notification, []string) {
	label := "Recepcionista"
	if role == model.RoleGarcom {
		label = "Garçom"
	}
	return Notification{
		Type:      TypeUserCreated,
		Title:     "Novo Usuário",
		Message:   fmt.Sprintf("%s %s foi adicionado", label, username),
		Timestamp: time.Now().UTC(),
	}, []string{RoleAudience(model.RoleRecepcionista)}
}

// SystemBroadcast builds a receptionist-initiated announcement addressed
// to everyone.
func SystemBroadcast(message string) (Notification, []string) {
	return Notification{
		Type:      TypeSystemBroadcast,
		Title:     "Aviso do Sistema",
		Message:   message,
		Timestamp: time.Now().UTC(),
	}, BroadcastAudiences()
}
