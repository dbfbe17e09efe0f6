package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marcussviniciusa/recantoverdev5/internal/billing"
	"github.com/marcussviniciusa/recantoverdev5/internal/model"
	"github.com/marcussviniciusa/recantoverdev5/internal/notify"
	"github.com/marcussviniciusa/recantoverdev5/internal/repository"
)

// OrderHandler exposes the order lifecycle endpoints.
type OrderHandler struct {
	Orders   *repository.OrderRepo
	Tables   *repository.TableRepo
	Products *repository.ProductRepo
	Notifier *notify.Publisher
}

func NewOrderHandler(o *repository.OrderRepo, t *repository.TableRepo, p *repository.ProductRepo, n *notify.Publisher) *OrderHandler {
	return &OrderHandler{Orders: o, Tables: t, Products: p, Notifier: n}
}

type orderItemReq struct {
	ProductID    uint64  `json:"productId"`
	Quantity     uint32  `json:"quantity"`
	Observations *string `json:"observations"`
}

type orderCreateReq struct {
	TableID      uint64         `json:"tableId"`
	Items        []orderItemReq `json:"items"`
	Observations *string        `json:"observations"`
}

type orderStatusReq struct {
	Status string `json:"status"`
}

type orderItemResp struct {
	ProductID    uint64  `json:"productId"`
	ProductName  string  `json:"productName"`
	UnitPrice    float64 `json:"unitPrice"`
	Quantity     uint32  `json:"quantity"`
	TotalPrice   float64 `json:"totalPrice"`
	Observations *string `json:"observations"`
}

type orderResp struct {
	ID            uint64          `json:"id"`
	TableID       uint64          `json:"tableId"`
	WaiterID      uint64          `json:"waiterId"`
	Status        string          `json:"status"`
	TotalAmount   float64         `json:"totalAmount"`
	Observations  *string         `json:"observations"`
	EstimatedTime uint32          `json:"estimatedTime"`
	PaymentID     *uint64         `json:"paymentId"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []orderItemResp `json:"items"`
}

func toOrderResp(o *model.Order) orderResp {
	items := make([]orderItemResp, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResp{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			UnitPrice:    it.UnitPrice,
			Quantity:     it.Quantity,
			TotalPrice:   it.TotalPrice,
			Observations: it.Observations,
		})
	}
	return orderResp{
		ID:            o.ID,
		TableID:       o.TableID,
		WaiterID:      o.WaiterID,
		Status:        o.Status,
		TotalAmount:   o.TotalAmount,
		Observations:  o.Observations,
		EstimatedTime: o.EstimatedTime,
		PaymentID:     o.PaymentID,
		CreatedAt:     o.CreatedAt,
		Items:         items,
	}
}

// Create submits a new order for an occupied table. Product name and
// price are snapshotted from the catalog so later menu edits never
// change a submitted order.
func (h *OrderHandler) Create(c echo.Context) error {
	waiterID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Não autorizado"})
	}

	var req orderCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Dados inválidos"})
	}
	if req.TableID == 0 || len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Mesa e itens são obrigatórios"})
	}
	ids := make([]uint64, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == 0 || it.Quantity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Item com produto ou quantidade inválida"})
		}
		ids = append(ids, it.ProductID)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	table, err := h.Tables.GetByID(ctx, req.TableID)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Mesa não encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar mesa"})
	}
	if table.Status != model.TableOcupada {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Mesa não está ocupada"})
	}

	catalog, err := h.Products.GetAvailableByIDs(ctx, ids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar produtos"})
	}

	order := &model.Order{
		TableID:      req.TableID,
		WaiterID:     waiterID,
		Status:       model.OrderPreparando,
		Observations: req.Observations,
	}
	for _, it := range req.Items {
		p, ok := catalog[it.ProductID]
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Produto indisponível ou inexistente"})
		}
		order.Items = append(order.Items, model.OrderItem{
			ProductID:    p.ID,
			ProductName:  p.Name,
			UnitPrice:    p.Price,
			Quantity:     it.Quantity,
			TotalPrice:   billing.ItemTotal(p.Price, it.Quantity),
			Observations: it.Observations,
		})
		if p.PreparationTime > order.EstimatedTime {
			order.EstimatedTime = p.PreparationTime
		}
	}
	order.TotalAmount = billing.OrderTotal(order.Items)

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao iniciar transação"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Orders.CreateTx(ctx, tx, order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao criar pedido"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao confirmar pedido"})
	}
	committed = true

	n, audiences := notify.NewOrder(order.ID, table.Number, len(order.Items))
	h.Notifier.Publish(ctx, n, audiences)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"order": toOrderResp(order)}})
}

// UpdateStatus advances an order through its lifecycle. Transitions are
// forward-only; `pronto` is set by the kitchen side (recepcionista) and
// `entregue` by the waiter. `pago` is reserved for the payment endpoint.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "ID inválido"})
	}
	var req orderStatusReq
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Status é obrigatório"})
	}
	if req.Status == model.OrderPago {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Pagamento é registrado pelo endpoint de pagamentos"})
	}

	role := getRole(c)
	switch req.Status {
	case model.OrderPronto:
		if role != model.RoleRecepcionista {
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "Apenas a recepção marca pedidos como prontos"})
		}
	case model.OrderEntregue:
		if role != model.RoleGarcom {
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "Apenas garçons marcam pedidos como entregues"})
		}
	case model.OrderCancelado:
		// either role may cancel while the kitchen still holds the order
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Status de pedido inválido"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Pedido não encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar pedido"})
	}
	if !model.CanTransition(order.Status, req.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "Transição de status inválida"})
	}

	// Compare-and-swap so two concurrent updates cannot both win.
	if err := h.Orders.UpdateStatusCAS(ctx, id, order.Status, req.Status); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "Pedido foi alterado por outra operação"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao atualizar pedido"})
	}
	order.Status = req.Status

	if table, terr := h.Tables.GetByID(ctx, order.TableID); terr == nil {
		n, audiences := notify.OrderStatus(order.ID, table.Number, order.Status, order.WaiterID)
		if len(audiences) > 0 {
			h.Notifier.Publish(ctx, n, audiences)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"order": toOrderResp(order)}})
}

// List returns orders with optional filters. Waiters only ever see their
// own orders; receptionists see everything.
func (h *OrderHandler) List(c echo.Context) error {
	var f repository.OrderFilter
	if raw := c.QueryParam("tableId"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Filtro tableId inválido"})
		}
		f.TableID = v
	}
	if s := c.QueryParam("status"); s != "" {
		f.Status = s
	}
	if getRole(c) == model.RoleGarcom {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Não autorizado"})
		}
		f.WaiterID = uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	orders, err := h.Orders.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao listar pedidos"})
	}
	out := make([]orderResp, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResp(&orders[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"orders": out}})
}

// Get returns one order. Waiters may only fetch their own orders.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "ID inválido"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Pedido não encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar pedido"})
	}
	if getRole(c) == model.RoleGarcom {
		uid, uerr := getUserID(c)
		if uerr != nil || order.WaiterID != uid {
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "Acesso negado"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"order": toOrderResp(order)}})
}
