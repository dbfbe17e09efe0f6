package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marcussviniciusa/recantoverdev5/internal/billing"
	"github.com/marcussviniciusa/recantoverdev5/internal/model"
	"github.com/marcussviniciusa/recantoverdev5/internal/notify"
	"github.com/marcussviniciusa/recantoverdev5/internal/repository"
)

// PaymentHandler exposes the per-table settlement endpoints.  A payment
// always covers every delivered order of a table at once; settling a
// subset is not supported.
type PaymentHandler struct {
	Payments *repository.PaymentRepo
	Orders   *repository.OrderRepo
	Tables   *repository.TableRepo
	Notifier *notify.Publisher
}

func NewPaymentHandler(p *repository.PaymentRepo, o *repository.OrderRepo, t *repository.TableRepo, n *notify.Publisher) *PaymentHandler {
	return &PaymentHandler{Payments: p, Orders: o, Tables: t, Notifier: n}
}

type paymentMethodReq struct {
	Type           string   `json:"type"`
	Amount         float64  `json:"amount"`
	Description    *string  `json:"description"`
	ReceivedAmount *float64 `json:"receivedAmount"`
}

type paymentCreateReq struct {
	PaymentMethods []paymentMethodReq `json:"paymentMethods"`
}

type paymentMethodResp struct {
	Type           string   `json:"type"`
	Amount         float64  `json:"amount"`
	Description    *string  `json:"description"`
	ReceivedAmount *float64 `json:"receivedAmount,omitempty"`
}

type paymentResp struct {
	ID                  uint64              `json:"id"`
	TableID             uint64              `json:"tableId"`
	TableIdentification *string             `json:"tableIdentification"`
	TotalAmount         float64             `json:"totalAmount"`
	Status              string              `json:"status"`
	PaidAt              time.Time           `json:"paidAt"`
	ChangeAmount        float64             `json:"changeAmount"`
	PaymentMethods      []paymentMethodResp `json:"paymentMethods"`
	OrderIDs            []uint64            `json:"orderIds"`
}

func toPaymentResp(p *model.Payment) paymentResp {
	methods := make([]paymentMethodResp, 0, len(p.Methods))
	for _, m := range p.Methods {
		methods = append(methods, paymentMethodResp{
			Type:           m.Type,
			Amount:         m.Amount,
			Description:    m.Description,
			ReceivedAmount: m.ReceivedAmount,
		})
	}
	return paymentResp{
		ID:                  p.ID,
		TableID:             p.TableID,
		TableIdentification: p.TableIdentification,
		TotalAmount:         p.TotalAmount,
		Status:              p.Status,
		PaidAt:              p.PaidAt,
		ChangeAmount:        p.ChangeAmount,
		PaymentMethods:      methods,
		OrderIDs:            p.OrderIDs,
	}
}

// RegisterForTable settles every delivered order of a table in one
// payment.  The whole flow runs inside a single transaction: the table
// row and its orders are locked first, so a racing status change or a
// second settlement attempt blocks until this one commits and then fails
// its own checks.
func (h *PaymentHandler) RegisterForTable(c echo.Context) error {
	tableID, err := strconv.ParseUint(c.Param("tableId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "ID de mesa inválido"})
	}
	var req paymentCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Dados inválidos"})
	}

	methods := make([]model.PaymentMethod, 0, len(req.PaymentMethods))
	for _, m := range req.PaymentMethods {
		methods = append(methods, model.PaymentMethod{
			Type:           m.Type,
			Amount:         m.Amount,
			Description:    m.Description,
			ReceivedAmount: m.ReceivedAmount,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tx, err := h.Tables.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao iniciar transação"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	table, err := h.Tables.GetByIDForUpdateTx(ctx, tx, tableID)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Mesa não encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar mesa"})
	}

	delivered, err := h.Orders.ListByTableForUpdateTx(ctx, tx, tableID, model.OrderEntregue)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar pedidos"})
	}
	if len(delivered) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Não há pedidos entregues para esta mesa"})
	}

	active, err := h.Payments.ActiveExistsTx(ctx, tx, tableID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar pagamentos"})
	}
	if active {
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "Já existe um pagamento registrado para esta mesa"})
	}

	total := billing.OrdersTotal(delivered)
	if err := billing.ValidateMethods(methods, total); err != nil {
		var mismatch *billing.AmountMismatchError
		if errors.As(err, &mismatch) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success":      false,
				"error":        mismatch.Error(),
				"methodsTotal": mismatch.MethodsTotal,
				"ordersTotal":  mismatch.OrdersTotal,
			})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error()})
	}

	orderIDs := make([]uint64, 0, len(delivered))
	for _, o := range delivered {
		orderIDs = append(orderIDs, o.ID)
	}

	payment := &model.Payment{
		TableID:             tableID,
		TableIdentification: table.Identification,
		TotalAmount:         total,
		Status:              model.PaymentPago,
		PaidAt:              time.Now().UTC(),
		ChangeAmount:        billing.CashChange(methods),
		Methods:             methods,
		OrderIDs:            orderIDs,
	}
	if err := h.Payments.CreateTx(ctx, tx, payment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao registrar pagamento"})
	}

	flipped, err := h.Orders.MarkPaidTx(ctx, tx, orderIDs, payment.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao atualizar pedidos"})
	}
	if flipped != int64(len(orderIDs)) {
		// An order changed status despite the row locks; abort rather
		// than settle a moving target.
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "Pedidos foram alterados durante o pagamento"})
	}

	if err := h.Tables.FreeTx(ctx, tx, tableID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao liberar mesa"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao confirmar pagamento"})
	}
	committed = true

	n, audiences := notify.PaymentRegistered(payment.ID, table.Number, payment.TotalAmount)
	h.Notifier.Publish(ctx, n, audiences)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"payment": toPaymentResp(payment)}})
}

// BillForTable returns the running bill of a table: its orders grouped by
// status, the settlement totals and, on request, an advisory per-person
// split (?people=N&tip=X). The split figure is informational only and is
// never enforced by RegisterForTable.
func (h *PaymentHandler) BillForTable(c echo.Context) error {
	tableID, err := strconv.ParseUint(c.Param("tableId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "ID de mesa inválido"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	table, err := h.Tables.GetByID(ctx, tableID)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Mesa não encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar mesa"})
	}

	orders, err := h.Orders.List(ctx, repository.OrderFilter{TableID: tableID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar pedidos"})
	}

	existing, err := h.Payments.GetActiveByTable(ctx, tableID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar pagamentos"})
	}

	byStatus := map[string][]orderResp{}
	var totalAmount, unpaidAmount, paidAmount float64
	totalOrders := 0
	for i := range orders {
		o := &orders[i]
		byStatus[o.Status] = append(byStatus[o.Status], toOrderResp(o))
		if o.Status == model.OrderCancelado {
			continue
		}
		totalOrders++
		totalAmount += o.TotalAmount
		switch o.Status {
		case model.OrderPago:
			paidAmount += o.TotalAmount
		case model.OrderEntregue:
			unpaidAmount += o.TotalAmount
		}
	}
	totalAmount = billing.Round2(totalAmount)
	unpaidAmount = billing.Round2(unpaidAmount)
	paidAmount = billing.Round2(paidAmount)

	data := echo.Map{
		"table":          toTableResp(table),
		"ordersByStatus": byStatus,
		"summary": echo.Map{
			"totalOrders":  totalOrders,
			"totalAmount":  totalAmount,
			"unpaidAmount": unpaidAmount,
			"paidAmount":   paidAmount,
			"canPayNow":    billing.CanPay(orders, existing != nil),
		},
	}
	if existing != nil {
		data["existingPayment"] = toPaymentResp(existing)
	}

	if raw := c.QueryParam("people"); raw != "" {
		people, perr := strconv.Atoi(raw)
		if perr != nil || people < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Parâmetro people inválido"})
		}
		tip := 0.0
		if t := c.QueryParam("tip"); t != "" {
			tip, perr = strconv.ParseFloat(t, 64)
			if perr != nil || tip < 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Parâmetro tip inválido"})
			}
		}
		data["split"] = echo.Map{
			"people":    people,
			"tip":       tip,
			"perPerson": billing.SplitBill(unpaidAmount, tip, people),
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

// LegacyCreate answers the retired generic payments endpoint.  Callers
// are pointed at the per-table settlement route.
func (h *PaymentHandler) LegacyCreate(c echo.Context) error {
	return c.JSON(http.StatusGone, echo.Map{
		"success":     false,
		"error":       "Este endpoint foi descontinuado. Registre pagamentos por mesa.",
		"newEndpoint": "/api/payments/mesa/:tableId",
	})
}

// List returns settled payments, newest first, with optional
// startDate/endDate (YYYY-MM-DD, inclusive) and status filters.
// Recepcionista only.
func (h *PaymentHandler) List(c echo.Context) error {
	var f repository.PaymentFilter
	start := c.QueryParam("startDate")
	end := c.QueryParam("endDate")
	if (start == "") != (end == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "startDate e endDate devem ser informados juntos"})
	}
	if start != "" {
		s, err := time.Parse("2006-01-02", start)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "startDate inválida"})
		}
		e, err := time.Parse("2006-01-02", end)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "endDate inválida"})
		}
		e = e.Add(24*time.Hour - time.Nanosecond) // inclusive end of day
		f.StartDate = &s
		f.EndDate = &e
	}
	if s := c.QueryParam("status"); s != "" {
		f.Status = s
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	payments, err := h.Payments.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao listar pagamentos"})
	}
	out := make([]paymentResp, 0, len(payments))
	for i := range payments {
		out = append(out, toPaymentResp(&payments[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"payments": out}})
}
