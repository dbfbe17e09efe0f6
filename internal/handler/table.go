package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
	"github.com/marcussviniciusa/recantoverdev5/internal/notify"
	"github.com/marcussviniciusa/recantoverdev5/internal/repository"
)

// TableHandler exposes the dining-room table endpoints.
type TableHandler struct {
	Tables   *repository.TableRepo
	Notifier *notify.Publisher
}

func NewTableHandler(t *repository.TableRepo, n *notify.Publisher) *TableHandler {
	return &TableHandler{Tables: t, Notifier: n}
}

type tableCreateReq struct {
	Number   uint32 `json:"number"`
	Capacity uint32 `json:"capacity"`
}

// tableUpdateReq uses pointers so absent fields are left untouched.
type tableUpdateReq struct {
	Status           *string `json:"status"`
	Capacity         *uint32 `json:"capacity"`
	CurrentCustomers *uint32 `json:"currentCustomers"`
	AssignedWaiter   *uint64 `json:"assignedWaiter"`
	Identification   *string `json:"identification"`
}

type tableResp struct {
	ID               uint64  `json:"id"`
	Number           uint32  `json:"number"`
	Capacity         uint32  `json:"capacity"`
	Status           string  `json:"status"`
	CurrentCustomers uint32  `json:"currentCustomers"`
	AssignedWaiter   *uint64 `json:"assignedWaiter"`
	Identification   *string `json:"identification"`
}

func toTableResp(t *model.Table) tableResp {
	return tableResp{
		ID:               t.ID,
		Number:           t.Number,
		Capacity:         t.Capacity,
		Status:           t.Status,
		CurrentCustomers: t.CurrentCustomers,
		AssignedWaiter:   t.AssignedWaiter,
		Identification:   t.Identification,
	}
}

// List returns every table. Any authenticated staff member may call it.
func (h *TableHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tables, err := h.Tables.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao listar mesas"})
	}
	out := make([]tableResp, 0, len(tables))
	for i := range tables {
		out = append(out, toTableResp(&tables[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"tables": out}})
}

// Create registers a new table (recepcionista only).
func (h *TableHandler) Create(c echo.Context) error {
	var req tableCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Dados inválidos"})
	}
	if req.Number == 0 || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Número e capacidade são obrigatórios"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := &model.Table{Number: req.Number, Capacity: req.Capacity, Status: model.TableDisponivel}
	if err := h.Tables.Create(ctx, t); err != nil {
		if err == repository.ErrTableNumberExists {
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "Já existe uma mesa com este número"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao criar mesa"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"table": toTableResp(t)}})
}

// Get returns one table by id.
func (h *TableHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "ID inválido"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Mesa não encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar mesa"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"table": toTableResp(t)}})
}

// Update changes occupancy or metadata of a table. Moving to ocupada or
// disponivel emits the matching notification; freeing clears the
// occupancy fields regardless of what else the request carries.
func (h *TableHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "ID inválido"})
	}
	var req tableUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Dados inválidos"})
	}
	if req.Status != nil && *req.Status != model.TableDisponivel && *req.Status != model.TableOcupada {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Status de mesa inválido"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Mesa não encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar mesa"})
	}

	prevStatus := t.Status
	if req.Capacity != nil && *req.Capacity > 0 {
		t.Capacity = *req.Capacity
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.CurrentCustomers != nil {
		t.CurrentCustomers = *req.CurrentCustomers
	}
	if req.AssignedWaiter != nil {
		t.AssignedWaiter = req.AssignedWaiter
	}
	if req.Identification != nil {
		t.Identification = req.Identification
	}
	if t.Status == model.TableDisponivel {
		// Freeing always resets the occupancy fields.
		t.CurrentCustomers = 0
		t.AssignedWaiter = nil
		t.Identification = nil
	}

	if err := h.Tables.Update(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao atualizar mesa"})
	}

	if prevStatus != t.Status {
		n, audiences := notify.TableChange(t.ID, t.Number, t.Status == model.TableOcupada)
		h.Notifier.Publish(ctx, n, audiences)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"table": toTableResp(t)}})
}

// Delete removes a table (recepcionista only). Tables referenced by
// orders cannot be removed.
func (h *TableHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "ID inválido"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tables.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrTableNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Mesa não encontrada"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "Mesa possui pedidos e não pode ser removida"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao remover mesa"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
