package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marcussviniciusa/recantoverdev5/internal/model"
	"github.com/marcussviniciusa/recantoverdev5/internal/repository"
)

// ProductHandler exposes the menu catalog endpoints.
type ProductHandler struct {
	Products *repository.ProductRepo
}

func NewProductHandler(p *repository.ProductRepo) *ProductHandler {
	return &ProductHandler{Products: p}
}

type productReq struct {
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	Price           float64 `json:"price"`
	Category        string  `json:"category"`
	Available       *bool   `json:"available"`
	PreparationTime uint32  `json:"preparationTime"`
}

type productResp struct {
	ID              uint64  `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	Price           float64 `json:"price"`
	Category        string  `json:"category"`
	Available       bool    `json:"available"`
	PreparationTime uint32  `json:"preparationTime"`
}

func toProductResp(p *model.Product) productResp {
	return productResp{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		Category:        p.Category,
		Available:       p.Available,
		PreparationTime: p.PreparationTime,
	}
}

func validCategory(cat string) bool {
	for _, c := range model.ProductCategories {
		if c == cat {
			return true
		}
	}
	return false
}

func (r *productReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.TrimSpace(r.Category)
	if r.Name == "" {
		return "Nome é obrigatório"
	}
	if r.Price < 0 {
		return "Preço não pode ser negativo"
	}
	if !validCategory(r.Category) {
		return "Categoria inválida"
	}
	return ""
}

// List returns catalog products, optionally filtered by category and
// availability. Sits behind the response cache for browse traffic.
func (h *ProductHandler) List(c echo.Context) error {
	category := strings.TrimSpace(c.QueryParam("category"))
	var available *bool
	if raw := c.QueryParam("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Filtro available inválido"})
		}
		available = &v
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.List(ctx, category, available)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao listar produtos"})
	}
	out := make([]productResp, 0, len(products))
	for i := range products {
		out = append(out, toProductResp(&products[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"products": out}})
}

// Categories returns the fixed category list with available-product counts.
func (h *ProductHandler) Categories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	counts, err := h.Products.CategoriesWithCounts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao listar categorias"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"categories": counts}})
}

// Create adds a product to the catalog (recepcionista only).
func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Dados inválidos"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	p := &model.Product{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Category:        req.Category,
		Available:       available,
		PreparationTime: req.PreparationTime,
	}
	if err := h.Products.Create(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao criar produto"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"product": toProductResp(p)}})
}

// Get returns one product by id.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "ID inválido"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Produto não encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar produto"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"product": toProductResp(p)}})
}

// Update replaces the mutable fields of a product (recepcionista only).
// Existing orders keep their name/price snapshots.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "ID inválido"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Dados inválidos"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Produto não encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao consultar produto"})
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Category = req.Category
	if req.Available != nil {
		p.Available = *req.Available
	}
	p.PreparationTime = req.PreparationTime

	if err := h.Products.Update(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao atualizar produto"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"product": toProductResp(p)}})
}

// Delete removes a product (recepcionista only). Products referenced by
// order items are only disabled so order history stays intact.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "ID inválido"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hardDeleted, err := h.Products.Delete(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Produto não encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Erro ao remover produto"})
	}
	if !hardDeleted {
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"data":    echo.Map{"message": "Produto desativado: existem pedidos que o referenciam"},
		})
	}
	return c.NoContent(http.StatusNoContent)
}
