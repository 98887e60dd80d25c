package handler

import (
	"net/http"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/apierror"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/middleware"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductoHandler struct {
	productos service.ProductoService
}

func NewProductoHandler(productos service.ProductoService) *ProductoHandler {
	return &ProductoHandler{productos: productos}
}

// Crear godoc
// @Summary  Crear producto
// @Tags     productos
// @Param    producto body dto.CrearProductoRequest true "Producto"
// @Success  201 {object} dto.ProductoResponse
// @Router   /v1/productos [post]
// @Security BearerAuth
func (h *ProductoHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.productos.Crear(c.Request.Context(), middleware.GetIdentidad(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary  Listar productos
// @Tags     productos
// @Success  200 {object} dto.ProductoListResponse
// @Router   /v1/productos [get]
// @Security BearerAuth
func (h *ProductoHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("filtros inválidos"))
		return
	}
	resp, err := h.productos.List(c.Request.Context(), middleware.GetIdentidad(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary  Obtener producto por ID
// @Tags     productos
// @Param    id path string true "Producto ID"
// @Success  200 {object} dto.ProductoResponse
// @Router   /v1/productos/{id} [get]
// @Security BearerAuth
func (h *ProductoHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("id de producto inválido"))
		return
	}
	resp, err := h.productos.GetByID(c.Request.Context(), middleware.GetIdentidad(c), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("producto no encontrado"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetPorBarcode godoc
// @Summary  Buscar producto por código de barras
// @Tags     productos
// @Param    codigo path string true "Código de barras"
// @Success  200 {object} dto.ProductoResponse
// @Router   /v1/productos/barcode/{codigo} [get]
// @Security BearerAuth
func (h *ProductoHandler) GetPorBarcode(c *gin.Context) {
	resp, err := h.productos.GetByBarcode(c.Request.Context(), middleware.GetIdentidad(c), c.Param("codigo"))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("producto no encontrado"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AjustarStock godoc
// @Summary  Ajuste manual de stock
// @Tags     productos
// @Param    id     path string                  true "Producto ID"
// @Param    ajuste body dto.AjustarStockRequest true "Delta y motivo"
// @Success  200 {object} dto.ProductoResponse
// @Router   /v1/productos/{id}/stock [patch]
// @Security BearerAuth
func (h *ProductoHandler) AjustarStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("id de producto inválido"))
		return
	}
	var req dto.AjustarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.productos.AjustarStock(c.Request.Context(), middleware.GetIdentidad(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
