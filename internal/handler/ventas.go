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

type VentaHandler struct {
	ventas service.VentaService
}

func NewVentaHandler(ventas service.VentaService) *VentaHandler {
	return &VentaHandler{ventas: ventas}
}

// Registrar godoc
// @Summary  Registrar una venta
// @Tags     ventas
// @Accept   json
// @Produce  json
// @Param    venta body dto.RegistrarVentaRequest true "Venta"
// @Success  201 {object} dto.VentaResponse
// @Failure  409 {object} apierror.APIError "caja cerrada o conflicto de concurrencia"
// @Failure  422 {object} apierror.APIError "stock insuficiente o producto inexistente"
// @Router   /v1/ventas [post]
// @Security BearerAuth
func (h *VentaHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ventas.RegistrarVenta(c.Request.Context(), middleware.GetIdentidad(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Anular godoc
// @Summary  Anular una venta
// @Tags     ventas
// @Param    id     path string                 true "Venta ID"
// @Param    motivo body dto.AnularVentaRequest true "Motivo"
// @Success  200 {object} dto.AnulacionResponse
// @Router   /v1/ventas/{id}/anular [post]
// @Security BearerAuth
func (h *VentaHandler) Anular(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("id de venta inválido"))
		return
	}
	var req dto.AnularVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ventas.AnularVenta(c.Request.Context(), middleware.GetIdentidad(c), id, req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary  Listar ventas
// @Tags     ventas
// @Success  200 {object} dto.VentaListResponse
// @Router   /v1/ventas [get]
// @Security BearerAuth
func (h *VentaHandler) Listar(c *gin.Context) {
	var filter dto.VentaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("filtros inválidos"))
		return
	}
	resp, err := h.ventas.ListVentas(c.Request.Context(), middleware.GetIdentidad(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
