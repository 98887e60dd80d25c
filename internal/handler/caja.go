package handler

import (
	"net/http"
	"strconv"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/middleware"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct {
	cajas service.CajaService
}

func NewCajaHandler(cajas service.CajaService) *CajaHandler {
	return &CajaHandler{cajas: cajas}
}

// Abrir godoc
// @Summary  Abrir caja
// @Tags     caja
// @Param    apertura body dto.AbrirCajaRequest true "Monto de apertura"
// @Success  201 {object} dto.CierreCajaResponse
// @Failure  409 {object} apierror.APIError "ya hay una caja abierta"
// @Router   /v1/caja/abrir [post]
// @Security BearerAuth
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.cajas.Abrir(c.Request.Context(), middleware.GetIdentidad(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cerrar godoc
// @Summary  Cerrar caja
// @Tags     caja
// @Param    cierre body dto.CerrarCajaRequest true "Efectivo contado"
// @Success  200 {object} dto.CierreCajaResponse
// @Failure  409 {object} apierror.APIError "no hay caja abierta"
// @Router   /v1/caja/cerrar [post]
// @Security BearerAuth
func (h *CajaHandler) Cerrar(c *gin.Context) {
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.cajas.Cerrar(c.Request.Context(), middleware.GetIdentidad(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Activa godoc
// @Summary  Caja abierta del operador
// @Tags     caja
// @Success  200 {object} dto.CierreCajaResponse
// @Router   /v1/caja/activa [get]
// @Security BearerAuth
func (h *CajaHandler) Activa(c *gin.Context) {
	resp, err := h.cajas.GetActiva(c.Request.Context(), middleware.GetIdentidad(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary  Historial de cierres
// @Tags     caja
// @Success  200 {array} dto.CierreCajaResponse
// @Router   /v1/caja/historial [get]
// @Security BearerAuth
func (h *CajaHandler) Historial(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	resp, err := h.cajas.Historial(c.Request.Context(), middleware.GetIdentidad(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
