package handler

import (
	"net/http"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/apierror"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/middleware"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	sync service.SyncService
}

func NewSyncHandler(sync service.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Encolar godoc
// @Summary  Encolar venta capturada offline
// @Tags     sync
// @Param    entrada body dto.EncolarVentaRequest true "Venta offline"
// @Success  202 {object} dto.EncolarVentaResponse
// @Router   /v1/sync/encolar [post]
// @Security BearerAuth
func (h *SyncHandler) Encolar(c *gin.Context) {
	var req dto.EncolarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sync.Encolar(c.Request.Context(), middleware.GetIdentidad(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// Drenar godoc
// @Summary  Drenar la cola offline del dispositivo
// @Tags     sync
// @Param    drenar body dto.DrenarRequest true "Dispositivo"
// @Success  200 {object} dto.DrenarResponse
// @Router   /v1/sync/drenar [post]
// @Security BearerAuth
func (h *SyncHandler) Drenar(c *gin.Context) {
	var req dto.DrenarRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sync.Drenar(c.Request.Context(), middleware.GetIdentidad(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Estado godoc
// @Summary  Estado de la cola offline
// @Tags     sync
// @Param    dispositivo_id query string true "Dispositivo"
// @Success  200 {object} dto.EstadoColaResponse
// @Router   /v1/sync/estado [get]
// @Security BearerAuth
func (h *SyncHandler) Estado(c *gin.Context) {
	dispositivoID := c.Query("dispositivo_id")
	if dispositivoID == "" {
		c.JSON(http.StatusBadRequest, apierror.New("dispositivo_id es requerido"))
		return
	}
	resp, err := h.sync.Estado(c.Request.Context(), middleware.GetIdentidad(c), dispositivoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
