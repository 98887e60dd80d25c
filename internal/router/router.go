package router

import (
	"time"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/config"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/handler"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/middleware"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups everything the router wires up.
type Handlers struct {
	Auth      *handler.AuthHandler
	Productos *handler.ProductoHandler
	Ventas    *handler.VentaHandler
	Caja      *handler.CajaHandler
	Sync      *handler.SyncHandler
	Health    *handler.HealthHandler
}

// New builds the gin engine with the full middleware chain and route table.
func New(cfg *config.Config, h Handlers) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())

	r.GET("/health", h.Health.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := r.Group("/auth")
	auth.Use(middleware.RateLimit(10, time.Minute))
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.JWTAuth(cfg.JWTSecret))
	{
		productos := v1.Group("/productos")
		{
			productos.GET("", h.Productos.Listar)
			productos.GET("/:id", h.Productos.Get)
			productos.GET("/barcode/:codigo", h.Productos.GetPorBarcode)

			gestion := productos.Group("")
			gestion.Use(middleware.RequireRole(model.RolSupervisor, model.RolAdministrador))
			{
				gestion.POST("", h.Productos.Crear)
				gestion.PATCH("/:id/stock", h.Productos.AjustarStock)
			}
		}

		ventas := v1.Group("/ventas")
		{
			ventas.POST("", h.Ventas.Registrar)
			ventas.GET("", h.Ventas.Listar)
			// Role check lives in the service so queue replays get it too.
			ventas.POST("/:id/anular", h.Ventas.Anular)
		}

		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", h.Caja.Abrir)
			caja.POST("/cerrar", h.Caja.Cerrar)
			caja.GET("/activa", h.Caja.Activa)
			caja.GET("/historial", h.Caja.Historial)
		}

		sync := v1.Group("/sync")
		{
			sync.POST("/encolar", h.Sync.Encolar)
			sync.POST("/drenar", h.Sync.Drenar)
			sync.GET("/estado", h.Sync.Estado)
		}
	}

	return r
}
