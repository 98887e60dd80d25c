package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/config"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/handler"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/infra"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/repository"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/router"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/service"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title        Tienda Ropa POS API
// @version      1.0
// @description  Backend de punto de venta: ventas atómicas, caja, inventario y sincronización offline.
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo conectar a la base de datos")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo conectar a redis")
	}

	breaker := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	mailer := infra.NewMailer(cfg)

	// Repositories
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	movRepo := repository.NewMovimientoStockRepository(db)
	colaRepo := repository.NewColaOfflineRepository(rdb)

	// Services
	dispatcher := worker.NewDispatcher(rdb)
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	productoSvc := service.NewProductoService(productoRepo, movRepo)
	ventaSvc := service.NewVentaService(ventaRepo, productoRepo, cajaRepo, movRepo, cfg.MaxReintentosTx)
	cajaSvc := service.NewCajaService(cajaRepo, ventaRepo, dispatcher)
	syncSvc := service.NewSyncService(colaRepo, ventaSvc, breaker)

	// Workers
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reporteEmail := cfg.ReporteEmail
	if reporteEmail == "" {
		reporteEmail = cfg.SMTPUser
	}

	pool := worker.NewPool(rdb, cfg.WorkerPoolSize)
	pool.Register(worker.JobReporteCierre, worker.NewCierreWorker(cajaRepo, usuarioRepo, mailer, reporteEmail).Handle)
	pool.Register(worker.JobDrenaje, worker.NewDrainWorker(syncSvc).Handle)
	pool.Start(ctx)

	// HTTP
	engine := router.New(cfg, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Productos: handler.NewProductoHandler(productoSvc),
		Ventas:    handler.NewVentaHandler(ventaSvc),
		Caja:      handler.NewCajaHandler(cajaSvc),
		Sync:      handler.NewSyncHandler(syncSvc),
		Health:    handler.NewHealthHandler(db, rdb, breaker),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("servidor iniciado")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("servidor HTTP")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("apagando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado forzado")
	}
	pool.Wait()
	log.Info().Msg("servidor detenido")
}
