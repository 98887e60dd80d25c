package service

import (
	"context"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/infra"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/metrics"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/repository"

	"github.com/rs/zerolog/log"
)

type SyncService interface {
	// Encolar appends a captured sale to the device's durable queue. It never
	// fails for business reasons: validation happens at drain time.
	Encolar(ctx context.Context, ident Identidad, req dto.EncolarVentaRequest) (*dto.EncolarVentaResponse, error)
	// Drenar replays the queue in capture order against the sale engine.
	// Per-entry outcomes: committed (removed), business failure (flagged and
	// retained, drain continues), connectivity/conflict (drain stops, entry
	// stays queued untouched).
	Drenar(ctx context.Context, ident Identidad, req dto.DrenarRequest) (*dto.DrenarResponse, error)
	// Estado reports queue depth and the flagged entries of a device.
	Estado(ctx context.Context, ident Identidad, dispositivoID string) (*dto.EstadoColaResponse, error)
}

type syncService struct {
	cola    repository.ColaOfflineRepository
	ventas  VentaService
	breaker *infra.CircuitBreaker
}

func NewSyncService(cola repository.ColaOfflineRepository, ventas VentaService, breaker *infra.CircuitBreaker) SyncService {
	return &syncService{cola: cola, ventas: ventas, breaker: breaker}
}

func (s *syncService) Encolar(ctx context.Context, ident Identidad, req dto.EncolarVentaRequest) (*dto.EncolarVentaResponse, error) {
	entrada, err := s.cola.Encolar(ctx, ident.NegocioID, req.DispositivoID, req.Venta)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("dispositivo_id", req.DispositivoID).
		Int64("local_id", entrada.LocalID).
		Str("offline_id", entrada.OfflineID).
		Msg("venta encolada offline")
	return &dto.EncolarVentaResponse{LocalID: entrada.LocalID, OfflineID: entrada.OfflineID}, nil
}

func (s *syncService) Drenar(ctx context.Context, ident Identidad, req dto.DrenarRequest) (*dto.DrenarResponse, error) {
	entradas, err := s.cola.Listar(ctx, ident.NegocioID, req.DispositivoID)
	if err != nil {
		return nil, err
	}
	fallidasPrevias, err := s.cola.Fallidas(ctx, ident.NegocioID, req.DispositivoID)
	if err != nil {
		return nil, err
	}

	resp := &dto.DrenarResponse{
		Exitosas: []dto.VentaResponse{},
		Fallidas: []dto.EntradaFallida{},
	}

	for i, entrada := range entradas {
		// Entries flagged on a previous drain stay parked until an operator
		// resolves them; they don't block the rest of the queue.
		if motivo, ok := fallidasPrevias[entrada.LocalID]; ok {
			resp.Fallidas = append(resp.Fallidas, dto.EntradaFallida{
				LocalID:   entrada.LocalID,
				OfflineID: entrada.OfflineID,
				Motivo:    motivo,
			})
			continue
		}

		var venta *dto.VentaResponse
		var rechazo error
		commitErr := s.breaker.Execute(func() error {
			v, err := s.ventas.RegistrarVenta(ctx, ident, entrada.Venta)
			if err != nil {
				// Business rejections mean the store answered: they must not
				// trip the breaker, so they don't surface as Execute failures.
				if EsErrorDeNegocio(err) {
					rechazo = err
					return nil
				}
				return err
			}
			venta = v
			return nil
		})

		switch {
		case commitErr == nil && rechazo == nil:
			if err := s.cola.Eliminar(ctx, ident.NegocioID, req.DispositivoID, entrada); err != nil {
				// The sale committed; the entry will dedup by offline_id on the
				// next drain, so losing the removal is safe.
				log.Error().Err(err).Int64("local_id", entrada.LocalID).Msg("no se pudo eliminar entrada drenada")
			}
			metrics.SyncResultados.WithLabelValues("comprometida").Inc()
			resp.Exitosas = append(resp.Exitosas, *venta)

		case rechazo != nil:
			motivo := rechazo.Error()
			if err := s.cola.MarcarFallida(ctx, ident.NegocioID, req.DispositivoID, entrada.LocalID, motivo); err != nil {
				log.Error().Err(err).Int64("local_id", entrada.LocalID).Msg("no se pudo marcar entrada fallida")
			}
			metrics.SyncResultados.WithLabelValues("fallida").Inc()
			resp.Fallidas = append(resp.Fallidas, dto.EntradaFallida{
				LocalID:   entrada.LocalID,
				OfflineID: entrada.OfflineID,
				Motivo:    motivo,
			})
			log.Warn().Int64("local_id", entrada.LocalID).Str("motivo", motivo).Msg("entrada de cola rechazada por regla de negocio")

		default:
			// Connectivity, open breaker or unresolved conflict: stop here and
			// leave everything from this entry on queued. At-least-once replay
			// is safe because the engine dedups by offline_id.
			resp.Pendientes = len(entradas) - i
			metrics.SyncResultados.WithLabelValues("pendiente").Add(float64(resp.Pendientes))
			log.Warn().Err(commitErr).Int("pendientes", resp.Pendientes).Msg("drenaje interrumpido, entradas retenidas")
			return resp, nil
		}
	}

	return resp, nil
}

func (s *syncService) Estado(ctx context.Context, ident Identidad, dispositivoID string) (*dto.EstadoColaResponse, error) {
	largo, err := s.cola.Largo(ctx, ident.NegocioID, dispositivoID)
	if err != nil {
		return nil, err
	}
	fallidas, err := s.cola.Fallidas(ctx, ident.NegocioID, dispositivoID)
	if err != nil {
		return nil, err
	}
	resp := &dto.EstadoColaResponse{
		Pendientes: largo,
		Fallidas:   make([]dto.EntradaFallida, 0, len(fallidas)),
		Circuito:   s.breaker.State().String(),
	}
	for localID, motivo := range fallidas {
		resp.Fallidas = append(resp.Fallidas, dto.EntradaFallida{LocalID: localID, Motivo: motivo})
	}
	return resp, nil
}
