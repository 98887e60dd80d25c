package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DrenajePayload triggers a background drain of one device's offline queue,
// on behalf of the operator who requested it.
type DrenajePayload struct {
	NegocioID     uuid.UUID `json:"negocio_id"`
	UsuarioID     uuid.UUID `json:"usuario_id"`
	Rol           string    `json:"rol"`
	DispositivoID string    `json:"dispositivo_id"`
}

// EncolarDrenaje schedules an asynchronous drain. Used when the terminal
// regains connectivity but doesn't want to block on the replay.
func (d *Dispatcher) EncolarDrenaje(ctx context.Context, p DrenajePayload) error {
	return d.encolar(ctx, JobDrenaje, p)
}

// DrainWorker replays a device's offline queue through the sync coordinator.
// Safe to re-run: the sale engine dedups by offline_id and the coordinator
// skips entries already flagged as failed.
type DrainWorker struct {
	sync service.SyncService
}

func NewDrainWorker(sync service.SyncService) *DrainWorker {
	return &DrainWorker{sync: sync}
}

func (w *DrainWorker) Handle(ctx context.Context, payload json.RawMessage) error {
	var p DrenajePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("drenaje: payload inválido: %w", err)
	}

	ident := service.Identidad{UsuarioID: p.UsuarioID, NegocioID: p.NegocioID, Rol: p.Rol}
	resp, err := w.sync.Drenar(ctx, ident, dto.DrenarRequest{DispositivoID: p.DispositivoID})
	if err != nil {
		return fmt.Errorf("drenaje %s: %w", p.DispositivoID, err)
	}

	log.Info().
		Str("dispositivo_id", p.DispositivoID).
		Int("exitosas", len(resp.Exitosas)).
		Int("fallidas", len(resp.Fallidas)).
		Int("pendientes", resp.Pendientes).
		Msg("drenaje de cola offline completado")

	// Entries left pending mean connectivity cut the drain short; requeue so
	// the pool retries later instead of dropping the replay.
	if resp.Pendientes > 0 {
		return fmt.Errorf("drenaje %s: %d entradas pendientes", p.DispositivoID, resp.Pendientes)
	}
	return nil
}
