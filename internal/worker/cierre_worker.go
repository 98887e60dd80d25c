package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/infra"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReporteCierrePayload identifies the closed caja whose reconciliation report
// must be rendered and emailed.
type ReporteCierrePayload struct {
	NegocioID uuid.UUID `json:"negocio_id"`
	CierreID  uuid.UUID `json:"cierre_id"`
}

// EncolarReporteCierre satisfies service.ReporteDispatcher.
func (d *Dispatcher) EncolarReporteCierre(ctx context.Context, negocioID, cierreID uuid.UUID) error {
	return d.encolar(ctx, JobReporteCierre, ReporteCierrePayload{NegocioID: negocioID, CierreID: cierreID})
}

// CierreWorker renders the close-of-drawer PDF and emails it to the business
// report address. Idempotent: re-running only re-sends the same report.
type CierreWorker struct {
	cajas        repository.CajaRepository
	usuarios     repository.UsuarioRepository
	mailer       *infra.Mailer
	destinatario string
}

func NewCierreWorker(cajas repository.CajaRepository, usuarios repository.UsuarioRepository, mailer *infra.Mailer, destinatario string) *CierreWorker {
	return &CierreWorker{cajas: cajas, usuarios: usuarios, mailer: mailer, destinatario: destinatario}
}

func (w *CierreWorker) Handle(ctx context.Context, payload json.RawMessage) error {
	var p ReporteCierrePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("reporte cierre: payload inválido: %w", err)
	}

	cierre, err := w.cajas.FindByID(ctx, p.NegocioID, p.CierreID)
	if err != nil {
		return fmt.Errorf("reporte cierre: cierre %s: %w", p.CierreID, err)
	}

	operador := cierre.UsuarioID.String()
	if u, err := w.usuarios.FindByID(ctx, cierre.UsuarioID); err == nil {
		operador = u.Nombre
	}

	pdf, err := infra.ReporteCierrePDF(cierre, operador)
	if err != nil {
		return fmt.Errorf("reporte cierre: generar PDF: %w", err)
	}

	asunto := fmt.Sprintf("Cierre de caja %s", cierre.AbiertaAt.Format("2006-01-02"))
	cuerpo := fmt.Sprintf("Adjunto el reporte de cierre de caja de %s.", operador)
	if cierre.Diferencia != nil && !cierre.Diferencia.IsZero() {
		cuerpo = fmt.Sprintf("%s\n\nATENCIÓN: la caja cerró con una diferencia de %s.",
			cuerpo, cierre.Diferencia.StringFixed(2))
	}

	if err := w.mailer.SendReporteCierre(w.destinatario, asunto, cuerpo, pdf); err != nil {
		return fmt.Errorf("reporte cierre: enviar email: %w", err)
	}

	log.Info().Str("cierre_id", p.CierreID.String()).Msg("reporte de cierre enviado")
	return nil
}
