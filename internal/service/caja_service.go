package service

import (
	"context"
	"errors"
	"time"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/model"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReporteDispatcher enqueues the cierre report job; the worker pool picks it
// up, renders the PDF and emails it. Nil dispatcher disables the report.
type ReporteDispatcher interface {
	EncolarReporteCierre(ctx context.Context, negocioID, cierreID uuid.UUID) error
}

type CajaService interface {
	// Abrir opens a drawer session for the operator. At most one open session
	// per operator per negocio.
	Abrir(ctx context.Context, ident Identidad, req dto.AbrirCajaRequest) (*dto.CierreCajaResponse, error)
	// Cerrar closes the operator's open session: totals per payment method are
	// read from the committed ventas of the session and the signed difference
	// is computed from the counted cash.
	Cerrar(ctx context.Context, ident Identidad, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error)
	// GetActiva returns the operator's open session, or ErrSinCajaAbierta.
	GetActiva(ctx context.Context, ident Identidad) (*dto.CierreCajaResponse, error)
	Historial(ctx context.Context, ident Identidad, page, limit int) ([]dto.CierreCajaResponse, error)
}

type cajaService struct {
	repo       repository.CajaRepository
	ventaRepo  repository.VentaRepository
	dispatcher ReporteDispatcher
}

func NewCajaService(repo repository.CajaRepository, ventaRepo repository.VentaRepository, dispatcher ReporteDispatcher) CajaService {
	return &cajaService{repo: repo, ventaRepo: ventaRepo, dispatcher: dispatcher}
}

func (s *cajaService) Abrir(ctx context.Context, ident Identidad, req dto.AbrirCajaRequest) (*dto.CierreCajaResponse, error) {
	if _, err := s.repo.FindAbiertaPorUsuario(ctx, ident.NegocioID, ident.UsuarioID); err == nil {
		return nil, ErrCajaYaAbierta
	}

	cierre := &model.CierreCaja{
		NegocioID:     ident.NegocioID,
		UsuarioID:     ident.UsuarioID,
		MontoApertura: req.MontoApertura.Round(2),
		Estado:        model.CajaAbierta,
		AbiertaAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, cierre); err != nil {
		// Two terminals racing past the lookup lose to the partial unique
		// index; surface it as the same business error, not a raw 23505.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uni_cierres_caja_abierta" {
			return nil, ErrCajaYaAbierta
		}
		return nil, err
	}

	log.Info().
		Str("cierre_id", cierre.ID.String()).
		Str("usuario_id", ident.UsuarioID.String()).
		Str("monto_apertura", cierre.MontoApertura.StringFixed(2)).
		Msg("caja abierta")

	return cierreToResponse(cierre), nil
}

func (s *cajaService) Cerrar(ctx context.Context, ident Identidad, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error) {
	abierta, err := s.repo.FindAbiertaPorUsuario(ctx, ident.NegocioID, ident.UsuarioID)
	if err != nil {
		return nil, ErrSinCajaAbierta
	}

	// The close is one transaction that locks the session row before reading
	// the sums: a sale holding the lock commits first and lands in the totals,
	// a sale arriving after it sees estado=cerrada and is rejected. Totals can
	// never miss a committed venta of the session.
	var cierre *model.CierreCaja
	txErr := runTx(ctx, s.ventaRepo.DB(), func(tx *gorm.DB) error {
		c, err := s.repo.FindByIDForUpdateTx(tx, ident.NegocioID, abierta.ID)
		if err != nil {
			return ErrSinCajaAbierta
		}
		if c.Estado != model.CajaAbierta {
			return ErrSinCajaAbierta
		}

		sums, err := s.ventaRepo.SumPorMetodoTx(tx, ident.NegocioID, c.ID)
		if err != nil {
			return err
		}
		efectivo := sums[model.MetodoEfectivo]
		tarjeta := sums[model.MetodoTarjeta]
		transferencia := sums[model.MetodoTransferencia]
		totalVentas := efectivo.Add(tarjeta).Add(transferencia)

		// Diferencia = contado − (apertura + ventas en efectivo).
		// Card and transfer sales never enter the drawer, so only cash counts.
		contado := req.MontoContado.Round(2)
		esperado := c.MontoApertura.Add(efectivo)
		diferencia := contado.Sub(esperado)

		ahora := time.Now().UTC()
		c.Estado = model.CajaCerrada
		c.TotalEfectivo = &efectivo
		c.TotalTarjeta = &tarjeta
		c.TotalTransferencia = &transferencia
		c.TotalVentas = &totalVentas
		c.MontoContado = &contado
		c.Diferencia = &diferencia
		c.Notas = req.Notas
		c.CerradaAt = &ahora

		if err := s.repo.UpdateTx(tx, c); err != nil {
			return err
		}
		cierre = c
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	evt := log.Info()
	if !cierre.Diferencia.IsZero() {
		evt = log.Warn()
	}
	evt.
		Str("cierre_id", cierre.ID.String()).
		Str("total_ventas", cierre.TotalVentas.StringFixed(2)).
		Str("diferencia", cierre.Diferencia.StringFixed(2)).
		Msg("caja cerrada")

	if s.dispatcher != nil {
		if err := s.dispatcher.EncolarReporteCierre(ctx, ident.NegocioID, cierre.ID); err != nil {
			// Report delivery is best-effort; the close itself already committed.
			log.Error().Err(err).Str("cierre_id", cierre.ID.String()).Msg("no se pudo encolar el reporte de cierre")
		}
	}

	return cierreToResponse(cierre), nil
}

func (s *cajaService) GetActiva(ctx context.Context, ident Identidad) (*dto.CierreCajaResponse, error) {
	cierre, err := s.repo.FindAbiertaPorUsuario(ctx, ident.NegocioID, ident.UsuarioID)
	if err != nil {
		return nil, ErrSinCajaAbierta
	}
	return cierreToResponse(cierre), nil
}

func (s *cajaService) Historial(ctx context.Context, ident Identidad, page, limit int) ([]dto.CierreCajaResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	cierres, err := s.repo.Historial(ctx, ident.NegocioID, page, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CierreCajaResponse, 0, len(cierres))
	for i := range cierres {
		out = append(out, *cierreToResponse(&cierres[i]))
	}
	return out, nil
}

func cierreToResponse(c *model.CierreCaja) *dto.CierreCajaResponse {
	resp := &dto.CierreCajaResponse{
		ID:            c.ID.String(),
		UsuarioID:     c.UsuarioID.String(),
		MontoApertura: c.MontoApertura,
		Estado:        c.Estado,
		MontoContado:  c.MontoContado,
		Diferencia:    c.Diferencia,
		Notas:         c.Notas,
		AbiertaAt:     c.AbiertaAt.Format(time.RFC3339),
	}
	if c.CerradaAt != nil {
		s := c.CerradaAt.Format(time.RFC3339)
		resp.CerradaAt = &s
	}
	if c.TotalVentas != nil {
		deref := func(d *decimal.Decimal) decimal.Decimal {
			if d == nil {
				return decimal.Zero
			}
			return *d
		}
		resp.Totales = &dto.TotalesPorMetodo{
			Efectivo:      deref(c.TotalEfectivo),
			Tarjeta:       deref(c.TotalTarjeta),
			Transferencia: deref(c.TotalTransferencia),
			Total:         deref(c.TotalVentas),
		}
	}
	return resp
}
