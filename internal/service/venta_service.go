package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/metrics"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/model"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Identidad is the authenticated actor, supplied by the caller on every
// operation. The engines are stateless: there is no "current" session or cart
// held anywhere in this package.
type Identidad struct {
	UsuarioID uuid.UUID
	NegocioID uuid.UUID
	Rol       string
}

// PuedeAnular reports whether the actor holds the void capability.
func (i Identidad) PuedeAnular() bool {
	return i.Rol == model.RolSupervisor || i.Rol == model.RolAdministrador
}

type VentaService interface {
	// RegistrarVenta validates and commits a candidate sale atomically against
	// current stock and caja state. Stock and caja status are re-read inside
	// the commit transaction, so a concurrent close or depletion is detected
	// at commit, not just at call time.
	RegistrarVenta(ctx context.Context, ident Identidad, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	// AnularVenta reverses a completed sale's stock effects and marks it
	// anulada, exactly once.
	AnularVenta(ctx context.Context, ident Identidad, ventaID uuid.UUID, motivo string) (*dto.AnulacionResponse, error)
	ListVentas(ctx context.Context, ident Identidad, filter dto.VentaFilter) (*dto.VentaListResponse, error)
}

type ventaService struct {
	repo          repository.VentaRepository
	productoRepo  repository.ProductoRepository
	cajaRepo      repository.CajaRepository
	movimientos   repository.MovimientoStockRepository
	maxReintentos int
}

func NewVentaService(
	repo repository.VentaRepository,
	productoRepo repository.ProductoRepository,
	cajaRepo repository.CajaRepository,
	movimientos repository.MovimientoStockRepository,
	maxReintentos int,
) VentaService {
	if maxReintentos < 1 {
		maxReintentos = 3
	}
	return &ventaService{
		repo:          repo,
		productoRepo:  productoRepo,
		cajaRepo:      cajaRepo,
		movimientos:   movimientos,
		maxReintentos: maxReintentos,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// esConflicto reports whether err is a Postgres serialization failure or
// deadlock — the losing side of two terminals racing on the same rows.
func esConflicto(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// esDuplicadoOffline matches a unique violation on the offline_id index: the
// venta already committed through another drain.
func esDuplicadoOffline(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uni_ventas_negocio_offline"
}

const cien = 100

func pct(base, porcentaje decimal.Decimal) decimal.Decimal {
	return base.Mul(porcentaje).Div(decimal.NewFromInt(cien)).Round(2)
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// One atomic unit, retried a bounded number of times on conflict:
//   1. Lock + re-read the caja session; not abierta → ErrCajaCerrada.
//   2. Lock + re-read every product; missing/inactive → ErrProductoInexistente,
//      stock < cantidad → ErrStockInsuficiente (names product and shortfall).
//   3. Compute totals once: total = (subtotal − descuento) + impuesto + propina.
//   4. Write the venta, decrement stock, append stock movements.
// Any failure inside the unit rolls everything back — partial commits are not
// observable.

func (s *ventaService) RegistrarVenta(ctx context.Context, ident Identidad, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	cierreID, err := uuid.Parse(req.CierreCajaID)
	if err != nil {
		return nil, errors.New("cierre_caja_id inválido")
	}
	if req.MetodoPago == model.MetodoEfectivo && req.MontoRecibido == nil {
		return nil, errors.New("monto_recibido es requerido para pagos en efectivo")
	}

	// Replays from the offline queue deduplicate here: a second drain of an
	// already-committed entry returns the stored venta without touching stock.
	// Only a real not-found clears the replay to commit; any other read error
	// must not be mistaken for "absent" or the insert would double-fire.
	if req.OfflineID != nil {
		existing, err := s.repo.FindByOfflineID(ctx, ident.NegocioID, *req.OfflineID)
		switch {
		case err == nil:
			return ventaToResponse(existing), nil
		case errors.Is(err, context.DeadlineExceeded):
			return nil, ErrConexion
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	var venta model.Venta
	for intento := 1; ; intento++ {
		venta = model.Venta{}
		err = s.commitVenta(ctx, ident, cierreID, req, &venta)
		if err == nil {
			break
		}
		if esConflicto(err) {
			metrics.ConflictosTx.Inc()
			if intento < s.maxReintentos {
				log.Warn().Int("intento", intento).Msg("conflicto de transacción en venta, reintentando")
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(intento) * 25 * time.Millisecond):
				}
				continue
			}
			return nil, ErrConflictoTransaccion
		}
		// Dos drenajes que pasaron la búsqueda a la vez: el índice único
		// decide y el perdedor devuelve la venta ya comprometida.
		if req.OfflineID != nil && esDuplicadoOffline(err) {
			if existing, ferr := s.repo.FindByOfflineID(ctx, ident.NegocioID, *req.OfflineID); ferr == nil {
				return ventaToResponse(existing), nil
			}
			return nil, err
		}
		// Un almacén que no responde dentro del plazo es un problema de
		// conexión, nunca un error de negocio: el terminal debe encolar.
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrConexion
		}
		s.contarRechazo(err)
		return nil, err
	}

	metrics.VentasRegistradas.Inc()
	return ventaToResponse(&venta), nil
}

func (s *ventaService) commitVenta(ctx context.Context, ident Identidad, cierreID uuid.UUID, req dto.RegistrarVentaRequest, out *model.Venta) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Caja status is authoritative only at this read: the row lock makes a
		// concurrent close wait until this sale commits.
		cierre, err := s.cajaRepo.FindByIDForUpdateTx(tx, ident.NegocioID, cierreID)
		if err != nil {
			if esConflicto(err) {
				return err
			}
			return ErrCajaCerrada
		}
		if cierre.Estado != model.CajaAbierta {
			return ErrCajaCerrada
		}

		type resuelto struct {
			producto *model.Producto
			cantidad int
			subtotal decimal.Decimal
		}
		resueltos := make([]resuelto, 0, len(req.Items))
		subtotal := decimal.Zero

		for _, item := range req.Items {
			pid, err := uuid.Parse(item.ProductoID)
			if err != nil {
				return &ErrProductoInexistente{ProductoID: item.ProductoID}
			}
			p, err := s.productoRepo.FindByIDForUpdateTx(tx, ident.NegocioID, pid)
			if err != nil {
				if esConflicto(err) {
					return err
				}
				return &ErrProductoInexistente{ProductoID: item.ProductoID}
			}
			if !p.Activo {
				return &ErrProductoInexistente{ProductoID: item.ProductoID}
			}
			if p.Stock < item.Cantidad {
				return &ErrStockInsuficiente{
					Producto:   p.Nombre,
					Solicitado: item.Cantidad,
					Disponible: p.Stock,
				}
			}
			lineSubtotal := p.PrecioVenta.Mul(decimal.NewFromInt(int64(item.Cantidad)))
			subtotal = subtotal.Add(lineSubtotal)
			resueltos = append(resueltos, resuelto{producto: p, cantidad: item.Cantidad, subtotal: lineSubtotal})
		}

		// Totals are computed exactly once, here, and never recomputed.
		descuento := pct(subtotal, req.DescuentoPct)
		base := subtotal.Sub(descuento)
		impuesto := pct(base, req.ImpuestoPct)
		propina := pct(base, req.PropinaPct)
		total := base.Add(impuesto).Add(propina)

		var montoRecibido, cambio *decimal.Decimal
		if req.MetodoPago == model.MetodoEfectivo {
			if req.MontoRecibido.LessThan(total) {
				return errors.New("el monto recibido es insuficiente")
			}
			v := req.MontoRecibido.Round(2)
			c := v.Sub(total)
			montoRecibido, cambio = &v, &c
		}

		*out = model.Venta{
			NegocioID:     ident.NegocioID,
			CierreCajaID:  cierreID,
			UsuarioID:     ident.UsuarioID,
			Subtotal:      subtotal,
			Descuento:     descuento,
			Impuesto:      impuesto,
			Propina:       propina,
			Total:         total,
			MetodoPago:    req.MetodoPago,
			MontoRecibido: montoRecibido,
			Cambio:        cambio,
			Estado:        model.VentaCompletada,
			OfflineID:     req.OfflineID,
		}
		for _, r := range resueltos {
			out.Items = append(out.Items, model.VentaItem{
				ProductoID:     r.producto.ID,
				NombreProducto: r.producto.Nombre,
				Cantidad:       r.cantidad,
				PrecioUnitario: r.producto.PrecioVenta,
				Subtotal:       r.subtotal,
			})
		}

		if err := s.repo.Create(ctx, tx, out); err != nil {
			return err
		}

		for _, r := range resueltos {
			if err := s.productoRepo.UpdateStockTx(tx, r.producto.ID, -r.cantidad); err != nil {
				return err
			}
			ref := out.ID
			mov := &model.MovimientoStock{
				NegocioID:     ident.NegocioID,
				ProductoID:    r.producto.ID,
				Tipo:          "venta",
				Cantidad:      -r.cantidad,
				StockAnterior: r.producto.Stock,
				StockNuevo:    r.producto.Stock - r.cantidad,
				Motivo:        "Venta",
				ReferenciaID:  &ref,
			}
			if err := s.movimientos.CreateTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ventaService) contarRechazo(err error) {
	var stock *ErrStockInsuficiente
	var stale *ErrProductoInexistente
	switch {
	case errors.Is(err, ErrCajaCerrada):
		metrics.VentasRechazadas.WithLabelValues("caja_cerrada").Inc()
	case errors.As(err, &stock):
		metrics.VentasRechazadas.WithLabelValues("stock_insuficiente").Inc()
	case errors.As(err, &stale):
		metrics.VentasRechazadas.WithLabelValues("producto_inexistente").Inc()
	}
}

// ── AnularVenta ───────────────────────────────────────────────────────────────
// Reversal is "undo the stock effect", not "replay validation": adding stock
// back is always valid regardless of the current level, so no stock checks
// run here. If a product was deleted after the sale, its line is skipped and
// the partial reversal is surfaced to the operator instead of failing the
// whole void.

func (s *ventaService) AnularVenta(ctx context.Context, ident Identidad, ventaID uuid.UUID, motivo string) (*dto.AnulacionResponse, error) {
	venta, err := s.repo.FindByID(ctx, ident.NegocioID, ventaID)
	if err != nil {
		return nil, ErrVentaNoEncontrada
	}
	if venta.Estado != model.VentaCompletada {
		return nil, ErrVentaYaAnulada
	}
	if !ident.PuedeAnular() {
		return nil, ErrNoAutorizado
	}

	var omitidos []string
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		omitidos = omitidos[:0]
		for _, item := range venta.Items {
			p, err := s.productoRepo.FindByIDForUpdateTx(tx, ident.NegocioID, item.ProductoID)
			if err != nil {
				if esConflicto(err) {
					return err
				}
				omitidos = append(omitidos, item.ProductoID.String())
				log.Warn().
					Str("venta_id", venta.ID.String()).
					Str("producto_id", item.ProductoID.String()).
					Msg("anulación parcial: el producto ya no existe, stock no restaurado")
				continue
			}
			if err := s.productoRepo.UpdateStockTx(tx, item.ProductoID, item.Cantidad); err != nil {
				return err
			}
			ref := venta.ID
			mov := &model.MovimientoStock{
				NegocioID:     ident.NegocioID,
				ProductoID:    item.ProductoID,
				Tipo:          "restore_anulacion",
				Cantidad:      item.Cantidad,
				StockAnterior: p.Stock,
				StockNuevo:    p.Stock + item.Cantidad,
				Motivo:        "Anulación — " + motivo,
				ReferenciaID:  &ref,
			}
			if err := s.movimientos.CreateTx(tx, mov); err != nil {
				return err
			}
		}

		ahora := time.Now().UTC()
		actor := ident.UsuarioID
		venta.Estado = model.VentaAnulada
		venta.MotivoAnulacion = &motivo
		venta.AnuladaPor = &actor
		venta.AnuladaAt = &ahora
		if len(omitidos) > 0 {
			j := strings.Join(omitidos, ",")
			venta.ProductosNoRestaurados = &j
		}

		// Guarded update: if another actor voided concurrently, zero rows match
		// and the whole batch (stock restores included) rolls back.
		filas, err := s.repo.UpdateAnulacionTx(tx, venta)
		if err != nil {
			return err
		}
		if filas == 0 {
			return ErrVentaYaAnulada
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	metrics.VentasAnuladas.Inc()
	return &dto.AnulacionResponse{
		VentaID:                venta.ID.String(),
		Estado:                 model.VentaAnulada,
		ProductosNoRestaurados: omitidos,
	}, nil
}

// ListVentas returns a paginated list of sales, filtered by date and estado.
// Default filter: today's completed sales.
func (s *ventaService) ListVentas(ctx context.Context, ident Identidad, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Estado == "" {
		filter.Estado = model.VentaCompletada
	}
	ventas, total, err := s.repo.List(ctx, ident.NegocioID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.VentaResponse, 0, len(ventas))
	for _, v := range ventas {
		items = append(items, *ventaToResponse(&v))
	}
	return &dto.VentaListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, item := range v.Items {
		items = append(items, dto.ItemVentaResponse{
			ProductoID:     item.ProductoID.String(),
			Producto:       item.NombreProducto,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		})
	}
	return &dto.VentaResponse{
		ID:            v.ID.String(),
		CierreCajaID:  v.CierreCajaID.String(),
		UsuarioID:     v.UsuarioID.String(),
		Items:         items,
		Subtotal:      v.Subtotal,
		Descuento:     v.Descuento,
		Impuesto:      v.Impuesto,
		Propina:       v.Propina,
		Total:         v.Total,
		MetodoPago:    v.MetodoPago,
		MontoRecibido: v.MontoRecibido,
		Cambio:        v.Cambio,
		Estado:        v.Estado,
		CreatedAt:     v.CreatedAt.Format(time.RFC3339),
	}
}
