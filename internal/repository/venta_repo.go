package repository

import (
	"context"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Venta, error)
	FindByOfflineID(ctx context.Context, negocioID uuid.UUID, offlineID string) (*model.Venta, error)
	List(ctx context.Context, negocioID uuid.UUID, filter dto.VentaFilter) ([]model.Venta, int64, error)

	// UpdateAnulacionTx writes estado=anulada plus the void metadata in the
	// same batch as the compensating stock updates. Only matches a venta that
	// is still completada; returns the number of rows updated so the caller
	// can detect a concurrent void.
	UpdateAnulacionTx(tx *gorm.DB, v *model.Venta) (int64, error)

	// SumPorMetodo aggregates completed sales of one caja session per payment
	// method; used by the drawer close to populate its totals.
	SumPorMetodo(ctx context.Context, negocioID, cierreCajaID uuid.UUID) (map[string]decimal.Decimal, error)
	// SumPorMetodoTx is the same aggregate inside the close transaction, read
	// after the session row lock so in-flight sales are either counted or
	// rejected, never lost.
	SumPorMetodoTx(tx *gorm.DB, negocioID, cierreCajaID uuid.UUID) (map[string]decimal.Decimal, error)

	DB() *gorm.DB
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return tx.WithContext(ctx).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items").
		Where("negocio_id = ? AND id = ?", negocioID, id).
		First(&v).Error
	return &v, err
}

func (r *ventaRepo) FindByOfflineID(ctx context.Context, negocioID uuid.UUID, offlineID string) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items").
		Where("negocio_id = ? AND offline_id = ?", negocioID, offlineID).
		First(&v).Error
	return &v, err
}

func (r *ventaRepo) List(ctx context.Context, negocioID uuid.UUID, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Venta{}).Where("negocio_id = ?", negocioID)

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Fecha != "" {
		q = q.Where("DATE(created_at) = ?", filter.Fecha)
	} else {
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error

	return ventas, total, err
}

func (r *ventaRepo) UpdateAnulacionTx(tx *gorm.DB, v *model.Venta) (int64, error) {
	res := tx.Model(&model.Venta{}).
		Where("id = ? AND estado = ?", v.ID, model.VentaCompletada).
		Updates(map[string]interface{}{
			"estado":                   v.Estado,
			"motivo_anulacion":         v.MotivoAnulacion,
			"anulada_por":              v.AnuladaPor,
			"anulada_at":               v.AnuladaAt,
			"productos_no_restaurados": v.ProductosNoRestaurados,
		})
	return res.RowsAffected, res.Error
}

func (r *ventaRepo) SumPorMetodo(ctx context.Context, negocioID, cierreCajaID uuid.UUID) (map[string]decimal.Decimal, error) {
	return r.SumPorMetodoTx(r.db.WithContext(ctx), negocioID, cierreCajaID)
}

func (r *ventaRepo) SumPorMetodoTx(tx *gorm.DB, negocioID, cierreCajaID uuid.UUID) (map[string]decimal.Decimal, error) {
	type fila struct {
		MetodoPago string
		Suma       decimal.Decimal
	}
	var filas []fila
	err := tx.Model(&model.Venta{}).
		Select("metodo_pago, COALESCE(SUM(total), 0) AS suma").
		Where("negocio_id = ? AND cierre_caja_id = ? AND estado = ?", negocioID, cierreCajaID, model.VentaCompletada).
		Group("metodo_pago").
		Scan(&filas).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal, len(filas))
	for _, f := range filas {
		sums[f.MetodoPago] = f.Suma
	}
	return sums, nil
}
