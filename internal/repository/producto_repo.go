package repository

import (
	"context"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductoRepository is the data access contract for products. Every read is
// filtered by negocio_id — there is no cross-tenant path. Services depend on
// this interface, not on the concrete GORM implementation, enabling clean
// unit testing via stubs.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Producto, error)
	FindByBarcode(ctx context.Context, negocioID uuid.UUID, barcode string) (*model.Producto, error)
	List(ctx context.Context, negocioID uuid.UUID, filter dto.ProductoFilter) ([]model.Producto, int64, error)

	// Used inside the venta/anulación transactions — callers must pass the tx.
	// FindByIDForUpdateTx takes a row lock so concurrent commits serialize on
	// the same product instead of both reading the same stock value.
	FindByIDForUpdateTx(tx *gorm.DB, negocioID, id uuid.UUID) (*model.Producto, error)
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error

	// AjustarStock applies a guarded manual adjustment outside a sale.
	AjustarStock(ctx context.Context, negocioID, id uuid.UUID, delta int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).
		Where("negocio_id = ? AND id = ?", negocioID, id).
		First(&p).Error
	return &p, err
}

func (r *productoRepo) FindByBarcode(ctx context.Context, negocioID uuid.UUID, barcode string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).
		Where("negocio_id = ? AND codigo_barras = ? AND activo = true", negocioID, barcode).
		First(&p).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, negocioID uuid.UUID, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{}).Where("negocio_id = ?", negocioID)

	switch filter.Activo {
	case "false":
		q = q.Where("activo = false")
	case "all":
		// no filter
	default:
		q = q.Where("activo = true")
	}
	if filter.Barcode != "" {
		q = q.Where("codigo_barras = ?", filter.Barcode)
	}
	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) FindByIDForUpdateTx(tx *gorm.DB, negocioID, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("negocio_id = ? AND id = ?", negocioID, id).
		First(&p).Error
	return &p, err
}

func (r *productoRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}

func (r *productoRepo) AjustarStock(ctx context.Context, negocioID, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("negocio_id = ? AND id = ? AND activo = true", negocioID, id).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}
