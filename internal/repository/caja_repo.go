package repository

import (
	"context"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CajaRepository interface {
	Create(ctx context.Context, c *model.CierreCaja) error
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.CierreCaja, error)
	FindAbiertaPorUsuario(ctx context.Context, negocioID, usuarioID uuid.UUID) (*model.CierreCaja, error)
	Update(ctx context.Context, c *model.CierreCaja) error
	Historial(ctx context.Context, negocioID uuid.UUID, page, limit int) ([]model.CierreCaja, error)

	// FindByIDForUpdateTx locks the session row inside the venta transaction:
	// a concurrent close blocks until the sale commits (or the sale sees the
	// already-closed state), eliminating the check-then-act race.
	FindByIDForUpdateTx(tx *gorm.DB, negocioID, id uuid.UUID) (*model.CierreCaja, error)

	// UpdateTx writes the close inside the same transaction that locked the
	// row and summed its ventas, so the totals cover every committed sale.
	UpdateTx(tx *gorm.DB, c *model.CierreCaja) error
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) Create(ctx context.Context, c *model.CierreCaja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).
		Where("negocio_id = ? AND id = ?", negocioID, id).
		First(&c).Error
	return &c, err
}

func (r *cajaRepo) FindAbiertaPorUsuario(ctx context.Context, negocioID, usuarioID uuid.UUID) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).
		Where("negocio_id = ? AND usuario_id = ? AND estado = ?", negocioID, usuarioID, model.CajaAbierta).
		First(&c).Error
	return &c, err
}

func (r *cajaRepo) Update(ctx context.Context, c *model.CierreCaja) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *cajaRepo) Historial(ctx context.Context, negocioID uuid.UUID, page, limit int) ([]model.CierreCaja, error) {
	var cierres []model.CierreCaja
	err := r.db.WithContext(ctx).
		Where("negocio_id = ?", negocioID).
		Order("abierta_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&cierres).Error
	return cierres, err
}

func (r *cajaRepo) FindByIDForUpdateTx(tx *gorm.DB, negocioID, id uuid.UUID) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("negocio_id = ? AND id = ?", negocioID, id).
		First(&c).Error
	return &c, err
}

func (r *cajaRepo) UpdateTx(tx *gorm.DB, c *model.CierreCaja) error {
	return tx.Save(c).Error
}
