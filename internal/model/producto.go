package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a flat SKU: every size/color combination is its own row with its
// own barcode and stock count — there is no parent/variant nesting.
// Stock is only mutated through the venta / anulación engines (and the guarded
// manual adjustment); catalog fields may be edited freely and race harmlessly.
type Producto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uni_productos_negocio_barras,priority:1"`

	Nombre       string  `gorm:"not null;index"`
	Talla        *string `gorm:"type:varchar(20)"`
	Color        *string `gorm:"type:varchar(30)"`
	CodigoBarras string  `gorm:"not null;uniqueIndex:uni_productos_negocio_barras,priority:2"`

	PrecioVenta decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	PrecioCosto *decimal.Decimal `gorm:"type:decimal(12,2)"`

	// Stock nunca queda negativo — además del chequeo en la transacción de
	// venta, la migración 000001 agrega CHECK (stock >= 0).
	Stock  int  `gorm:"not null;default:0"`
	Activo bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
