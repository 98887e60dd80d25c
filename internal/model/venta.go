package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted at the terminal.
const (
	MetodoEfectivo      = "efectivo"
	MetodoTarjeta       = "tarjeta"
	MetodoTransferencia = "transferencia"
)

// Venta lifecycle states. A venta is created "completada" atomically with its
// stock decrement and can transition exactly once to "anulada"; there are no
// other transitions.
const (
	VentaCompletada = "completada"
	VentaPendiente  = "pendiente"
	VentaAnulada    = "anulada"
)

// Venta is an immutable record of a committed sale. Line items never change
// after creation; only Estado and the anulación metadata are written later.
// Invariant: Total = (Subtotal − Descuento) + Impuesto + Propina, computed
// once at commit time and never recomputed.
type Venta struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CierreCajaID uuid.UUID `gorm:"type:uuid;not null;index"`
	UsuarioID    uuid.UUID `gorm:"type:uuid;not null"`

	Items []VentaItem `gorm:"foreignKey:VentaID"`

	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuento decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Impuesto  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Propina   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	MetodoPago string `gorm:"type:varchar(20);not null"`
	// Solo para pagos en efectivo.
	MontoRecibido *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Cambio        *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Estado string `gorm:"type:varchar(20);not null;default:'completada'"`

	// OfflineID deduplicates sales replayed from the device queue.
	OfflineID *string `gorm:"uniqueIndex:uni_ventas_negocio_offline,priority:2"`

	// Anulación metadata — set exactly once, together with the stock restore.
	MotivoAnulacion *string
	AnuladaPor      *uuid.UUID `gorm:"type:uuid"`
	AnuladaAt       *time.Time
	// Comma-separated product ids whose stock could not be restored because
	// the catalog entry was deleted after the sale (partial reversal).
	ProductosNoRestaurados *string

	CreatedAt time.Time
}

// VentaItem snapshots the product name and unit price at time of sale, so the
// receipt stays correct even if the catalog changes later.
type VentaItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null"`

	NombreProducto string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
