package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CierreCaja states.
const (
	CajaAbierta = "abierta"
	CajaCerrada = "cerrada"
)

// CierreCaja is the open/close bracket around one operator's sales activity.
// At most one row per (negocio, usuario) may be "abierta" at a time — enforced
// by the service and by a partial unique index in migration 000001.
// The venta engine reads this row (locked, inside its transaction) as the
// authority on whether a sale may be committed.
type CierreCaja struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID uuid.UUID `gorm:"type:uuid;not null;index"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`

	MontoApertura decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado        string          `gorm:"type:varchar(20);not null;default:'abierta'"`

	// Populated at close from the committed ventas of the session.
	TotalEfectivo      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalTarjeta       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalTransferencia *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalVentas        *decimal.Decimal `gorm:"type:decimal(12,2)"`

	MontoContado *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Diferencia = MontoContado − (MontoApertura + TotalEfectivo).
	// Signed: positive = surplus, negative = shortage, zero = balanced.
	Diferencia *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Notas *string

	AbiertaAt time.Time
	CerradaAt *time.Time
}
