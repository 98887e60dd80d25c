package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha  string `form:"fecha"`                     // YYYY-MM-DD; empty = today
	Estado string `form:"estado,default=completada"` // completada | anulada | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

// RegistrarVentaRequest is the candidate sale built by the terminal. Unit
// prices are NOT trusted from the client: the engine reads them inside the
// commit transaction. Percentages follow the ticket convention: descuento
// applies to the subtotal; impuesto (ITBIS) and propina apply to the
// discounted base.
type RegistrarVentaRequest struct {
	CierreCajaID string             `json:"cierre_caja_id" validate:"required,uuid"`
	Items        []ItemVentaRequest `json:"items"          validate:"required,min=1,dive"`

	DescuentoPct decimal.Decimal `json:"descuento_pct" validate:"min=0,max=100"`
	ImpuestoPct  decimal.Decimal `json:"impuesto_pct"  validate:"min=0,max=100"`
	PropinaPct   decimal.Decimal `json:"propina_pct"   validate:"min=0,max=100"`

	MetodoPago string `json:"metodo_pago" validate:"required,oneof=efectivo tarjeta transferencia"`
	// MontoRecibido is required when metodo_pago = efectivo.
	MontoRecibido *decimal.Decimal `json:"monto_recibido" validate:"omitempty"`

	// OfflineID is set when the sale was captured offline and is being
	// replayed; it deduplicates double drains.
	OfflineID *string `json:"offline_id" validate:"omitempty,uuid"`
}

type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ProductoID     string          `json:"producto_id"`
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID            string              `json:"id"`
	CierreCajaID  string              `json:"cierre_caja_id"`
	UsuarioID     string              `json:"usuario_id"`
	Items         []ItemVentaResponse `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Descuento     decimal.Decimal     `json:"descuento"`
	Impuesto      decimal.Decimal     `json:"impuesto"`
	Propina       decimal.Decimal     `json:"propina"`
	Total         decimal.Decimal     `json:"total"`
	MetodoPago    string              `json:"metodo_pago"`
	MontoRecibido *decimal.Decimal    `json:"monto_recibido,omitempty"`
	Cambio        *decimal.Decimal    `json:"cambio,omitempty"`
	Estado        string              `json:"estado"`
	CreatedAt     string              `json:"created_at"`
}

// AnulacionResponse reports the outcome of a void, including any products
// whose stock could not be restored because the catalog entry is gone.
type AnulacionResponse struct {
	VentaID                string   `json:"venta_id"`
	Estado                 string   `json:"estado"`
	ProductosNoRestaurados []string `json:"productos_no_restaurados,omitempty"`
}
