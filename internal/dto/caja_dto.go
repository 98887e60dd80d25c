package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoApertura decimal.Decimal `json:"monto_apertura" validate:"min=0"`
}

type CerrarCajaRequest struct {
	// MontoContado is the cash physically counted at the drawer.
	MontoContado decimal.Decimal `json:"monto_contado" validate:"min=0"`
	Notas        *string         `json:"notas"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TotalesPorMetodo struct {
	Efectivo      decimal.Decimal `json:"efectivo"`
	Tarjeta       decimal.Decimal `json:"tarjeta"`
	Transferencia decimal.Decimal `json:"transferencia"`
	Total         decimal.Decimal `json:"total"`
}

type CierreCajaResponse struct {
	ID            string            `json:"id"`
	UsuarioID     string            `json:"usuario_id"`
	MontoApertura decimal.Decimal   `json:"monto_apertura"`
	Estado        string            `json:"estado"`
	Totales       *TotalesPorMetodo `json:"totales,omitempty"`
	MontoContado  *decimal.Decimal  `json:"monto_contado,omitempty"`
	// Diferencia: positivo = sobrante, negativo = faltante, cero = cuadrada.
	Diferencia *decimal.Decimal `json:"diferencia,omitempty"`
	Notas      *string          `json:"notas,omitempty"`
	AbiertaAt  string           `json:"abierta_at"`
	CerradaAt  *string          `json:"cerrada_at,omitempty"`
}
