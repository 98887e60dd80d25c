package dto

import "github.com/shopspring/decimal"

// ProductoFilter is bound from query string of GET /v1/productos.
type ProductoFilter struct {
	Nombre  string `form:"nombre"`
	Barcode string `form:"barcode"`
	Activo  string `form:"activo"` // "false" | "all" | default activos
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CrearProductoRequest struct {
	Nombre       string           `json:"nombre"        validate:"required,min=2"`
	Talla        *string          `json:"talla"`
	Color        *string          `json:"color"`
	CodigoBarras string           `json:"codigo_barras" validate:"required,min=4"`
	PrecioVenta  decimal.Decimal  `json:"precio_venta"  validate:"required"`
	PrecioCosto  *decimal.Decimal `json:"precio_costo"`
	Stock        int              `json:"stock"         validate:"min=0"`
}

type AjustarStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Motivo string `json:"motivo" validate:"required,min=3"`
}

type ProductoResponse struct {
	ID           string           `json:"id"`
	Nombre       string           `json:"nombre"`
	Talla        *string          `json:"talla,omitempty"`
	Color        *string          `json:"color,omitempty"`
	CodigoBarras string           `json:"codigo_barras"`
	PrecioVenta  decimal.Decimal  `json:"precio_venta"`
	PrecioCosto  *decimal.Decimal `json:"precio_costo,omitempty"`
	Stock        int              `json:"stock"`
	Activo       bool             `json:"activo"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
