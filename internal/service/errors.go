package service

import (
	"errors"
	"fmt"
)

// Business-rule errors. These are never retried automatically and always carry
// enough context for direct operator display. Internal store errors are logged
// and replaced at the HTTP boundary — they never reach a client.
var (
	ErrCajaCerrada       = errors.New("la caja referenciada no está abierta")
	ErrSinCajaAbierta    = errors.New("no hay caja abierta para este usuario")
	ErrCajaYaAbierta     = errors.New("ya existe una caja abierta para este usuario")
	ErrVentaNoEncontrada = errors.New("venta no encontrada")
	ErrVentaYaAnulada    = errors.New("la venta ya está anulada")
	ErrNoAutorizado      = errors.New("permisos insuficientes para anular ventas")

	// ErrConflictoTransaccion is transient: two terminals raced on the same
	// product or caja rows. Callers must treat it as retryable, never as a
	// stock error.
	ErrConflictoTransaccion = errors.New("conflicto de concurrencia, reintente la operación")

	// ErrConexion marks store connectivity failures so the caller can route
	// the sale to the offline queue instead of failing outright.
	ErrConexion = errors.New("sin conexión con el servidor")
)

// ErrProductoInexistente: a line item references a product that no longer
// exists (or was deactivated) at commit time.
type ErrProductoInexistente struct {
	ProductoID string
}

func (e *ErrProductoInexistente) Error() string {
	return fmt.Sprintf("el producto %s ya no existe o está inactivo", e.ProductoID)
}

// ErrStockInsuficiente names the product and the shortfall, per operator
// display requirements.
type ErrStockInsuficiente struct {
	Producto   string
	Solicitado int
	Disponible int
}

func (e *ErrStockInsuficiente) Error() string {
	return fmt.Sprintf("stock insuficiente de %q: se pidieron %d y quedan %d (faltan %d)",
		e.Producto, e.Solicitado, e.Disponible, e.Solicitado-e.Disponible)
}

// EsErrorDeNegocio reports whether err is a business-rule violation (as
// opposed to a transient conflict or a connectivity failure). Business errors
// are surfaced to the operator and never retried.
func EsErrorDeNegocio(err error) bool {
	var stock *ErrStockInsuficiente
	var stale *ErrProductoInexistente
	switch {
	case errors.As(err, &stock), errors.As(err, &stale):
		return true
	case errors.Is(err, ErrCajaCerrada),
		errors.Is(err, ErrSinCajaAbierta),
		errors.Is(err, ErrCajaYaAbierta),
		errors.Is(err, ErrVentaNoEncontrada),
		errors.Is(err, ErrVentaYaAnulada),
		errors.Is(err, ErrNoAutorizado):
		return true
	}
	return false
}
