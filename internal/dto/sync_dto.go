package dto

// EncolarVentaRequest stores a candidate sale captured while the terminal was
// offline. Enqueueing never fails for business reasons — validation happens at
// drain time, against then-current stock.
type EncolarVentaRequest struct {
	DispositivoID string                `json:"dispositivo_id" validate:"required,min=1"`
	Venta         RegistrarVentaRequest `json:"venta"          validate:"required"`
}

type EncolarVentaResponse struct {
	LocalID   int64  `json:"local_id"`
	OfflineID string `json:"offline_id"`
}

type DrenarRequest struct {
	DispositivoID string `json:"dispositivo_id" validate:"required,min=1"`
}

// EntradaFallida describes a queued sale that failed with a business error and
// was retained for manual resolution.
type EntradaFallida struct {
	LocalID   int64  `json:"local_id"`
	OfflineID string `json:"offline_id"`
	Motivo    string `json:"motivo"`
}

type DrenarResponse struct {
	Exitosas   []VentaResponse  `json:"exitosas"`
	Fallidas   []EntradaFallida `json:"fallidas"`
	Pendientes int              `json:"pendientes"` // entries left queued (connectivity cut the drain short)
}

// EstadoColaResponse is the device's queue snapshot: depth, parked entries and
// the store circuit state.
type EstadoColaResponse struct {
	Pendientes int64            `json:"pendientes"`
	Fallidas   []EntradaFallida `json:"fallidas"`
	Circuito   string           `json:"circuito"`
}
