// Package metrics exposes Prometheus counters for the sale-processing core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VentasRegistradas = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_ventas_registradas_total",
		Help: "Sales committed successfully.",
	})

	VentasRechazadas = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_ventas_rechazadas_total",
		Help: "Sales rejected by a business rule.",
	}, []string{"motivo"}) // caja_cerrada | stock_insuficiente | producto_inexistente

	ConflictosTx = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_conflictos_transaccion_total",
		Help: "Serialization conflicts observed (including retried ones).",
	})

	VentasAnuladas = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_ventas_anuladas_total",
		Help: "Sales voided.",
	})

	SyncResultados = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sync_entradas_total",
		Help: "Offline queue entries by drain outcome.",
	}, []string{"resultado"}) // comprometida | fallida | pendiente
)
