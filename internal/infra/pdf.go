package infra

import (
	"bytes"
	"fmt"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ReporteCierrePDF renders the reconciliation summary of a closed caja as a
// one-page PDF, attached to the cierre report email.
func ReporteCierrePDF(c *model.CierreCaja, usuario string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Cierre de Caja")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	linea := func(etiqueta, valor string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(60, 7, etiqueta, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, valor, "", 1, "L", false, 0, "")
	}

	monto := func(d *decimal.Decimal) string {
		if d == nil {
			return "-"
		}
		return d.StringFixed(2)
	}

	linea("Sesion", c.ID.String())
	linea("Operador", usuario)
	linea("Apertura", c.AbiertaAt.Format("2006-01-02 15:04"))
	if c.CerradaAt != nil {
		linea("Cierre", c.CerradaAt.Format("2006-01-02 15:04"))
	}
	pdf.Ln(4)

	linea("Monto de apertura", c.MontoApertura.StringFixed(2))
	linea("Ventas en efectivo", monto(c.TotalEfectivo))
	linea("Ventas con tarjeta", monto(c.TotalTarjeta))
	linea("Transferencias", monto(c.TotalTransferencia))
	linea("Total de ventas", monto(c.TotalVentas))
	pdf.Ln(4)

	linea("Efectivo contado", monto(c.MontoContado))
	if c.Diferencia != nil {
		estado := "cuadrada"
		switch {
		case c.Diferencia.IsPositive():
			estado = "sobrante"
		case c.Diferencia.IsNegative():
			estado = "faltante"
		}
		linea("Diferencia", fmt.Sprintf("%s (%s)", c.Diferencia.StringFixed(2), estado))
	}
	if c.Notas != nil && *c.Notas != "" {
		pdf.Ln(4)
		linea("Notas", *c.Notas)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
