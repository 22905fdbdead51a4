package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/centralmei/backend/internal/model"
)

// Report carries the filtered movement listing a PDF export renders.
type Report struct {
	Movements []model.CashMovement
	TotalIn   decimal.Decimal
	TotalOut  decimal.Decimal
	Balance   decimal.Decimal
	DateFrom  *time.Time
	DateTo    *time.Time
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Portuguese fits in cp1252, so the core fonts plus a translator are
	// enough and keep the binary free of embedded font data.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr("Relatório financeiro"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Período: %s a %s", formatDatePtr(report.DateFrom), formatDatePtr(report.DateTo))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	headers := []string{"Data", "Tipo", "Categoria", "Descrição", "Valor (R$)"}
	colWidths := []float64{24, 18, 40, 70, 28}
	drawTableRow(pdf, tr, headers, colWidths, true)

	for _, movement := range report.Movements {
		row := []string{
			formatDate(movement.MovementDate),
			flowLabel(movement.Type),
			categoryName(movement.Category),
			movement.Description,
			movement.Amount.StringFixed(2),
		}
		drawTableRow(pdf, tr, row, colWidths, false)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Total de entradas: R$ %s", report.TotalIn.StringFixed(2))), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Total de saídas: R$ %s", report.TotalOut.StringFixed(2))), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Saldo do período: R$ %s", report.Balance.StringFixed(2))), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 9)
	for i, col := range cols {
		align := "L"
		if i == len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func flowLabel(t model.FlowType) string {
	switch t {
	case model.FlowTypeIn:
		return "Entrada"
	case model.FlowTypeOut:
		return "Saída"
	default:
		return string(t)
	}
}

func categoryName(category *model.AccountCategory) string {
	if category == nil {
		return ""
	}
	return category.Name
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}
