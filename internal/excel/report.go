package excel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/centralmei/backend/internal/model"
)

// Report is the movement listing an export renders, already filtered and
// totalled by the caller.
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
	file := excelize.NewFile()

	summarySheet := "Resumo"
	file.SetSheetName("Sheet1", summarySheet)
	g.writeSummary(file, summarySheet, report)

	detailSheet := "Movimentações"
	file.NewSheet(detailSheet)
	g.writeDetail(file, detailSheet, report)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report Report) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Relatório financeiro")
	set("A2", "Início do período")
	set("B2", formatDatePtr(report.DateFrom))
	set("A3", "Fim do período")
	set("B3", formatDatePtr(report.DateTo))
	set("A4", "Quantidade de movimentações")
	set("B4", len(report.Movements))
	set("A5", "Total de entradas (R$)")
	set("B5", formatAmount(report.TotalIn))
	set("A6", "Total de saídas (R$)")
	set("B6", formatAmount(report.TotalOut))
	set("A7", "Saldo do período (R$)")
	set("B7", formatAmount(report.Balance))

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "B", 18)
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, report Report) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Data",
		"Tipo",
		"Categoria",
		"Subcategoria",
		"Descrição",
		"Valor (R$)",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, movement := range report.Movements {
		row := i + 2
		set(fmt.Sprintf("A%d", row), formatDate(movement.MovementDate))
		set(fmt.Sprintf("B%d", row), flowLabel(movement.Type))
		set(fmt.Sprintf("C%d", row), categoryName(movement.Category))
		set(fmt.Sprintf("D%d", row), subcategoryName(movement.Subcategory))
		set(fmt.Sprintf("E%d", row), movement.Description)
		set(fmt.Sprintf("F%d", row), formatAmount(movement.Amount))
	}

	totalsRow := len(report.Movements) + 3
	set(fmt.Sprintf("E%d", totalsRow), "Entradas")
	set(fmt.Sprintf("F%d", totalsRow), formatAmount(report.TotalIn))
	set(fmt.Sprintf("E%d", totalsRow+1), "Saídas")
	set(fmt.Sprintf("F%d", totalsRow+1), formatAmount(report.TotalOut))
	set(fmt.Sprintf("E%d", totalsRow+2), "Saldo")
	set(fmt.Sprintf("F%d", totalsRow+2), formatAmount(report.Balance))

	_ = file.SetColWidth(sheet, "A", "A", 14)
	_ = file.SetColWidth(sheet, "B", "B", 10)
	_ = file.SetColWidth(sheet, "C", "D", 24)
	_ = file.SetColWidth(sheet, "E", "E", 40)
	_ = file.SetColWidth(sheet, "F", "F", 14)
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

func subcategoryName(subcategory *model.AccountSubcategory) string {
	if subcategory == nil {
		return ""
	}
	return subcategory.Name
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

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}
