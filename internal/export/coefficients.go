package export

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// CoefficientRow is one bracket as shown in the spreadsheet.
type CoefficientRow struct {
	DurationMonths *int
	MinAmount      decimal.Decimal
	MaxAmount      decimal.NullDecimal
	Coefficient    decimal.Decimal // hundredths
}

type CoefficientSheet struct {
	LeaserName  string
	GeneratedAt string
	Rows        []CoefficientRow
}

var coefficientHeaders = []struct {
	title string
	width float64
}{
	{"Duration (months)", 18},
	{"Min amount HT", 16},
	{"Max amount HT", 16},
	{"Coefficient (%)", 16},
	{"Monthly multiplier", 20},
}

// sheetName strips the characters Excel refuses and keeps 31 runes.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Coefficients"
	}
	runes := []rune(name)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}

// GenerateCoefficientExcel renders a leaser's rate table as an xlsx file.
func GenerateCoefficientExcel(data CoefficientSheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(data.LeaserName)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(coefficientHeaders))
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	title := "Coefficients - " + data.LeaserName
	if data.GeneratedAt != "" {
		title += " (" + data.GeneratedAt + ")"
	}
	f.SetCellValue(sheet, "A1", title)
	f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle)

	for i, h := range coefficientHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, h.width)
		f.SetCellValue(sheet, col+"3", h.title)
	}
	f.SetCellStyle(sheet, "A3", lastCol+"3", headerStyle)

	for i, r := range data.Rows {
		row := i + 4
		duration := "All"
		if r.DurationMonths != nil {
			duration = fmt.Sprintf("%d", *r.DurationMonths)
		}
		maxAmount := "No limit"
		if r.MaxAmount.Valid {
			maxAmount = r.MaxAmount.Decimal.StringFixed(2)
		}
		values := []interface{}{
			duration,
			r.MinAmount.InexactFloat64(),
			maxAmount,
			r.Coefficient.InexactFloat64(),
			r.Coefficient.Div(decimal.NewFromInt(100)).InexactFloat64(),
		}
		if r.MaxAmount.Valid {
			values[2] = r.MaxAmount.Decimal.InexactFloat64()
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
