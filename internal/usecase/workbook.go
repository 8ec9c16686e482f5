package usecase

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/quantity"
)

const (
	workbookColumns   = 6
	workbookHeaderLen = 8
	workbookFooterGap = 6
	workbookRowHeight = 20
)

var workbookColumnWidths = []float64{15, 5, 40, 8, 15, 15}

// WorkbookInput is everything one department document is built from.
type WorkbookInput struct {
	Brand      string
	City       string
	Department entity.Department
	Items      []entity.Item
	Quantities entity.Quantities
	Date       time.Time
}

// unitFor returns the unit of measure printed for an item. Only household
// goods carry a unit hint in their name.
func unitFor(departmentID, itemName string) string {
	if departmentID != constants.DepartmentHousehold {
		return "шт"
	}
	switch {
	case strings.Contains(itemName, "(л)"):
		return "л."
	case strings.Contains(itemName, "(кг)"):
		return "кг"
	default:
		// "(уп)", "(рул)" and everything else are counted in pieces
		return "шт"
	}
}

// WorkbookRows returns the document rows in order: header block, one row per
// department item, blank spacer rows and the signature row.
func WorkbookRows(in WorkbookInput) [][]interface{} {
	org := strings.TrimSpace(in.Brand + " " + in.City)
	rows := [][]interface{}{
		{"Організація:", org},
		{"Бланк інвентаризації", ""},
		{"", ""},
		{"Дата:", in.Date.Format("02.01.2006")},
		{"Склад", fmt.Sprintf("%s (%s)", org, in.Department.Name)},
		{"", ""},
		{"Товар", "", "", "Од. вим.", "Залишок фактичний", "Позначки"},
		{"Код", "Штрих-код", "Найменування", "", "", ""},
	}
	for _, item := range entity.ItemsIn(in.Items, in.Department.ID) {
		rows = append(rows, []interface{}{
			item.Code(),
			"",
			item.Name,
			unitFor(in.Department.ID, item.Name),
			in.Quantities.Get(in.Department.ID, item.ID),
			"",
		})
	}
	for i := 0; i < workbookFooterGap; i++ {
		rows = append(rows, []interface{}{"", "", "", "", "", ""})
	}
	rows = append(rows, []interface{}{
		"Інвентаризацію провів: ______________________________",
		"",
		"",
		"Інвентаризацію прийняв: ____________________________",
		"",
		"",
	})
	return rows
}

// WorkbookFileName is "Інвентаризація_<department>_<YYYY-MM-DD>.xlsx".
func WorkbookFileName(departmentName string, date time.Time) string {
	return fmt.Sprintf("Інвентаризація_%s_%s.xlsx", departmentName, date.Format("2006-01-02"))
}

// sheetName makes a department name a valid Excel sheet name.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), "'")
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	if name == "" {
		name = "Sheet1"
	}
	return name
}

// BuildWorkbook renders one department document as xlsx bytes.
func BuildWorkbook(in WorkbookInput) ([]byte, error) {
	rows := WorkbookRows(in)
	dataRows := len(rows) - workbookHeaderLen - workbookFooterGap - 1

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(in.Department.Name)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := styleWorkbook(f, sheet, in.Department.ID, len(rows), dataRows); err != nil {
		return nil, fmt.Errorf("style sheet: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}
}

func styleWorkbook(f *excelize.File, sheet, departmentID string, totalRows, dataRows int) error {
	lastCol, _ := excelize.ColumnNumberToName(workbookColumns)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	columnHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		return err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		return err
	}
	nameStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
		Border:    thinBorder(),
	})
	if err != nil {
		return err
	}
	// 1 = "0", 2 = "0.00"
	numFmt := 1
	if quantity.PolicyFor(departmentID) != quantity.Integer {
		numFmt = 2
	}
	quantityStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorder(),
		NumFmt:    numFmt,
	})
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s%d", lastCol, workbookHeaderLen-2), headerStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", workbookHeaderLen-1), fmt.Sprintf("%s%d", lastCol, workbookHeaderLen), columnHeaderStyle); err != nil {
		return err
	}
	if dataRows > 0 {
		first, last := workbookHeaderLen+1, workbookHeaderLen+dataRows
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", first), fmt.Sprintf("%s%d", lastCol, last), dataStyle); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("C%d", first), fmt.Sprintf("C%d", last), nameStyle); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("E%d", first), fmt.Sprintf("E%d", last), quantityStyle); err != nil {
			return err
		}
	}
	footerFrom := workbookHeaderLen + dataRows + 1
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", footerFrom), fmt.Sprintf("%s%d", lastCol, totalRows), headerStyle); err != nil {
		return err
	}

	for i, w := range workbookColumnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	for r := 1; r <= totalRows; r++ {
		if err := f.SetRowHeight(sheet, r, workbookRowHeight); err != nil {
			return err
		}
	}
	return f.SetHeaderFooter(sheet, &excelize.HeaderFooterOptions{OddFooter: "&C&P із &N"})
}
