package entity

// SummaryTotalLabel marks the totals row of the summary sheet.
const SummaryTotalLabel = "ИТОГО"

// SummaryRows builds the cross-department summary: a header with one column
// per department, a block of item rows per department (each followed by a
// blank row) and a final totals row. Only an item's own department column
// carries its count.
func SummaryRows(departments []Department, items []Item, quantities Quantities) [][]interface{} {
	header := []interface{}{"Наименование"}
	for _, d := range departments {
		header = append(header, d.Name)
	}
	header = append(header, "Итого")

	rows := [][]interface{}{header}
	totals := make([]float64, len(departments))
	for di, dept := range departments {
		rows = append(rows, padRow([]interface{}{dept.Name}, len(header)))
		for _, item := range ItemsIn(items, dept.ID) {
			row := []interface{}{item.Name}
			var itemTotal float64
			for _, d := range departments {
				var count float64
				if d.ID == item.Category {
					count = quantities.Get(d.ID, item.ID)
				}
				row = append(row, count)
				itemTotal += count
			}
			row = append(row, itemTotal)
			rows = append(rows, row)
			totals[di] += quantities.Get(dept.ID, item.ID)
		}
		rows = append(rows, padRow(nil, len(header)))
	}

	totalRow := []interface{}{SummaryTotalLabel}
	var grand float64
	for _, t := range totals {
		totalRow = append(totalRow, t)
		grand += t
	}
	totalRow = append(totalRow, grand)
	return append(rows, totalRow)
}

// LastChange returns the newest history entry for (departmentID, itemID).
// History is stored newest-first.
func LastChange(history []HistoryEntry, departmentID, itemID string) (HistoryEntry, bool) {
	for _, h := range history {
		if h.DepartmentID == departmentID && h.ItemID == itemID {
			return h, true
		}
	}
	return HistoryEntry{}, false
}

func padRow(row []interface{}, width int) []interface{} {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
