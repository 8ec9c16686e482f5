package xlsx

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrNotWorkbook is returned for input that is not an xlsx (zip) file, such
// as a legacy .xls or a CSV renamed to .xlsx.
var ErrNotWorkbook = errors.New("not an xlsx workbook")

var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// ReadRows returns every row of the first sheet as strings. Empty rows are
// kept so the remote sheet mirrors the uploaded layout.
func ReadRows(data []byte) ([][]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty workbook")
	}
	if !bytes.HasPrefix(data, zipMagic) {
		return nil, ErrNotWorkbook
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if rows == nil {
		rows = [][]string{}
	}
	return rows, nil
}
