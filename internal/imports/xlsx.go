package imports

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bsm-backend/internal/normalize"
)

// ErrUnreadableFile marks a structurally unreadable workbook; unlike cell
// level problems this aborts the whole file.
var ErrUnreadableFile = errors.New("Workbook is not readable")

// ParseWorkbook reads the first sheet of an xlsx stream into header-keyed
// rows. The first row is the header; rows shorter than the header are padded
// with blanks. Fully blank rows are kept, so an index into the result maps
// straight onto a sheet row number; the importer skips them.
func ParseWorkbook(r io.Reader) ([]string, []normalize.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: no sheets", ErrUnreadableFile)
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if len(cells) == 0 {
		return nil, nil, fmt.Errorf("%w: empty sheet", ErrUnreadableFile)
	}

	headers := cells[0]
	rows := make([]normalize.Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		row := make(normalize.Row, len(headers))
		for i, header := range headers {
			var cell string
			if i < len(line) {
				cell = line[i]
			}
			row[header] = cell
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}
