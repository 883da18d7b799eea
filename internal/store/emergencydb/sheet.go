package emergencydb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"yeogiro/pkg/contracts/domain"
)

// Sheet columns. Address and phone are optional.
const (
	colID        = "id"
	colName      = "name"
	colCategory  = "category"
	colAddress   = "address"
	colPhone     = "phone"
	colLatitude  = "latitude"
	colLongitude = "longitude"
)

var requiredColumns = []string{colID, colName, colCategory, colLatitude, colLongitude}

// RowError reports a bad spreadsheet row. Row is 1-based, as shown by
// spreadsheet applications.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// ReadFacilities parses facilities from sheet of the workbook at path. An
// empty sheet name selects the first sheet. Blank rows are skipped.
func ReadFacilities(path, sheet string) ([]domain.Facility, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open facility workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	columns, err := headerIndex(rows[0])
	if err != nil {
		return nil, &RowError{Row: 1, Err: err}
	}

	facilities := make([]domain.Facility, 0, len(rows)-1)
	seen := make(map[string]int, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}

		fac, err := parseRow(row, columns)
		if err != nil {
			return nil, &RowError{Row: rowNum, Err: err}
		}
		if first, dup := seen[fac.ID]; dup {
			return nil, &RowError{Row: rowNum, Err: fmt.Errorf("duplicate id %q (first on row %d)", fac.ID, first)}
		}
		seen[fac.ID] = rowNum
		facilities = append(facilities, fac)
	}
	return facilities, nil
}

func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := columns[key]; dup {
			return nil, fmt.Errorf("duplicate column %q", key)
		}
		columns[key] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func parseRow(row []string, columns map[string]int) (domain.Facility, error) {
	cell := func(col string) string {
		i, ok := columns[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	fac := domain.Facility{
		ID:       cell(colID),
		Name:     cell(colName),
		Category: strings.ToLower(cell(colCategory)),
		Address:  cell(colAddress),
		Phone:    cell(colPhone),
	}
	for _, req := range []struct{ col, val string }{
		{colID, fac.ID}, {colName, fac.Name}, {colCategory, fac.Category},
	} {
		if req.val == "" {
			return fac, fmt.Errorf("%s is empty", req.col)
		}
	}

	var err error
	if fac.Location.Lat, err = coordinate(cell(colLatitude), 90); err != nil {
		return fac, fmt.Errorf("latitude: %w", err)
	}
	if fac.Location.Lng, err = coordinate(cell(colLongitude), 180); err != nil {
		return fac, fmt.Errorf("longitude: %w", err)
	}
	return fac, nil
}

func coordinate(raw string, limit float64) (float64, error) {
	if raw == "" {
		return 0, errors.New("empty")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%v out of range", v)
	}
	return v, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
