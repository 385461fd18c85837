package symbols

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrNoSymbols = errors.New("no symbols found")

// Load reads product symbols from the first column of a CSV file, one per
// row, in file order. A first row whose first column is "symbol" is treated
// as a header and skipped. Blank rows are ignored.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbols file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	syms := make([]string, 0, len(records))
	for i, record := range records {
		if len(record) == 0 {
			continue
		}

		sym := strings.TrimSpace(record[0])
		if sym == "" {
			continue
		}

		if i == 0 && strings.EqualFold(sym, "symbol") {
			continue
		}

		syms = append(syms, sym)
	}

	if len(syms) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSymbols)
	}

	return syms, nil
}
