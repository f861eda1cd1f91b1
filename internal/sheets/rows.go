package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"carteira/internal/core"
)

// Header is the first row of every mirrored tab.
var Header = []any{"kind", "id", "date", "description", "amount", "currentMonth", "totalMonths"}

var ErrBadRow = errors.New("malformed mirror row")

// EncodeRows flattens a profile into a header row followed by one row per
// entry, lists in display order.
func EncodeRows(p core.Profile) [][]any {
	rows := [][]any{Header}
	if p.Ledger == nil {
		return rows
	}
	for _, kind := range core.Kinds() {
		for _, e := range p.Ledger.Entries(kind) {
			rows = append(rows, []any{
				string(kind), e.ID, e.Date, e.Description, e.Amount, e.CurrentMonth, e.TotalMonths,
			})
		}
	}
	return rows
}

// DecodeRows rebuilds a profile from mirrored rows. The header and blank
// rows are skipped; cells may come back from a spreadsheet as strings.
func DecodeRows(name string, rows [][]any) (core.Profile, error) {
	lists := make(map[core.Kind][]core.Entry, 4)
	for i, row := range rows {
		cells := toStrings(row)
		if len(cells) == 0 || cells[0] == "" || (i == 0 && cells[0] == Header[0]) {
			continue
		}
		if len(cells) < 5 {
			return core.Profile{}, fmt.Errorf("row %d: %w", i+1, ErrBadRow)
		}
		kind, err := core.ParseKind(cells[0])
		if err != nil {
			return core.Profile{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		id, err := strconv.ParseInt(cells[1], 10, 64)
		if err != nil {
			return core.Profile{}, fmt.Errorf("row %d id: %w", i+1, ErrBadRow)
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(cells[4], ",", "."), 64)
		if err != nil {
			return core.Profile{}, fmt.Errorf("row %d amount: %w", i+1, ErrBadRow)
		}
		if err := core.ValidateAmount(amount); err != nil {
			return core.Profile{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		e := core.Entry{
			ID:          id,
			Date:        cells[2],
			Description: cells[3],
			Amount:      amount,
		}
		e.CurrentMonth = atoi(cell(cells, 5))
		e.TotalMonths = atoi(cell(cells, 6))
		lists[kind] = append(lists[kind], e)
	}
	return core.Profile{Name: name, Ledger: core.RestoreLedger(lists)}, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
