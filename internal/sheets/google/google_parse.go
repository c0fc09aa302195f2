package google

import (
	"fmt"
	"strconv"
	"strings"

	"footprint/internal/core"
)

// Column layout: A id, B user, C date, D item, E category, F kind,
// G quantity, H spend USD, I unit, J kg CO2e.
const lastColumn = "J"

func headerRow() []any {
	return []any{"ID", "User", "Date", "Item", "Category", "Kind", "Quantity", "Spend (USD)", "Unit", "kg CO2e"}
}

func activityRow(a core.Activity) []any {
	return []any{
		a.ID,
		a.UserID,
		a.Date.UTC().Format("2006-01-02"),
		a.ItemName,
		a.Category,
		string(a.Kind),
		a.Quantity,
		a.MonetaryAmount,
		a.Unit,
		a.Emissions,
	}
}

// indexRows maps activity ids found in column A to their 1-based row.
// The header row and blank cells are skipped.
func indexRows(values [][]any) map[string]int {
	out := make(map[string]int, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[0]))
		if id == "" || (i == 0 && strings.EqualFold(id, "id")) {
			continue
		}
		if _, dup := out[id]; !dup {
			out[id] = i + 1
		}
	}
	return out
}

// rowFromRange extracts the first row number of an A1 range such as
// "Activities!A7:J7".
func rowFromRange(rng string) (int, bool) {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	if i := strings.Index(rng, ":"); i >= 0 {
		rng = rng[:i]
	}
	digits := strings.TrimLeftFunc(rng, func(r rune) bool {
		return r < '0' || r > '9'
	})
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
