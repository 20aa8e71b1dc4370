package table

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

// asciiBorder draws tables with plain ASCII so output survives pipes and logs.
var asciiBorder = lipgloss.Border{
	Top:          "-",
	Bottom:       "-",
	Left:         "|",
	Right:        "|",
	TopLeft:      "+",
	TopRight:     "+",
	BottomLeft:   "+",
	BottomRight:  "+",
	MiddleLeft:   "+",
	MiddleRight:  "+",
	Middle:       "+",
	MiddleTop:    "+",
	MiddleBottom: "+",
}

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Render draws records as a table restricted to columns, in column order.
// When columns is empty every key seen in records is used, sorted.
func Render(records []map[string]any, columns []string) string {
	if len(columns) == 0 {
		columns = Keys(records)
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, 0, len(columns))
		for _, col := range columns {
			row = append(row, Cell(rec[col]))
		}
		rows = append(rows, row)
	}
	t := ltable.New().
		Border(asciiBorder).
		BorderRow(true).
		StyleFunc(func(_, _ int) lipgloss.Style { return cellStyle }).
		Headers(columns...).
		Rows(rows...)
	return t.String() + "\n"
}

// Keys returns the sorted union of keys across records.
func Keys(records []map[string]any) []string {
	seen := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Cell renders one value. Lists become comma separated text.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, Cell(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
