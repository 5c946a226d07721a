// Package results loads machine-learning run result directories into tabular
// sessions and provides fragment-based column selection over them.
package results

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// StepIndexName is the index name given to every loaded log table.
const StepIndexName = "Step number"

// Column is one named column of a table. Numeric columns keep their samples
// in Values (NaN marks a missing cell); columns with non-numeric content keep
// trimmed strings in Text instead ("" marks a missing cell).
type Column struct {
	Name   string
	Values []float64
	Text   []string
}

// IsText reports whether the column holds strings rather than numbers.
func (c *Column) IsText() bool { return c.Text != nil }

// Len returns the number of cells.
func (c *Column) Len() int {
	if c.IsText() {
		return len(c.Text)
	}
	return len(c.Values)
}

// Floats returns the numeric samples by reference, or nil for a text column.
func (c *Column) Floats() []float64 { return c.Values }

// Cell renders one cell as a string, floats in scientific notation.
func (c *Column) Cell(i int) string {
	if c.IsText() {
		return strings.TrimSpace(c.Text[i])
	}
	return fmt.Sprintf("%e", c.Values[i])
}

// Table is an ordered set of named columns aligned on a shared integer row
// index. Projections made by Select share column storage with their source.
type Table struct {
	IndexName string
	Index     []int64
	Columns   []*Column
}

// Table implements the provider interface the plotting package consumes, so
// a Table can be passed wherever a Session can.
func (t *Table) Table() *Table { return t }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Index) }

// Column returns the column with the exact given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasColumn reports whether a column with the exact given name exists.
func (t *Table) HasColumn(name string) bool { return t.Column(name) != nil }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// AddColumn appends a numeric column aligned with the table index. The values
// slice must have one entry per row.
func (t *Table) AddColumn(name string, values []float64) *Column {
	c := &Column{Name: name, Values: values}
	t.Columns = append(t.Columns, c)
	return c
}

// Select projects columns whose lowercased name contains any of the given
// fragments. With no fragments the table itself is returned. Matches keep
// their first-seen order across fragments and are never duplicated; the
// projection shares column storage with the source, so mutations propagate.
func Select(t *Table, fragments ...string) *Table {
	if len(fragments) == 0 {
		return t
	}
	sub := &Table{IndexName: t.IndexName, Index: t.Index}
	taken := make(map[string]bool, len(t.Columns))
	for _, fragment := range fragments {
		fragment = strings.ToLower(fragment)
		for _, c := range t.Columns {
			if !taken[c.Name] && strings.Contains(strings.ToLower(c.Name), fragment) {
				taken[c.Name] = true
				sub.Columns = append(sub.Columns, c)
			}
		}
	}
	return sub
}

// Discard drops columns whose lowercased name contains any of the given
// fragments. With no fragments the table itself is returned; otherwise the
// result is a shallow copy (row data still shared with the source).
func Discard(t *Table, fragments ...string) *Table {
	if len(fragments) == 0 {
		return t
	}
	out := &Table{IndexName: t.IndexName, Index: t.Index}
	for _, c := range t.Columns {
		drop := false
		lower := strings.ToLower(c.Name)
		for _, fragment := range fragments {
			if strings.Contains(lower, strings.ToLower(fragment)) {
				drop = true
				break
			}
		}
		if !drop {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}

// StringGrid renders the table as strings for grid display: a header row of
// the index name followed by the column names, then one row per table row.
func (t *Table) StringGrid() [][]string {
	header := append([]string{t.IndexName}, t.ColumnNames()...)
	grid := make([][]string, 0, len(t.Index)+1)
	grid = append(grid, header)
	for i := range t.Index {
		row := make([]string, 0, len(t.Columns)+1)
		row = append(row, strconv.FormatInt(t.Index[i], 10))
		for _, c := range t.Columns {
			row = append(row, c.Cell(i))
		}
		grid = append(grid, row)
	}
	return grid
}

// Join outer-joins two tables on their row index: the result covers the union
// of both step sets in ascending order, with missing cells left NaN (numeric)
// or empty (text). Column data is copied into the result.
func (t *Table) Join(other *Table) *Table {
	steps := make([]int64, 0, len(t.Index)+len(other.Index))
	seen := make(map[int64]bool, len(t.Index)+len(other.Index))
	for _, tab := range []*Table{t, other} {
		for _, s := range tab.Index {
			if !seen[s] {
				seen[s] = true
				steps = append(steps, s)
			}
		}
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })
	out := &Table{IndexName: t.IndexName, Index: steps}
	for _, tab := range []*Table{t, other} {
		pos := make(map[int64]int, len(tab.Index))
		for i, s := range tab.Index {
			pos[s] = i
		}
		for _, c := range tab.Columns {
			out.Columns = append(out.Columns, realign(c, pos, steps))
		}
	}
	return out
}

func realign(c *Column, pos map[int64]int, steps []int64) *Column {
	if c.IsText() {
		text := make([]string, len(steps))
		for i, s := range steps {
			if j, ok := pos[s]; ok {
				text[i] = c.Text[j]
			}
		}
		return &Column{Name: c.Name, Text: text}
	}
	values := make([]float64, len(steps))
	for i, s := range steps {
		if j, ok := pos[s]; ok {
			values[i] = c.Values[j]
		} else {
			values[i] = math.NaN()
		}
	}
	return &Column{Name: c.Name, Values: values}
}

// ReadLog loads a tab-separated log file whose header row names the columns
// and whose first column is the integer step index (renamed StepIndexName).
// Cells equal to one of the missing literals, or empty, are treated as
// missing. A column whose non-missing cells do not all parse as floats is
// kept as text.
func ReadLog(path string, missingLiterals ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open log %q", path)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse log %q", path)
	}
	if len(records) < 1 || len(records[0]) < 1 {
		return nil, errors.Errorf("log %q has no header row", path)
	}
	header := records[0]
	rows := records[1:]
	missing := func(cell string) bool {
		if strings.TrimSpace(cell) == "" {
			return true
		}
		for _, lit := range missingLiterals {
			if cell == lit {
				return true
			}
		}
		return false
	}
	table := &Table{IndexName: StepIndexName, Index: make([]int64, len(rows))}
	for i, row := range rows {
		if len(row) == 0 {
			return nil, errors.Errorf("log %q: row %d is empty", path, i+2)
		}
		step, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "log %q: row %d has no integer step index", path, i+2)
		}
		table.Index[i] = step
	}
	for j := 1; j < len(header); j++ {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				// Rows may be ragged; out-of-range cells stay missing.
				raw[i] = row[j]
			}
		}
		table.Columns = append(table.Columns, buildColumn(strings.TrimSpace(header[j]), raw, missing))
	}
	return table, nil
}

func buildColumn(name string, raw []string, missing func(string) bool) *Column {
	values := make([]float64, len(raw))
	for i, cell := range raw {
		if missing(cell) {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			// Fall back to a text column.
			text := make([]string, len(raw))
			for k, c := range raw {
				if !missing(c) {
					text[k] = strings.TrimSpace(c)
				}
			}
			return &Column{Name: name, Text: text}
		}
		values[i] = v
	}
	return &Column{Name: name, Values: values}
}
