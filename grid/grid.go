// Package grid implements the editable ledger matrix.
//
// It transforms flat account entries into a dense two-dimensional grid keyed
// by account title and period, tracks in-memory edits with copy-on-write
// snapshots, and serializes edits back into the update payload the backend
// expects. Revenue and expense titles always live in separate grids.
package grid

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Period is one (year, month) pair of the period axis.
type Period struct {
	Year  int
	Month int
}

// Label renders the period in the backend's header format.
func (p Period) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ParsePeriodLabel parses a "YYYY-MM" header into a Period.
func ParsePeriodLabel(label string) (Period, bool) {
	var p Period
	if _, err := fmt.Sscanf(label, "%4d-%2d", &p.Year, &p.Month); err != nil {
		return Period{}, false
	}
	if p.Month < 1 || p.Month > 12 {
		return Period{}, false
	}
	return p, true
}

func comparePeriods(a, b Period) int {
	if a.Year != b.Year {
		return a.Year - b.Year
	}
	return a.Month - b.Month
}

// Title is one account title on the title axis. Order is preserved exactly
// as given at build time.
type Title struct {
	ID   int64
	Code string
	Name string
}

// Entry is one flat ledger entry. A nil Amount marks an entry that exists
// server-side with no posted value.
type Entry struct {
	ID             *int64
	AccountTitleID int64
	Year           int
	Month          int
	Amount         *decimal.Decimal
}

// Cell is one editable position of the grid.
type Cell struct {
	// EntryID is the backing entry's id, nil for combinations that have
	// never been saved.
	EntryID *int64

	// Amount is nil for empty cells.
	Amount *decimal.Decimal
}

// Orientation selects which axis becomes the rows of the matrix.
type Orientation int

const (
	// RowsPeriods lays periods out as rows and titles as columns.
	RowsPeriods Orientation = iota

	// RowsTitles lays titles out as rows and periods as columns.
	RowsTitles
)

// Option configures a build.
type Option func(*buildOptions)

type buildOptions struct {
	orientation Orientation
	periods     []Period
}

// WithOrientation selects the matrix orientation.
func WithOrientation(o Orientation) Option {
	return func(b *buildOptions) { b.orientation = o }
}

// WithPeriods fixes the period axis instead of deriving it from the entries.
// Periods are still sorted ascending and deduplicated.
func WithPeriods(periods []Period) Option {
	return func(b *buildOptions) { b.periods = append([]Period(nil), periods...) }
}

// Model is the dense editable matrix. Models are immutable snapshots:
// SetCell returns a new model and leaves the receiver untouched, so a render
// holding the previous snapshot stays valid and cancelling an edit is just
// discarding the newer snapshot.
type Model struct {
	titles      []Title
	periods     []Period
	orientation Orientation

	// rows is indexed [row][col] per orientation.
	rows [][]Cell
}

// Build creates a dense matrix from an ordered title list and a flat entry
// list. The period axis is the distinct set of (year, month) pairs present in
// the entries, sorted ascending; missing combinations become empty cells.
// Entries referencing unknown titles are ignored, which is how one entry list
// is split across the revenue and expense grids.
func Build(titles []Title, entries []Entry, opts ...Option) *Model {
	var b buildOptions
	for _, opt := range opts {
		opt(&b)
	}

	titleIndex := make(map[int64]int, len(titles))
	for i, title := range titles {
		titleIndex[title.ID] = i
	}

	periods := b.periods
	if periods == nil {
		for _, e := range entries {
			if _, ok := titleIndex[e.AccountTitleID]; !ok {
				continue
			}
			periods = append(periods, Period{Year: e.Year, Month: e.Month})
		}
	}
	slices.SortFunc(periods, comparePeriods)
	periods = slices.Compact(periods)

	periodIndex := make(map[Period]int, len(periods))
	for i, p := range periods {
		periodIndex[p] = i
	}

	m := &Model{
		titles:      append([]Title(nil), titles...),
		periods:     periods,
		orientation: b.orientation,
	}
	m.rows = emptyRows(m.rowCount(), m.colCount())

	for _, e := range entries {
		ti, ok := titleIndex[e.AccountTitleID]
		if !ok {
			continue
		}
		pi, ok := periodIndex[Period{Year: e.Year, Month: e.Month}]
		if !ok {
			continue
		}
		row, col := m.position(ti, pi)
		m.rows[row][col] = Cell{EntryID: e.ID, Amount: e.Amount}
	}

	return m
}

// BuildPair builds the revenue and expense grids from one entry list. Each
// grid is scoped to its own title subset; both share the build options.
func BuildPair(revenueTitles, expenseTitles []Title, entries []Entry, opts ...Option) (revenue, expense *Model) {
	return Build(revenueTitles, entries, opts...), Build(expenseTitles, entries, opts...)
}

// FromPivot creates a model from the backend's pivoted response: one row per
// title aligned with the title ordering, one column per header label.
// Headers that fail to parse are skipped together with their columns.
func FromPivot(titles []Title, headers []string, cells [][]Cell, opts ...Option) *Model {
	var periods []Period
	var cols []int
	for i, h := range headers {
		p, ok := ParsePeriodLabel(h)
		if !ok {
			continue
		}
		periods = append(periods, p)
		cols = append(cols, i)
	}

	var entries []Entry
	for ti := range titles {
		if ti >= len(cells) {
			break
		}
		row := cells[ti]
		for pi, ci := range cols {
			if ci >= len(row) {
				break
			}
			entries = append(entries, Entry{
				ID:             row[ci].EntryID,
				AccountTitleID: titles[ti].ID,
				Year:           periods[pi].Year,
				Month:          periods[pi].Month,
				Amount:         row[ci].Amount,
			})
		}
	}

	opts = append(opts, WithPeriods(periods))
	return Build(titles, entries, opts...)
}

func emptyRows(rows, cols int) [][]Cell {
	out := make([][]Cell, rows)
	for i := range out {
		out[i] = make([]Cell, cols)
	}
	return out
}

func (m *Model) rowCount() int {
	if m.orientation == RowsTitles {
		return len(m.titles)
	}
	return len(m.periods)
}

func (m *Model) colCount() int {
	if m.orientation == RowsTitles {
		return len(m.periods)
	}
	return len(m.titles)
}

// position maps (title index, period index) to (row, col) per orientation.
func (m *Model) position(ti, pi int) (row, col int) {
	if m.orientation == RowsTitles {
		return ti, pi
	}
	return pi, ti
}

// Rows returns the number of rows.
func (m *Model) Rows() int { return m.rowCount() }

// Cols returns the number of columns.
func (m *Model) Cols() int { return m.colCount() }

// Empty reports whether the matrix has no cells at all.
func (m *Model) Empty() bool { return m.rowCount() == 0 || m.colCount() == 0 }

// Orientation returns the matrix orientation.
func (m *Model) Orientation() Orientation { return m.orientation }

// Titles returns the title axis in build order.
func (m *Model) Titles() []Title { return m.titles }

// Periods returns the period axis, ascending.
func (m *Model) Periods() []Period { return m.periods }

// Headers returns the period labels, ascending.
func (m *Model) Headers() []string {
	out := make([]string, len(m.periods))
	for i, p := range m.periods {
		out[i] = p.Label()
	}
	return out
}

// At returns the cell at (row, col). Out-of-range positions read as empty.
func (m *Model) At(row, col int) Cell {
	if row < 0 || row >= len(m.rows) {
		return Cell{}
	}
	if col < 0 || col >= len(m.rows[row]) {
		return Cell{}
	}
	return m.rows[row][col]
}

// SetCell returns a new snapshot with the raw input applied at (row, col).
// Blank or unparseable input clears the cell; a keystroke can never fail.
// Only the edited row is copied, untouched rows are shared with the receiver.
// Out-of-range positions and inputs that leave the cell's value unchanged
// return the receiver itself, so snapshot identity doubles as a dirty check.
func (m *Model) SetCell(row, col int, raw string) *Model {
	if row < 0 || row >= len(m.rows) || col < 0 || col >= len(m.rows[row]) {
		return m
	}
	if amountsEqual(m.rows[row][col].Amount, ParseAmount(raw)) {
		return m
	}

	next := *m
	next.rows = append([][]Cell(nil), m.rows...)
	edited := append([]Cell(nil), m.rows[row]...)
	edited[col] = Cell{EntryID: m.rows[row][col].EntryID, Amount: ParseAmount(raw)}
	next.rows[row] = edited
	return &next
}

func amountsEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// SetCellAt applies raw input addressed by (title index, period index),
// independent of orientation. Same copy-on-write semantics as SetCell.
func (m *Model) SetCellAt(titleIdx, periodIdx int, raw string) *Model {
	if titleIdx < 0 || titleIdx >= len(m.titles) || periodIdx < 0 || periodIdx >= len(m.periods) {
		return m
	}
	row, col := m.position(titleIdx, periodIdx)
	return m.SetCell(row, col, raw)
}

// AmountAt reads the amount addressed by (title index, period index).
func (m *Model) AmountAt(titleIdx, periodIdx int) *decimal.Decimal {
	if titleIdx < 0 || titleIdx >= len(m.titles) || periodIdx < 0 || periodIdx >= len(m.periods) {
		return nil
	}
	row, col := m.position(titleIdx, periodIdx)
	return m.rows[row][col].Amount
}

// TitleIndexByCode returns the index of the title with the given code, -1
// when absent.
func (m *Model) TitleIndexByCode(code string) int {
	for i, title := range m.titles {
		if title.Code == code {
			return i
		}
	}
	return -1
}

// PeriodIndex returns the index of the given period, -1 when absent.
func (m *Model) PeriodIndex(p Period) int {
	for i, period := range m.periods {
		if period == p {
			return i
		}
	}
	return -1
}

// UpdatePayload flattens the matrix into the backend's update shape: one row
// per title, one column per period, aligned with the ordering used at build
// time regardless of orientation.
func (m *Model) UpdatePayload() [][]Cell {
	out := make([][]Cell, len(m.titles))
	for ti := range m.titles {
		out[ti] = make([]Cell, len(m.periods))
		for pi := range m.periods {
			row, col := m.position(ti, pi)
			out[ti][pi] = m.rows[row][col]
		}
	}
	return out
}

// ColumnTotals sums the non-empty amounts of every column.
func (m *Model) ColumnTotals() []decimal.Decimal {
	totals := make([]decimal.Decimal, m.colCount())
	for _, row := range m.rows {
		for col, cell := range row {
			if cell.Amount != nil {
				totals[col] = totals[col].Add(*cell.Amount)
			}
		}
	}
	return totals
}

// RowTotals sums the non-empty amounts of every row.
func (m *Model) RowTotals() []decimal.Decimal {
	totals := make([]decimal.Decimal, m.rowCount())
	for row, cells := range m.rows {
		for _, cell := range cells {
			if cell.Amount != nil {
				totals[row] = totals[row].Add(*cell.Amount)
			}
		}
	}
	return totals
}

// GrandTotal sums every non-empty amount in the grid.
func (m *Model) GrandTotal() decimal.Decimal {
	var total decimal.Decimal
	for _, row := range m.rows {
		for _, cell := range row {
			if cell.Amount != nil {
				total = total.Add(*cell.Amount)
			}
		}
	}
	return total
}
