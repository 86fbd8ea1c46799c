package grid

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/MasatoraSakikoyama/supermarket-task-client/output"
)

// Render writes the grid as an aligned text table: one header row, one label
// column, amounts right-aligned with thousands separators, and a totals row.
// An empty grid renders as an explicit "no data" line rather than an error.
// Column widths use display width so double-width title names line up.
func (m *Model) Render(w io.Writer, styles *output.Styles) {
	if m.Empty() {
		_, _ = fmt.Fprintln(w, styles.Dim("no data"))
		return
	}

	rowLabels, colLabels := m.axisLabels()

	labelWidth := runewidth.StringWidth("total")
	for _, label := range rowLabels {
		if width := runewidth.StringWidth(label); width > labelWidth {
			labelWidth = width
		}
	}

	colTotals := m.ColumnTotals()
	rowTotals := m.RowTotals()
	grand := m.GrandTotal()

	colWidths := make([]int, len(colLabels))
	for col, label := range colLabels {
		colWidths[col] = runewidth.StringWidth(label)
		if width := runewidth.StringWidth(FormatAmount(&colTotals[col])); width > colWidths[col] {
			colWidths[col] = width
		}
		for row := range m.rows {
			if width := runewidth.StringWidth(FormatAmount(m.rows[row][col].Amount)); width > colWidths[col] {
				colWidths[col] = width
			}
		}
	}
	totalWidth := runewidth.StringWidth("total")
	for row := range rowTotals {
		if width := runewidth.StringWidth(FormatAmount(&rowTotals[row])); width > totalWidth {
			totalWidth = width
		}
	}
	if width := runewidth.StringWidth(FormatAmount(&grand)); width > totalWidth {
		totalWidth = width
	}

	// Header row.
	var line strings.Builder
	line.WriteString(strings.Repeat(" ", labelWidth))
	for col, label := range colLabels {
		line.WriteString("  ")
		line.WriteString(pad(styles.Period(label), label, colWidths[col]))
	}
	line.WriteString("  ")
	line.WriteString(padLeft(styles.Keyword("total"), "total", totalWidth))
	_, _ = fmt.Fprintln(w, line.String())

	// Body rows, each closed by its own total.
	for row, label := range rowLabels {
		line.Reset()
		line.WriteString(pad(styles.Title(label), label, labelWidth))
		for col := range colLabels {
			cell := FormatAmount(m.rows[row][col].Amount)
			line.WriteString("  ")
			line.WriteString(padLeft(styles.Amount(cell), cell, colWidths[col]))
		}
		total := FormatAmount(&rowTotals[row])
		line.WriteString("  ")
		line.WriteString(padLeft(styles.Keyword(total), total, totalWidth))
		_, _ = fmt.Fprintln(w, line.String())
	}

	// Totals row, closed by the grand total.
	line.Reset()
	line.WriteString(pad(styles.Keyword("total"), "total", labelWidth))
	for col := range colLabels {
		total := FormatAmount(&colTotals[col])
		line.WriteString("  ")
		line.WriteString(padLeft(styles.Keyword(total), total, colWidths[col]))
	}
	grandText := FormatAmount(&grand)
	line.WriteString("  ")
	line.WriteString(padLeft(styles.Keyword(grandText), grandText, totalWidth))
	_, _ = fmt.Fprintln(w, line.String())
}

// axisLabels returns the row and column labels per orientation.
func (m *Model) axisLabels() (rows, cols []string) {
	titleLabels := make([]string, len(m.titles))
	for i, title := range m.titles {
		titleLabels[i] = title.Name
	}
	periodLabels := m.Headers()

	if m.orientation == RowsTitles {
		return titleLabels, periodLabels
	}
	return periodLabels, titleLabels
}

// pad appends spaces after styled so the plain text occupies width columns.
// The styled string may carry escape sequences, so padding is computed from
// the plain text.
func pad(styled, plain string, width int) string {
	gap := width - runewidth.StringWidth(plain)
	if gap <= 0 {
		return styled
	}
	return styled + strings.Repeat(" ", gap)
}

// padLeft right-aligns styled within width columns.
func padLeft(styled, plain string, width int) string {
	gap := width - runewidth.StringWidth(plain)
	if gap <= 0 {
		return styled
	}
	return strings.Repeat(" ", gap) + styled
}
