package ui

import (
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/charcoal/internal/history"
)

func newTable(headers []string) *table.Table {
	t := T()
	s := t.S()
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Border)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Title.Padding(0, 1)
			}
			return s.Base.Padding(0, 1)
		}).
		Headers(headers...)
}

// PreviewTable renders the per-frame parameter table. The first row carries
// the column headers; an empty table means no parameter is dynamic.
func PreviewTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	return newTable(rows[0]).Rows(rows[1:]...).Render()
}

// HistoryTable renders recorded runs, newest first, with relative times and
// human-readable sizes.
func HistoryTable(runs []history.Run) string {
	if len(runs) == 0 {
		return ""
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		size := ""
		if r.SizeBytes > 0 {
			size = humanize.Bytes(uint64(r.SizeBytes))
		}
		rows = append(rows, []string{
			humanize.Time(r.StartedAt),
			filepath.Base(r.Source),
			r.Mode,
			r.Definition,
			formatMMSS(r.Duration),
			size,
			r.Status,
		})
	}

	s := T().S()
	statusCol := 6
	tbl := newTable([]string{"When", "Source", "Mode", "Definition", "Took", "Size", "Status"}).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Title.Padding(0, 1)
			}
			if col == statusCol {
				if runs[row].Status == history.StatusOK {
					return s.Success.Padding(0, 1)
				}
				return s.Error.Padding(0, 1)
			}
			return s.Base.Padding(0, 1)
		})
	return tbl.Render()
}
