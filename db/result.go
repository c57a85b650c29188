package db

import (
	"fmt"
	"io"
	"strings"

	"github.com/gertd/go-pluralize"
	"github.com/nickyhof/SQLitePlus/core"
)

var plural = pluralize.NewClient()

// Result is the row buffer of one execution.
type Result struct {
	Columns          []string
	Rows             []core.Row
	Statements       int   // statements executed
	RowsAffected     int64 // rows inserted, updated or deleted
	ExecutionTimeSec float64
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	if secs < 0.001 {
		return "<1ms"
	} else if secs < 1 {
		ms := secs * 1000
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	} else if secs < 60 {
		if secs < 10 {
			return fmt.Sprintf("%.1fs", secs)
		}
		return fmt.Sprintf("%ds", int(secs))
	}
	mins := int(secs / 60)
	remainSecs := int(secs) % 60
	if remainSecs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%ds", mins, remainSecs)
}

func (result Result) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

// Summary is the one-line status printed after a result.
func (result Result) Summary() string {
	var parts []string
	if len(result.Columns) > 0 {
		parts = append(parts, plural.Pluralize("row", len(result.Rows), true))
	}
	if result.RowsAffected > 0 {
		parts = append(parts, plural.Pluralize("row", int(result.RowsAffected), true)+" affected")
	}
	if len(parts) == 0 {
		return fmt.Sprintf("OK (%s)", result.ExecutionTime())
	}
	return fmt.Sprintf("%s (%s)", strings.Join(parts, ", "), result.ExecutionTime())
}

// Display renders the rows as a table followed by the summary line.
func (result Result) Display(w io.Writer) {
	if len(result.Rows) > 0 {
		table := NewTable(w)
		table.Header(result.Columns)
		table.Bulk(result.Rows)
		table.Render()
	}
	fmt.Fprintln(w, result.Summary())
}

// Display renders the session's row buffer to w.
func (s *Session) Display(w io.Writer) {
	s.result.Display(w)
}
