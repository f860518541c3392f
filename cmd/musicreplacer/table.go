package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. MaxWidth wraps longer cells; zero
// leaves the column unbounded.
type column struct {
	Header   string
	Right    bool
	MaxWidth int
}

var (
	trackColumns = []column{
		{Header: "Track"},
		{Header: "Overridden"},
	}
	overrideColumns = []column{
		{Header: "Track"},
		{Header: "Source"},
		{Header: "Duration", Right: true},
		{Header: "Origin", MaxWidth: 60},
	}
	searchColumns = []column{
		{Header: "#", Right: true},
		{Header: "Title", MaxWidth: 48},
		{Header: "Duration", Right: true},
		{Header: "Uploader", MaxWidth: 24},
		{Header: "URL"},
	}
)

// renderTable lays rows out under columns. Short rows are padded with empty
// cells and extra cells are dropped.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.Header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.MaxWidth,
		}
		if col.Right {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}
	return tw.Render()
}
