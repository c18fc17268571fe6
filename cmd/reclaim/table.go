package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// pathColumnWidth caps path-heavy columns so quarantine and storage tables
// stay readable on a normal terminal.
const pathColumnWidth = 72

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignHeader:      text.AlignLeft,
			WidthMax:         pathColumnWidth,
			WidthMaxEnforcer: trimCell,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// trimCell shortens an overlong cell keeping the tail, which for absolute
// paths is the part an operator needs to recognize the file.
func trimCell(col string, maxLen int) string {
	if maxLen <= 0 || len(col) <= maxLen {
		return col
	}
	if maxLen <= 3 {
		return col[len(col)-maxLen:]
	}
	return "..." + col[len(col)-maxLen+3:]
}
