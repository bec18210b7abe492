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

type tableOptions struct {
	title    string
	colorize bool
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, opts ...tableOptions) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}
	var opt tableOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if opt.colorize {
		tw.Style().Color.Header = text.Colors{text.Bold, text.FgCyan}
	}
	if opt.title != "" {
		tw.SetTitle(opt.title)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render() + "\n"
}
