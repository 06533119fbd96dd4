package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hpungsan/smartgallery/internal/media"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// maxCellWidth truncates long titles so rows stay on one line.
const maxCellWidth = 48

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
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    maxCellWidth,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// itemRows flattens library items for renderTable.
func itemRows(items []media.LibraryItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		kind := string(media.KindImage)
		if it.IsVideo() {
			kind = string(media.KindVideo)
		}
		rows = append(rows, []string{
			it.ID,
			kind,
			it.DisplayTitle(),
			strings.Join(it.Tags, ", "),
			it.CreatedAt,
		})
	}
	return rows
}

var itemHeaders = []string{"ID", "Kind", "Title", "Tags", "Created"}
