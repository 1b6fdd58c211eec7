package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Tables renders every non-empty table of the page as a Markdown table.
// Tables are separated by a blank line. The first row is used as the header.
// Returns an empty string when the page has no tables.
func (p *Parser) Tables(html string) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}

	var tables []string
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		// Nested tables are rendered on their own.
		if table.ParentsFiltered("table").Length() > 0 {
			return
		}
		if md := renderTable(table); md != "" {
			tables = append(tables, md)
		}
	})
	return strings.Join(tables, "\n\n"), nil
}

func renderTable(table *goquery.Selection) string {
	var rows [][]string
	width := 0
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if !tr.ParentsFiltered("table").First().IsSelection(table) {
			return
		}
		var row []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, cellText(cell))
		})
		if isBlankRow(row) {
			return
		}
		rows = append(rows, row)
		width = max(width, len(row))
	})
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	writeRow(&b, rows[0], width)
	b.WriteString("\n|")
	for range width {
		b.WriteString(" --- |")
	}
	for _, row := range rows[1:] {
		b.WriteString("\n")
		writeRow(&b, row, width)
	}
	return b.String()
}

func writeRow(b *strings.Builder, row []string, width int) {
	b.WriteString("|")
	for i := range width {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		b.WriteString(" ")
		b.WriteString(cell)
		b.WriteString(" |")
	}
}

func cellText(cell *goquery.Selection) string {
	text := strings.Join(strings.Fields(cell.Text()), " ")
	return strings.ReplaceAll(text, "|", `\|`)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
