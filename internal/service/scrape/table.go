package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is a header-indexed view of one HTML table.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tables extracts every table of doc. The first row containing th cells is the
// header; without th the first row is used. Rows above the header are dropped.
func Tables(doc *goquery.Document) []Table {
	var out []Table
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		var rows [][]string
		header := -1
		tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			// skip rows of nested tables
			if tr.Closest("table").Get(0) != tbl.Get(0) {
				return
			}
			cells := rowCells(tr)
			if len(cells) == 0 {
				return
			}
			if header < 0 && tr.ChildrenFiltered("th").Length() > 0 {
				header = len(rows)
			}
			rows = append(rows, cells)
		})
		if len(rows) == 0 {
			return
		}
		if header < 0 {
			header = 0
		}
		out = append(out, Table{Headers: rows[header], Rows: rows[header+1:]})
	})
	return out
}

func rowCells(tr *goquery.Selection) []string {
	var cells []string
	tr.ChildrenFiltered("th, td").Each(func(_ int, c *goquery.Selection) {
		cells = append(cells, Normalize(c.Text()))
	})
	return cells
}

// Column returns the index of the header matching the earliest alias, or -1.
// An exact match beats a substring match. Matching ignores case and whitespace.
func (t Table) Column(aliases ...string) int {
	keys := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		keys[i] = headerKey(h)
	}
	for _, a := range aliases {
		a = headerKey(a)
		if a == "" {
			continue
		}
		for i, k := range keys {
			if k == a {
				return i
			}
		}
		for i, k := range keys {
			if strings.Contains(k, a) {
				return i
			}
		}
	}
	return -1
}

// Cell returns row[i] or "" when the row is short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// FindTable returns the first table having a column for every alias group,
// together with the matched column indexes in group order.
func FindTable(tables []Table, groups ...[]string) (Table, []int, bool) {
	for _, t := range tables {
		cols := make([]int, len(groups))
		ok := true
		for i, g := range groups {
			if cols[i] = t.Column(g...); cols[i] < 0 {
				ok = false
				break
			}
		}
		if ok {
			return t, cols, true
		}
	}
	return Table{}, nil, false
}

func headerKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(Normalize(s), " ", ""))
}

// LabelValues returns the text of the cell right after each th/td whose text
// matches label, in document order with duplicates removed.
func LabelValues(doc *goquery.Document, label string) []string {
	want := headerKey(label)
	seen := map[string]bool{}
	var out []string
	doc.Find("th, td").Each(func(_ int, c *goquery.Selection) {
		if headerKey(c.Text()) != want {
			return
		}
		next := c.NextFiltered("td, th")
		if next.Length() == 0 {
			return
		}
		v := Normalize(next.Text())
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	})
	return out
}
