package web_test

import (
	"strings"

	"rdicomweb/index"
)

// fakeStore is an in-memory index.Store double for exercising the web
// handlers without a real SQL or CSV backend.
type fakeStore struct {
	rows []index.Row
}

func (f *fakeStore) Begin() error { return nil }
func (f *fakeStore) End() error   { return nil }
func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) Write(row index.Row) error {
	keyCols := index.NaturalKeyColumns(keysOf(row))
	for i, existing := range f.rows {
		if sameKey(existing, row, keyCols) {
			f.rows[i] = row
			return nil
		}
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeStore) Search(q index.Query) ([]index.Row, error) {
	allowed := make(map[string]bool, len(q.Columns))
	for _, c := range q.Columns {
		allowed[c] = true
	}

	var matched []index.Row
	for _, row := range f.rows {
		if rowMatches(row, q.Filters, allowed, q.Fuzzy) {
			matched = append(matched, row)
		}
	}

	grouped := groupRows(matched, q.GroupBy)
	if q.Offset > 0 {
		if q.Offset >= len(grouped) {
			return nil, nil
		}
		grouped = grouped[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(grouped) {
		grouped = grouped[:q.Limit]
	}
	return grouped, nil
}

func (f *fakeStore) Delete(filters map[string]string) ([]index.Row, error) {
	var kept, deleted []index.Row
	for _, row := range f.rows {
		match := true
		for col, val := range filters {
			if row.Get(col) != val {
				match = false
				break
			}
		}
		if match {
			deleted = append(deleted, row)
		} else {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return deleted, nil
}

func keysOf(row index.Row) []string {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	return cols
}

func sameKey(a, b index.Row, keyCols []string) bool {
	if len(keyCols) == 0 {
		return false
	}
	for _, k := range keyCols {
		if a.Get(k) != b.Get(k) {
			return false
		}
	}
	return true
}

func rowMatches(row index.Row, filters map[string]string, allowed map[string]bool, fuzzy bool) bool {
	for col, val := range filters {
		if !allowed[col] {
			continue
		}
		actual := row.Get(col)
		if fuzzy {
			if !strings.Contains(actual, val) {
				return false
			}
		} else if actual != val {
			return false
		}
	}
	return true
}

func groupRows(rows []index.Row, groupBy string) []index.Row {
	if groupBy == "" {
		return rows
	}
	seen := make(map[string]bool, len(rows))
	var out []index.Row
	for _, row := range rows {
		key := row.Get(groupBy)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}
