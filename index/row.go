package index

import "strings"

// UndefinedValue is stored for any configured column a written row did not
// supply a value for.
const UndefinedValue = "undefined"

// Row is one indexed instance, keyed by column name. Column names are the
// configured field keywords (e.g. "StudyInstanceUID", "PatientName") plus
// the always-present "filepath".
type Row map[string]string

// NaturalKeyColumns returns the names of cols that end in "UID", sorted as
// given. These form the upsert predicate: a row's identity is the set of
// UID values it carries, not any single primary key.
func NaturalKeyColumns(cols []string) []string {
	var keys []string
	for _, c := range cols {
		if strings.HasSuffix(c, "UID") {
			keys = append(keys, c)
		}
	}
	return keys
}

// Get returns the row's value for col, or UndefinedValue if absent - the
// same fallback Write applies when persisting a row that omits a configured
// column.
func (r Row) Get(col string) string {
	if v, ok := r[col]; ok {
		return v
	}
	return UndefinedValue
}
