package index

// Query describes a QIDO-style search against the index.
type Query struct {
	// Columns is the full set of configured indexable columns for the
	// entity level being searched (e.g. study-level columns), used to
	// restrict Filters to columns that actually exist. GroupBy is not
	// checked against it.
	Columns []string
	// Filters are AND-joined equality (or, if Fuzzy, substring) predicates.
	// Keys not present in Columns are silently ignored, matching the QIDO
	// handler's "restricted to filter keys that exist as index columns"
	// rule.
	Filters map[string]string
	// Fuzzy, when true, turns each filter into a substring match (SQL LIKE
	// '%value%') instead of exact equality. CSVStore's match is
	// case-sensitive; SQLStore's follows the database's LIKE semantics.
	Fuzzy bool
	// GroupBy is the entity column results are grouped by
	// (StudyInstanceUID, SeriesInstanceUID, or filepath for instances).
	GroupBy string
	// Limit and Offset paginate the grouped result set. Limit <= 0 means
	// unlimited.
	Limit  int
	Offset int
}

// Store is the Index's storage contract. Transactions are advisory: a
// backend that cannot offer isolation (CSV) may no-op Begin/End.
type Store interface {
	// Begin opens an advisory transaction. In a backend with real
	// transactions (SQLStore), calling Begin while one is already open
	// returns ErrTransactionInProgress; CSVStore's Begin always succeeds.
	Begin() error
	// End closes the advisory transaction opened by Begin.
	End() error
	// Write upserts row: existing rows sharing row's natural key are
	// updated in place; otherwise a new row is inserted. Columns row does
	// not supply are stored as UndefinedValue.
	Write(row Row) error
	// Search returns rows matching q, one per distinct value of
	// q.GroupBy, paginated by q.Offset/q.Limit.
	Search(q Query) ([]Row, error)
	// Delete removes rows matching an equality filter set (no fuzzy
	// matching - this backs the administrative purge routes) and returns
	// the deleted rows so callers can also remove their backing files.
	Delete(filters map[string]string) ([]Row, error)
	// Close releases any resources (open files, database connections)
	// held by the store.
	Close() error
}
