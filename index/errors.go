// Package index maintains the relational side-table that lets the web
// service search a directory of DICOM files without re-parsing every file
// on every query: one row per instance, one configured column per indexed
// field, plus filepath.
package index

import "errors"

// ErrIndexFailure wraps any backend error (SQL, CSV I/O) encountered while
// writing or querying the index.
var ErrIndexFailure = errors.New("index: operation failed")

// ErrNoNaturalKey indicates a row has no column ending in "UID", so no
// natural key can be derived for the upsert predicate.
var ErrNoNaturalKey = errors.New("index: row has no UID-suffixed column to key on")

// ErrTransactionInProgress indicates Begin was called while this store's
// advisory transaction was already open.
var ErrTransactionInProgress = errors.New("index: transaction already in progress")
