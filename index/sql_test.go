package index_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rdicomweb/index"
)

func TestSQLStoreUpsertAndSearch(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "index.db")
	columns := []string{"StudyInstanceUID", "PatientName", "filepath"}

	store, err := index.OpenSQLStore("sqlite3", dsn, "instances", columns)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Write(index.Row{
		"StudyInstanceUID": "1.2.3",
		"PatientName":       "Doe^Jane",
		"filepath":          "1.2.3.dcm",
	}))
	require.NoError(t, store.Write(index.Row{
		"StudyInstanceUID": "1.2.3",
		"PatientName":       "Doe^Jane^Updated",
		"filepath":          "1.2.3.dcm",
	}))
	require.NoError(t, store.Write(index.Row{
		"StudyInstanceUID": "9.9.9",
		"filepath":          "9.9.9.dcm",
	}))

	rows, err := store.Search(index.Query{Columns: columns})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	filtered, err := store.Search(index.Query{
		Columns: columns,
		Filters: map[string]string{"StudyInstanceUID": "1.2.3"},
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "Doe^Jane^Updated", filtered[0].Get("PatientName"))

	fuzzy, err := store.Search(index.Query{
		Columns: columns,
		Filters: map[string]string{"PatientName": "Jane"},
		Fuzzy:   true,
	})
	require.NoError(t, err)
	require.Len(t, fuzzy, 1)

	deleted, err := store.Delete(map[string]string{"StudyInstanceUID": "9.9.9"})
	require.NoError(t, err)
	require.Len(t, deleted, 1)

	remaining, err := store.Search(index.Query{Columns: columns})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}

func TestSQLStoreBeginEndTransaction(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "index.db")
	columns := []string{"StudyInstanceUID", "filepath"}

	store, err := index.OpenSQLStore("sqlite3", dsn, "instances", columns)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Begin())
	require.ErrorIs(t, store.Begin(), index.ErrTransactionInProgress)
	require.NoError(t, store.Write(index.Row{"StudyInstanceUID": "1.2.3", "filepath": "a.dcm"}))
	require.NoError(t, store.End())

	rows, err := store.Search(index.Query{Columns: columns})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
