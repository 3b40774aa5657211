package index_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rdicomweb/index"
)

func TestCSVStoreUpsertAndSearch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studies.csv")
	columns := []string{"StudyInstanceUID", "PatientName", "filepath"}

	store, err := index.NewCSVStore(path, columns)
	require.NoError(t, err)

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

	var patientNames []string
	for _, r := range rows {
		patientNames = append(patientNames, r.Get("PatientName"))
	}
	require.Contains(t, patientNames, "Doe^Jane^Updated")
	require.Contains(t, patientNames, index.UndefinedValue)

	filtered, err := store.Search(index.Query{
		Columns: columns,
		Filters: map[string]string{"StudyInstanceUID": "1.2.3"},
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "Doe^Jane^Updated", filtered[0].Get("PatientName"))

	deleted, err := store.Delete(map[string]string{"StudyInstanceUID": "9.9.9"})
	require.NoError(t, err)
	require.Len(t, deleted, 1)

	remaining, err := store.Search(index.Query{Columns: columns})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}

func TestCSVStoreRequiresFilepathColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	_, err := index.NewCSVStore(path, []string{"StudyInstanceUID"})
	require.Error(t, err)
}
