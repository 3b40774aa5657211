package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rdicomweb/config"
)

func TestLoadValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
table_name: instances
indexing:
  fields:
    studies:
      - StudyInstanceUID
      - PatientName
    series:
      - SeriesInstanceUID
      - Modality
    instances:
      - SOPInstanceUID
store_overwrite: true
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "instances", cfg.TableName)
	require.True(t, cfg.StoreOverwrite)
	require.Equal(t,
		[]string{"StudyInstanceUID", "PatientName", "SeriesInstanceUID", "Modality", "SOPInstanceUID", "filepath"},
		cfg.AllColumns())
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
indexing:
  fields:
    studies: [StudyInstanceUID]
    series: [SeriesInstanceUID]
    instances: [SOPInstanceUID]
`), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}
