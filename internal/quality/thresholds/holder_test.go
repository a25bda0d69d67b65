package thresholds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ayurtrace/ayurtrace/internal/config"
	"github.com/ayurtrace/ayurtrace/internal/quality/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHolderDefaultsWithoutFile(t *testing.T) {
	holder, err := NewHolder(config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThresholds(), holder.Get())

	holder, err = NewHolder(config.Config{QualityConfigPath: filepath.Join(t.TempDir(), "missing.yml")}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 12.0, holder.Get()[domain.TestMoistureContent].Limit)
}

func TestHolderOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quality.yml")
	content := `
quality:
  thresholds:
    - test_type: moisture_content
      bound: max
      limit: 10
      unit: "%"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	holder, err := NewHolder(config.Config{QualityConfigPath: path}, zap.NewNop())
	require.NoError(t, err)

	table := holder.Get()
	assert.Equal(t, 10.0, table[domain.TestMoistureContent].Limit)
	assert.Equal(t, 0.1, table[domain.TestPesticideResidue].Limit)
	assert.True(t, table[domain.TestPesticideResidue].Critical)
}

func TestHolderRejectsUnknownBound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quality.yml")
	content := `
quality:
  thresholds:
    - test_type: AFLATOXIN
      bound: around
      limit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := NewHolder(config.Config{QualityConfigPath: path}, zap.NewNop())
	assert.Error(t, err)
}
