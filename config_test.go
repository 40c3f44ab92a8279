package sdrgnss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDecodesKnownKeys(t *testing.T) {
	yamlDoc := []byte(`
gnss_sdr.internal_fs_hz: 4092000
roles:
  Acq1:
    ifreq: 4092000
    doppler_max: 5000
    coherent_integration_time_ms: 4
    folding_factor: 2
    max_dwells: 10
    pfa: 0.001
`)
	cfg, err := LoadConfig(yamlDoc)
	require.NoError(t, err)
	assert.Equal(t, 4092000, cfg.InternalFsHz)
	require.Contains(t, cfg.Roles, "Acq1")
	assert.Equal(t, 5000, cfg.Roles["Acq1"].DopplerMaxHz)
	assert.Equal(t, 0.001, cfg.Roles["Acq1"].Pfa)
}

func TestLoadConfigRoundsInvalidIntegrationTime(t *testing.T) {
	yamlDoc := []byte(`
roles:
  Acq1:
    coherent_integration_time_ms: 5
    folding_factor: 2
`)
	cfg, err := LoadConfig(yamlDoc)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Roles["Acq1"].CoherentIntegrationTimeMs)
}

func TestLoadConfigDefaultsFoldingFactor(t *testing.T) {
	yamlDoc := []byte(`
roles:
  Acq1:
    coherent_integration_time_ms: 4
`)
	cfg, err := LoadConfig(yamlDoc)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Roles["Acq1"].FoldingFactor)
	assert.Equal(t, 4, cfg.Roles["Acq1"].CoherentIntegrationTimeMs)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	_, err := LoadConfig([]byte("not: [valid: yaml"))
	assert.Error(t, err)
}
