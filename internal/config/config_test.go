package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meditriage/internal/triage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 100, cfg.RateLimit.General)
	assert.Equal(t, 20, cfg.RateLimit.Triage)
	assert.Equal(t, 200, cfg.RateLimit.Search)
	assert.Equal(t, "triage_completed", cfg.Redis.Channel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
app:
  env: test
server:
  port: "9090"
  request_timeout: 5s
triage:
  min_confidence: 0.5
  severity_scores:
    MILD: 10
  thresholds:
    emergency: 90
`)
	t.Setenv("MEDITRIAGE_DATABASE_URL", "postgres://env/db")
	t.Setenv("MEDITRIAGE_SERVER_PORT", "7070")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "postgres://env/db", cfg.Database.URL)
	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.RateLimited())

	engine, err := cfg.Triage.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.5, engine.MinConfidence)
	assert.Equal(t, 10.0, engine.SeverityScore(triage.SeverityMild))
	assert.Equal(t, 75.0, engine.SeverityScore(triage.SeveritySevere))
	assert.Equal(t, 90.0, engine.Thresholds.Emergency)
	assert.Equal(t, 60.0, engine.Thresholds.Urgent)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEngineConfigOverlay(t *testing.T) {
	engine, err := TriageConfig{
		RedFlags: []string{"Chest pain"},
		EmergencyPatterns: []PatternConfig{{
			Name:     "Sepsis",
			Symptoms: []string{"Fever", "Confusion"},
			Message:  "Call 911",
		}},
	}.EngineConfig()

	require.NoError(t, err)
	assert.Equal(t, []string{"Chest pain"}, engine.RedFlagSymptoms)
	require.Len(t, engine.Patterns, 1)
	assert.Equal(t, "Sepsis", engine.Patterns[0].Name)
	assert.Equal(t, triage.DefaultConfig().Weights, engine.Weights)
}

func TestEngineConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  TriageConfig
	}{
		{"weight above one", TriageConfig{Weights: WeightsConfig{Relevance: 1.5}}},
		{"thresholds not descending", TriageConfig{Thresholds: ThresholdsConfig{Urgent: 85}}},
		{"single symptom pattern", TriageConfig{EmergencyPatterns: []PatternConfig{{Name: "x", Symptoms: []string{"a"}, Message: "m"}}}},
		{"confidence above one", TriageConfig{MinConfidence: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.EngineConfig()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Database.URL = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Alerts.ClinicianChatID = 42
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.RateLimit.Triage = 0
	assert.Error(t, cfg.Validate())

	cfg.RateLimit.Enabled = false
	assert.NoError(t, cfg.Validate())
}
