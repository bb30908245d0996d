package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadFrom_EnvOnly(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("MAX_EQUATIONS", "5")
	t.Setenv("ENABLE_CACHE", "true")
	t.Setenv("CACHE_TTL_SECONDS", "30")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, 5, cfg.Solver.MaxEquations)
	assert.Equal(t, "drop", cfg.Solver.UnclassifiedPolicy)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFrom_MissingPort(t *testing.T) {
	t.Setenv("APP_PORT", "")
	_, err := LoadFrom("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_PORT")
}

func TestLoadFrom_LambdaNeedsNoPort(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "equation-solver")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.True(t, cfg.IsLambda)
}

func TestLoadFrom_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
port: 8081
environment: staging
solver:
  unclassified_policy: reject
  max_equations: 10
cache:
  enabled: true
  ttl: 2m
`)
	t.Setenv("APP_PORT", "")
	t.Setenv("MAX_EQUATIONS", "20")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "reject", cfg.Solver.UnclassifiedPolicy)
	assert.Equal(t, 20, cfg.Solver.MaxEquations, "env wins over file")
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1000, cfg.Solver.MaxEquationLength, "defaults survive")
	assert.Equal(t, path, cfg.File)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Port = 8080
	require.NoError(t, cfg.Validate())

	cfg.Solver.UnclassifiedPolicy = "ignore"
	cfg.Solver.MaxEquations = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNCLASSIFIED_POLICY")
	assert.Contains(t, err.Error(), "MAX_EQUATIONS")
}

func TestLoadFrom_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "port: [")
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestWatcher_ReloadsPolicy(t *testing.T) {
	t.Setenv("APP_PORT", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "port: 8080\nsolver:\n  unclassified_policy: drop\n")

	initial, err := LoadFrom(path)
	require.NoError(t, err)

	w, err := newWatcher(initial, zap.NewNop(), 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	var policy atomic.Value
	policy.Store(initial.Solver.UnclassifiedPolicy)
	w.OnChange(func(c *Config) { policy.Store(c.Solver.UnclassifiedPolicy) })

	// An invalid file is ignored.
	writeFile(t, path, "port: 8080\nsolver:\n  unclassified_policy: ignore\n")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "drop", w.Current().Solver.UnclassifiedPolicy)

	writeFile(t, path, "port: 8080\nsolver:\n  unclassified_policy: reject\n")
	require.Eventually(t, func() bool {
		return policy.Load() == "reject"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "reject", w.Current().Solver.UnclassifiedPolicy)
}

func TestNewWatcher_RequiresFile(t *testing.T) {
	_, err := NewWatcher(Defaults(), zap.NewNop())
	assert.Error(t, err)
}
