package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func jsonFixture(cacheDir string) string {
	return fmt.Sprintf(`{
  "tcp": {"bind_addr": "0.0.0.0:43594", "max_connections": 500, "request_buffer_size": 16},
  "game": {"client_version": 317},
  "log": {"level": 3},
  "rsa": {"modulus_hex": "ff", "exponent_hex": "03"},
  "cache": {"directory": %q}
}`, cacheDir)
}

func yamlFixture(cacheDir string) string {
	return fmt.Sprintf(`
tcp:
  bind_addr: "0.0.0.0:43594"
  max_connections: 500
  request_buffer_size: 16
game:
  client_version: 317
log:
  level: 3
rsa:
  modulus_hex: "ff"
  exponent_hex: "03"
cache:
  directory: %s
`, cacheDir)
}

func TestLoadFromJSON(t *testing.T) {
	path := writeTempFile(t, "config.json", jsonFixture(t.TempDir()))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:43594", cfg.TCP.BindAddr)
	require.Equal(t, 500, cfg.TCP.MaxConnections)
	require.EqualValues(t, 317, cfg.Game.ClientVersion)
	require.Equal(t, path, cfg.ConfigFilepath())
	require.NotEmpty(t, cfg.Hash())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	cacheDir := t.TempDir()
	path := writeTempFile(t, "config.yaml", yamlFixture(cacheDir))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 500, cfg.TCP.MaxConnections)
	require.Equal(t, cacheDir, cfg.Cache.Directory)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeTempFile(t, "config.toml", "tcp = {}")

	_, err := Load(path)
	require.Error(t, err)
}

func TestReloadedSinceDetectsChange(t *testing.T) {
	fixture := jsonFixture(t.TempDir())
	path := writeTempFile(t, "config.json", fixture)

	original, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(fixture+"\n"), 0o600))
	reloaded, err := Load(path)
	require.NoError(t, err)

	require.True(t, reloaded.ReloadedSince(original))
	require.False(t, reloaded.ReloadedSince(reloaded))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	require.ErrorContains(t, err, "tcp.bind_addr")
	require.ErrorContains(t, err, "game.client_version")
	require.ErrorContains(t, err, "cache.directory")
	require.ErrorContains(t, err, "rsa.modulus_hex")
}

func TestValidateRejectsMissingCacheDirectory(t *testing.T) {
	cfg := Default()
	cfg.Game.ClientVersion = 317
	cfg.RSA.ModulusHex = "ff"
	cfg.RSA.ExponentHex = "03"
	cfg.Cache.Directory = filepath.Join(t.TempDir(), "does-not-exist")

	err := cfg.Validate()
	require.ErrorContains(t, err, "cache.directory")
}

func TestRSAKeyDecodesHex(t *testing.T) {
	cfg := Default()
	cfg.RSA.ModulusHex = "ff"
	cfg.RSA.ExponentHex = "03"

	key, err := cfg.RSAKey()
	require.NoError(t, err)
	require.EqualValues(t, 255, key.Modulus.Int64())
	require.EqualValues(t, 3, key.Exponent.Int64())
}
