package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, values string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(values), 0644))
	return path
}

func minimalConfig(t *testing.T) string {
	return writeConfig(t, `{
		"zabbix_api_user": "api",
		"zabbix_api_pwd": "apipass",
		"zabbix_user": "web",
		"zabbix_user_pwd": "webpass",
		"mail_server": "smtp.example.com",
		"mail_from": "zabbix@example.com"
	}`)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(minimalConfig(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 25, cfg.Mail.Port)
	assert.Equal(t, 8, cfg.Graph.MaxPeriods)
	assert.Equal(t, 30, cfg.Retention.ImageDays)
	assert.Equal(t, 14, cfg.Retention.LogDays)
	assert.Equal(t, filepath.Join(".", "images"), cfg.Paths.Images)
	assert.Equal(t, filepath.Join(".", "templates"), cfg.Paths.Templates)
	assert.Equal(t, filepath.Join(".", "log"), cfg.Paths.Log)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `{
		"listen": ":9090",
		"zabbix_api_token": "tok",
		"zabbix_user": "web",
		"zabbix_user_pwd": "webpass",
		"mail_server": "smtp.example.com",
		"mail_port": "587",
		"mail_from": "zabbix@example.com",
		"base_path": "/var/lib/mailgraph",
		"max_periods": "4",
		"graph_match_exact": "1"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "tok", cfg.Zabbix.APIToken)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "/var/lib/mailgraph/images", cfg.Paths.Images)
	assert.Equal(t, 4, cfg.Graph.MaxPeriods)
	assert.True(t, cfg.Graph.ExactOnly)
}

func TestLoadAPITokenSatisfiesCredentialCheck(t *testing.T) {
	path := writeConfig(t, `{
		"zabbix_api_token": "tok",
		"zabbix_user": "web",
		"zabbix_user_pwd": "webpass",
		"mail_server": "smtp.example.com",
		"mail_from": "zabbix@example.com"
	}`)

	_, err := Load(path)
	require.NoError(t, err)
}

func TestLoadMissingRequiredSettings(t *testing.T) {
	path := writeConfig(t, `{"mail_server": "smtp.example.com"}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required configurations")
	assert.Contains(t, err.Error(), "zabbix_api_user")
	assert.Contains(t, err.Error(), "mail_from")
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("MAILGRAPH_LISTEN", ":7070")
	t.Setenv("ZABBIX_API_USER", "env-api")

	cfg, err := Load(minimalConfig(t))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, "env-api", cfg.Zabbix.APIUser)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{broken`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON format")
}

func TestReadFileMissingIsEmpty(t *testing.T) {
	values, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	in := map[string]string{"mail_server": "smtp.example.com", "listen": ":8080"}

	require.NoError(t, WriteFile(path, in))
	out, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCheckPaths(t *testing.T) {
	var cfg Config
	cfg.Paths.Base = t.TempDir()
	cfg.Paths.Images = filepath.Join(cfg.Paths.Base, "images")
	cfg.Paths.Templates = filepath.Join(cfg.Paths.Base, "templates")
	cfg.Paths.Log = filepath.Join(cfg.Paths.Base, "log")

	require.Error(t, cfg.CheckPaths())

	for _, dir := range []string{cfg.Paths.Images, cfg.Paths.Templates, cfg.Paths.Log} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	err := cfg.CheckPaths()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template missing")

	for _, tmpl := range []string{"html.template", "plain.template"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.Templates, tmpl), []byte("x"), 0644))
	}
	require.NoError(t, cfg.CheckPaths())
}
