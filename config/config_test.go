package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
operator:
  address: bci-host:4000
  executable: /opt/BCI2000/prog/Operator
  hide: true
  connect_timeout: 3s
  command_timeout: 2m
identity:
  subject: S01
  session: "001"
  run: "02"
  data_directory: ../data
lifecycle:
  stop_on_teardown: false
init_commands:
  - show window
  - set title "Calibration"
modules:
  SignalGenerator: [LogKeyboard=1, " LogMouse = 1 "]
  DummySignalProcessing:
  DummyApplication: --local
parameter_files:
  - ../parms/calibration.prm
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "bciremote.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "bci-host:4000", cfg.Operator.Address)
	assert.Equal(t, "/opt/BCI2000/prog/Operator", cfg.Operator.Executable)
	assert.True(t, cfg.Operator.Hide)
	assert.Equal(t, 3*time.Second, cfg.Operator.ConnectTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Operator.CommandTimeout)
	assert.Equal(t, 10*time.Second, cfg.Operator.LaunchTimeout, "unset values keep their defaults")

	assert.Equal(t, IdentityConfig{Subject: "S01", Session: "001", Run: "02", DataDirectory: "../data"}, cfg.Identity)

	assert.False(t, cfg.Lifecycle.StopOnTeardown())
	assert.True(t, cfg.Lifecycle.DisconnectOnTeardown())

	assert.Equal(t, []string{"show window", `set title "Calibration"`}, cfg.InitCommands)
	assert.Equal(t, ModuleList{
		{Name: "SignalGenerator", Args: []string{"LogKeyboard=1", " LogMouse = 1 "}},
		{Name: "DummySignalProcessing"},
		{Name: "DummyApplication", Args: []string{"--local"}},
	}, cfg.Modules)
	assert.Nil(t, cfg.Modules[1].Args)
	assert.Equal(t, []string{"../parms/calibration.prm"}, cfg.ParameterFiles)
}

func TestLoadJSONC(t *testing.T) {
	content := `{
  // Operator on the acquisition machine
  "operator": {"address": "10.0.0.2", "connect_timeout": "1s"},
  "identity": {"subject": "S02",},
  "modules": {
    "gUSBampSource": ["--LogKeyboard=1"],
    "ARSignalProcessing": null, /* defaults */
    "CursorTask": [],
  },
}`
	cfg, err := Load(writeConfig(t, "bciremote.jsonc", content))
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2", cfg.Operator.Address)
	assert.Equal(t, time.Second, cfg.Operator.ConnectTimeout)
	assert.Equal(t, "S02", cfg.Identity.Subject)
	require.Len(t, cfg.Modules, 3)
	assert.Equal(t, []string{"gUSBampSource", "ARSignalProcessing", "CursorTask"},
		[]string{cfg.Modules[0].Name, cfg.Modules[1].Name, cfg.Modules[2].Name})
	assert.Nil(t, cfg.Modules[1].Args)
	assert.Empty(t, cfg.Modules[2].Args)
}

func TestModuleOrderMatchesFile(t *testing.T) {
	cfg := Default()
	require.NoError(t, Parse([]byte("modules:\n  Z:\n  A:\n  M:\n"), ".yml", cfg))

	var names []string
	for _, m := range cfg.Modules {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Z", "A", "M"}, names)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:3999", cfg.Operator.Address)
	assert.True(t, cfg.Lifecycle.StopOnTeardown())
	assert.True(t, cfg.Lifecycle.DisconnectOnTeardown())
	assert.Empty(t, cfg.Modules)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"modules not a mapping", "modules: [a, b]\n", "modules must be a mapping"},
		{"module arguments not a list", "modules:\n  A: {x: 1}\n", "must be a list"},
		{"duplicate module", "modules:\n  A:\n  A: [x]\n", ""},
		{"negative timeout", "operator:\n  connect_timeout: -1s\n", "must not be negative"},
		{"multi-line init command", "init_commands:\n  - \"a\\nb\"\n", "spans several lines"},
		{"bad duration", "operator:\n  command_timeout: soon\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "bad.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parsing config")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/bciremote.yaml")
	assert.Equal(t, "/tmp/flag.yaml", Path("/tmp/flag.yaml"))
	assert.Equal(t, "/etc/bciremote.yaml", Path(""))
}
