// Package config loads the bciremote configuration file.
//
// The file is named by the --config flag or the BCIREMOTE_CONFIG
// environment variable; there is no search path. YAML is the primary
// format. Files ending in .json or .jsonc are accepted too: comments and
// trailing commas are stripped and the result parsed as YAML, of which JSON
// is a subset.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/Tendocat/bci2000remote/operatorprotocol"
	"github.com/Tendocat/bci2000remote/remote"
)

// EnvConfigPath is the environment variable consulted when no --config flag
// is given.
const EnvConfigPath = "BCIREMOTE_CONFIG"

// Config is the complete client configuration.
type Config struct {
	// Operator configures how the Operator is reached or launched.
	Operator OperatorConfig `yaml:"operator"`

	// Identity holds the subject, session, run and data directory values.
	Identity IdentityConfig `yaml:"identity"`

	// Lifecycle controls teardown behavior.
	Lifecycle LifecycleConfig `yaml:"lifecycle"`

	// InitCommands run right after connecting, failures ignored.
	InitCommands []string `yaml:"init_commands"`

	// Modules are started, in file order, by module startup.
	Modules ModuleList `yaml:"modules"`

	// ParameterFiles are local parameter files loaded after startup.
	ParameterFiles []string `yaml:"parameter_files"`
}

// OperatorConfig configures the Operator connection.
type OperatorConfig struct {
	// Address is host:port of the telnet interface.
	Address string `yaml:"address"`

	// Executable, when set, is launched if nothing listens on Address.
	Executable string `yaml:"executable"`

	// Hide starts a launched Operator without its main window.
	Hide bool `yaml:"hide"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	LaunchTimeout  time.Duration `yaml:"launch_timeout"`
}

// IdentityConfig mirrors the Operator's identity parameters.
type IdentityConfig struct {
	Subject       string `yaml:"subject"`
	Session       string `yaml:"session"`
	Run           string `yaml:"run"`
	DataDirectory string `yaml:"data_directory"`
}

// LifecycleConfig controls what closing the client does. Pointers
// distinguish "unset" from an explicit false.
type LifecycleConfig struct {
	Stop       *bool `yaml:"stop_on_teardown"`
	Disconnect *bool `yaml:"disconnect_on_teardown"`
}

// ModuleList is an ordered module mapping:
//
//	modules:
//	  SignalGenerator: [LogKeyboard=1]
//	  DummySignalProcessing:
//	  DummyApplication: ["--local"]
//
// Entry order is preserved. An empty value yields a nil argument list.
type ModuleList []remote.Module

// UnmarshalYAML decodes a mapping node while keeping its key order.
func (m *ModuleList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: modules must be a mapping of name to arguments", node.Line)
	}
	list := make(ModuleList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		module := remote.Module{Name: key.Value}
		switch {
		case value.Kind == yaml.ScalarNode && value.ShortTag() == "!!null":
		case value.Kind == yaml.ScalarNode:
			module.Args = strings.Fields(value.Value)
		case value.Kind == yaml.SequenceNode:
			if err := value.Decode(&module.Args); err != nil {
				return errors.Wrapf(err, "module %s", key.Value)
			}
		default:
			return errors.Errorf("line %d: arguments of module %s must be a list", value.Line, key.Value)
		}
		list = append(list, module)
	}
	*m = list
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Operator: OperatorConfig{
			Address:        operatorprotocol.DefaultAddress,
			ConnectTimeout: operatorprotocol.ConnectionTimeout,
			CommandTimeout: operatorprotocol.CommandTimeout,
			LaunchTimeout:  10 * time.Second,
		},
	}
}

// Path resolves the configuration path from a flag value and the
// environment. An empty result means no file.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfigPath)
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	if err := Parse(data, filepath.Ext(path), cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// Parse decodes data into cfg. The extension selects JSONC handling for
// ".json" and ".jsonc"; anything else is YAML.
func Parse(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate checks values that cannot be expressed in the type system.
func (c *Config) Validate() error {
	if c.Operator.ConnectTimeout < 0 || c.Operator.CommandTimeout < 0 || c.Operator.LaunchTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	seen := make(map[string]bool, len(c.Modules))
	for _, module := range c.Modules {
		if module.Name == "" {
			return errors.New("module name must not be empty")
		}
		if seen[module.Name] {
			return errors.Errorf("module %s listed twice", module.Name)
		}
		seen[module.Name] = true
	}
	for _, cmd := range c.InitCommands {
		if strings.ContainsAny(cmd, "\r\n") {
			return errors.Errorf("init command %q spans several lines", cmd)
		}
	}
	return nil
}

// StopOnTeardown returns the effective stop flag, true when unset.
func (l LifecycleConfig) StopOnTeardown() bool {
	return l.Stop == nil || *l.Stop
}

// DisconnectOnTeardown returns the effective disconnect flag, true when unset.
func (l LifecycleConfig) DisconnectOnTeardown() bool {
	return l.Disconnect == nil || *l.Disconnect
}
