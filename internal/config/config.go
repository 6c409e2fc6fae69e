// Package config loads the daemon configuration from daemon.yaml, applies
// environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oscalarm/oscalarm/common"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside the config directory.
const FileName = "daemon.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	OSC       OSCConfig       `yaml:"osc"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Startup   StartupConfig   `yaml:"startup"`
	RPC       RPCConfig       `yaml:"rpc"`
	Journal   JournalConfig   `yaml:"journal"`
	Settings  SettingsConfig  `yaml:"settings"`
	Debug     bool            `yaml:"debug"`
	// LogFile, when set, receives a copy of the daemon log.
	LogFile string `yaml:"log_file"`
}

type OSCConfig struct {
	Listen          string `yaml:"listen"`
	Target          string `yaml:"target"`
	ParameterPrefix string `yaml:"parameter_prefix"`
}

type HeartbeatConfig struct {
	Interval     time.Duration `yaml:"interval"`
	InitialDelay time.Duration `yaml:"initial_delay"`
}

type StartupConfig struct {
	SyncDelay time.Duration `yaml:"sync_delay"`
}

type RPCConfig struct {
	Listen string `yaml:"listen"`
	// Secret is the bearer token. Empty disables authentication, which is
	// only accepted on a loopback listen address.
	Secret string `yaml:"secret"`
}

type JournalConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

type SettingsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Dir returns the config directory: $OSCALARM_CONFIG_DIR, or "oscalarm"
// under the user config directory.
func Dir(getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if d := getenv(common.ConfigDirEnv); d != "" {
		return filepath.Clean(d), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "oscalarm"), nil
}

// Default returns the configuration used when daemon.yaml is absent.
func Default(dir string) *Config {
	return &Config{
		OSC: OSCConfig{
			Listen:          common.DefaultOSCListen,
			Target:          common.DefaultOSCTarget,
			ParameterPrefix: common.DefaultParameterPrefix,
		},
		Heartbeat: HeartbeatConfig{
			Interval:     common.DefaultHeartbeatInterval,
			InitialDelay: common.DefaultHeartbeatInitialDelay,
		},
		Startup: StartupConfig{SyncDelay: common.DefaultStartupSyncDelay},
		RPC:     RPCConfig{Listen: common.DefaultRPCListen},
		Journal: JournalConfig{
			Path:      filepath.Join(dir, "history.db"),
			Retention: common.DefaultJournalRetention,
		},
		Settings: SettingsConfig{
			Path:  filepath.Join(dir, "settings.json"),
			Watch: true,
		},
	}
}

// Load reads dir/daemon.yaml from fs over the defaults, then applies the
// environment. A missing file is not an error.
func Load(fs afero.Fs, dir string, getenv func(string) string) (*Config, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default(dir)
	path := filepath.Join(dir, FileName)
	data, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.applyEnv(getenv)
	cfg.resolvePaths(dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(common.RPCAddrEnv); v != "" {
		c.RPC.Listen = v
	}
	if v := getenv(common.RPCSecretEnv); v != "" {
		c.RPC.Secret = v
	}
	if v := getenv(common.DebugEnv); v != "" && v != "0" && !strings.EqualFold(v, "false") {
		c.Debug = true
	}
	if v := getenv(common.LogFileEnv); v != "" {
		c.LogFile = v
	}
}

// resolvePaths makes relative file paths relative to dir.
func (c *Config) resolvePaths(dir string) {
	if c.Journal.Path != "" && c.Journal.Path != ":memory:" && !filepath.IsAbs(c.Journal.Path) {
		c.Journal.Path = filepath.Join(dir, c.Journal.Path)
	}
	if c.Settings.Path != "" && !filepath.IsAbs(c.Settings.Path) {
		c.Settings.Path = filepath.Join(dir, c.Settings.Path)
	}
	if c.LogFile != "" && !filepath.IsAbs(c.LogFile) {
		c.LogFile = filepath.Join(dir, c.LogFile)
	}
}

// Validate checks addresses, durations and the parameter prefix.
func (c *Config) Validate() error {
	var errs []error
	for name, addr := range map[string]string{
		"osc.listen": c.OSC.Listen,
		"osc.target": c.OSC.Target,
		"rpc.listen": c.RPC.Listen,
	} {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s %q: %v", ErrInvalid, name, addr, err))
		}
	}
	for name, d := range map[string]time.Duration{
		"heartbeat.interval":      c.Heartbeat.Interval,
		"heartbeat.initial_delay": c.Heartbeat.InitialDelay,
		"startup.sync_delay":      c.Startup.SyncDelay,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, name, d))
		}
	}
	if c.Journal.Retention < 0 {
		errs = append(errs, fmt.Errorf("%w: journal.retention must not be negative", ErrInvalid))
	}
	p := c.OSC.ParameterPrefix
	if !strings.HasPrefix(p, "/") || !strings.HasSuffix(p, "/") {
		errs = append(errs, fmt.Errorf("%w: osc.parameter_prefix %q must start and end with /", ErrInvalid, p))
	}
	if c.Settings.Path == "" {
		errs = append(errs, fmt.Errorf("%w: settings.path is empty", ErrInvalid))
	}
	if c.RPC.Secret == "" && !isLoopback(c.RPC.Listen) {
		errs = append(errs, fmt.Errorf("%w: rpc.secret is required when rpc.listen %q is not loopback", ErrInvalid, c.RPC.Listen))
	}
	return errors.Join(errs...)
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// AllowsNoSecret reports whether the RPC endpoint may run without a token.
func (c *Config) AllowsNoSecret() bool {
	return c.RPC.Secret == "" && isLoopback(c.RPC.Listen)
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
