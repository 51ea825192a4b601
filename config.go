package jsonadapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	defaults "github.com/Paranoid-AF/jsonadapter/default"
)

// Config represents the user's jsonadapter configuration.
type Config struct {
	Version int           `toml:"version" json:"version"`
	Adapter AdapterConfig `toml:"adapter" json:"adapter"`
	Shell   ShellConfig   `toml:"shell" json:"shell"`
	History HistoryConfig `toml:"history" json:"history"`
}

// AdapterConfig holds adapter discovery settings.
type AdapterConfig struct {
	// NamingSuffix is appended to a command name to find its sibling adapter.
	NamingSuffix string `toml:"naming_suffix" json:"naming_suffix"`
	// Tool is the external converter used for delegated adapters.
	Tool string `toml:"tool" json:"tool"`
	// ParserStage follows the converter in delegated pipelines.
	ParserStage   string   `toml:"parser_stage" json:"parser_stage"`
	ExtraCommands []string `toml:"extra_commands" json:"extra_commands,omitempty"`
	MaxInFlight   int      `toml:"max_in_flight" json:"max_in_flight"`
	// ToolAvailable overrides detection of Tool on PATH when set.
	ToolAvailable *bool `toml:"tool_available,omitempty" json:"tool_available,omitempty"`
}

// ShellConfig holds command resolution settings.
type ShellConfig struct {
	// DefinitionFiles are shell sources scanned for functions and aliases.
	DefinitionFiles  []string `toml:"definition_files" json:"definition_files,omitempty"`
	ScriptExtensions []string `toml:"script_extensions" json:"script_extensions"`
}

// HistoryConfig holds cache warm-up settings.
type HistoryConfig struct {
	Enabled      *bool `toml:"enabled,omitempty" json:"enabled,omitempty"`
	WarmCommands int   `toml:"warm_commands" json:"warm_commands"`
}

// Naming suffixes understood by adapter discovery.
var knownNamingSuffixes = []string{"-adapter", "-json"}

// ConfigDir returns the config directory path.
// Resolution order: $JSONADAPTER_CONFIG_DIR > $XDG_CONFIG_HOME/jsonadapter > ~/.config/jsonadapter
func ConfigDir() string {
	if dir := os.Getenv("JSONADAPTER_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "jsonadapter")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "jsonadapter-config")
	}
	return filepath.Join(home, ".config", "jsonadapter")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// SocketPath returns the daemon socket path.
// Resolution order: $JSONADAPTER_SOCKET > $XDG_RUNTIME_DIR/jsonadapter.sock > /tmp/jsonadapter-<uid>.sock
func SocketPath() string {
	if path := os.Getenv("JSONADAPTER_SOCKET"); path != "" {
		return path
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "jsonadapter.sock")
	}
	return fmt.Sprintf("/tmp/jsonadapter-%d.sock", os.Getuid())
}

// DefaultConfig returns the default configuration from the embedded default_config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if err := toml.Unmarshal(defaults.DefaultConfigTOML, &cfg); err != nil {
		panic("jsonadapter: invalid embedded default_config.toml: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile loads config from path, filling missing fields from the
// defaults. A missing file yields the defaults.
func LoadConfigFile(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "path", path, "key", key.String())
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Adapter.NamingSuffix == "" {
		cfg.Adapter.NamingSuffix = defaults.Adapter.NamingSuffix
	}
	if cfg.Adapter.Tool == "" {
		cfg.Adapter.Tool = defaults.Adapter.Tool
	}
	if cfg.Adapter.ParserStage == "" {
		cfg.Adapter.ParserStage = defaults.Adapter.ParserStage
	}
	if cfg.Adapter.MaxInFlight == 0 {
		cfg.Adapter.MaxInFlight = defaults.Adapter.MaxInFlight
	}
	if !md.IsDefined("shell", "script_extensions") {
		cfg.Shell.ScriptExtensions = defaults.Shell.ScriptExtensions
	}
	if cfg.History.Enabled == nil {
		cfg.History.Enabled = defaults.History.Enabled
	}
	if cfg.History.WarmCommands == 0 {
		cfg.History.WarmCommands = defaults.History.WarmCommands
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	suffix := ResolveNamingSuffix(cfg)
	known := false
	for _, s := range knownNamingSuffixes {
		known = known || suffix == s
	}
	if !known {
		warnings = append(warnings, fmt.Sprintf("naming_suffix %q is not one of %s; adapters must follow the custom suffix", suffix, strings.Join(knownNamingSuffixes, ", ")))
	}
	if strings.ContainsAny(suffix, " \t|;&") {
		warnings = append(warnings, "naming_suffix contains shell metacharacters; generated pipelines will be rejected")
	}
	if cfg.Adapter.MaxInFlight < 0 {
		warnings = append(warnings, "max_in_flight is negative; the default of 8 will be used")
	}
	if ResolveTool(cfg) == "" {
		warnings = append(warnings, "tool is empty; delegated adapters are disabled")
	}
	for _, ext := range cfg.Shell.ScriptExtensions {
		if !strings.HasPrefix(ext, ".") {
			warnings = append(warnings, fmt.Sprintf("script extension %q should start with a dot", ext))
		}
	}
	for _, path := range cfg.Shell.DefinitionFiles {
		if _, err := os.Stat(ExpandHome(path)); err != nil {
			warnings = append(warnings, fmt.Sprintf("definition file %s is not readable: %v", path, err))
		}
	}
	if cfg.History.WarmCommands < 0 {
		warnings = append(warnings, "history warm_commands is negative; warm-up will be skipped")
	}
	return warnings
}

// ResolveTool returns the delegated converter command.
// Priority: $JSONADAPTER_TOOL env > config value.
func ResolveTool(cfg *Config) string {
	if tool := os.Getenv("JSONADAPTER_TOOL"); tool != "" {
		return tool
	}
	if cfg != nil {
		return cfg.Adapter.Tool
	}
	return ""
}

// ResolveNamingSuffix returns the naming-convention suffix.
// Priority: $JSONADAPTER_NAMING_SUFFIX env > config value.
func ResolveNamingSuffix(cfg *Config) string {
	if suffix := os.Getenv("JSONADAPTER_NAMING_SUFFIX"); suffix != "" {
		return suffix
	}
	if cfg != nil {
		return cfg.Adapter.NamingSuffix
	}
	return ""
}

// ResolveParserStage returns the stage that parses converter output.
// Priority: $JSONADAPTER_PARSER_STAGE env > config value.
func ResolveParserStage(cfg *Config) string {
	if stage := os.Getenv("JSONADAPTER_PARSER_STAGE"); stage != "" {
		return stage
	}
	if cfg != nil {
		return cfg.Adapter.ParserStage
	}
	return ""
}

// HistoryEnabled reports whether history warm-up should run.
func HistoryEnabled(cfg *Config) bool {
	if cfg == nil {
		return true // default true
	}
	enabled := cfg.History.Enabled == nil || *cfg.History.Enabled
	return enabled && cfg.History.WarmCommands > 0
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
