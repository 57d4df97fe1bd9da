// Package config implements configuration resolution (C4): loading an
// immutable ScanConfig from a TOML, JSON or YAML document, applying an
// environment-variable overlay, and validating the result.
package config

import "github.com/d-oit/code-guardian/internal/match"

// ScanConfig is the immutable settings bundle built from user input (§3).
// Once constructed it is never mutated; it is shared by reference across
// every worker in a scan.
type ScanConfig struct {
	Root string `json:"root" yaml:"root" toml:"root"`

	// EnabledDetectors is the ordered set of detector identifiers; entries
	// may be a bare built-in name, a profile name (expanded by the CLI
	// shell or LoadDocument before the config reaches the registry), or
	// "Custom(name)" referring to a key in CustomPatterns.
	EnabledDetectors []string `json:"enabled_detectors" yaml:"enabled_detectors" toml:"enabled_detectors"`

	// CustomPatterns maps a custom detector name to its regex source.
	CustomPatterns map[string]string `json:"custom_patterns" yaml:"custom_patterns" toml:"custom_patterns"`

	// CustomDetectorDescriptors carries the full descriptor (severity,
	// category, extensions, flags) for custom detectors loaded from a
	// custom-detector document; entries not present here fall back to
	// Medium/Custom with no extension filter.
	CustomDetectorDescriptors map[string]CustomDetectorDoc `json:"-" yaml:"-" toml:"-"`

	SeverityOverrides map[string]match.Severity `json:"severity_overrides" yaml:"severity_overrides" toml:"severity_overrides"`

	IncludeExtensions []string `json:"include_extensions" yaml:"include_extensions" toml:"include_extensions"`
	ExcludePaths      []string `json:"exclude_paths" yaml:"exclude_paths" toml:"exclude_paths"`

	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size" toml:"max_file_size"`
	MaxThreads  int   `json:"max_threads" yaml:"max_threads" toml:"max_threads"`
	BatchSize   int   `json:"batch_size" yaml:"batch_size" toml:"batch_size"`

	Incremental bool `json:"incremental" yaml:"incremental" toml:"incremental"`
	Streaming   bool `json:"streaming" yaml:"streaming" toml:"streaming"`
	CacheSize   int  `json:"cache_size" yaml:"cache_size" toml:"cache_size"`

	// PerFileTimeoutMS is the recommended soft per-file timeout of §5; zero
	// disables it.
	PerFileTimeoutMS int64 `json:"per_file_timeout_ms" yaml:"per_file_timeout_ms" toml:"per_file_timeout_ms"`
	// ScanDeadlineMS is the whole-scan deadline of §5; zero disables it.
	ScanDeadlineMS int64 `json:"scan_deadline_ms" yaml:"scan_deadline_ms" toml:"scan_deadline_ms"`

	// DatabasePath is where C8 persists scans; defaults to a project-local
	// file per §6.
	DatabasePath string `json:"database_path" yaml:"database_path" toml:"database_path"`
}

// CustomDetectorDoc is one record of a custom-detector document (§6):
// {name, description, pattern, file_extensions, case_sensitive, multiline,
// capture_groups, severity, category, examples, enabled}.
type CustomDetectorDoc struct {
	Name           string          `json:"name" yaml:"name" toml:"name"`
	Description    string          `json:"description" yaml:"description" toml:"description"`
	Pattern        string          `json:"pattern" yaml:"pattern" toml:"pattern"`
	FileExtensions []string        `json:"file_extensions" yaml:"file_extensions" toml:"file_extensions"`
	CaseSensitive  bool            `json:"case_sensitive" yaml:"case_sensitive" toml:"case_sensitive"`
	Multiline      bool            `json:"multiline" yaml:"multiline" toml:"multiline"`
	CaptureGroups  []string        `json:"capture_groups" yaml:"capture_groups" toml:"capture_groups"`
	Severity       match.Severity  `json:"severity" yaml:"severity" toml:"severity"`
	Category       match.Category  `json:"category" yaml:"category" toml:"category"`
	Examples       []string        `json:"examples" yaml:"examples" toml:"examples"`
	Enabled        bool            `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// Default returns a ScanConfig with sensible defaults, mirroring the
// teacher's DefaultConfig() shape.
func Default() *ScanConfig {
	return &ScanConfig{
		EnabledDetectors:          []string{},
		CustomPatterns:            map[string]string{},
		CustomDetectorDescriptors: map[string]CustomDetectorDoc{},
		SeverityOverrides:         map[string]match.Severity{},
		IncludeExtensions:         []string{},
		ExcludePaths:              []string{".git", "node_modules", "target", "dist", "build", "vendor"},
		MaxFileSize:               1 << 20, // 1 MiB
		MaxThreads:                4,
		BatchSize:                 64,
		Incremental:               false,
		Streaming:                 false,
		CacheSize:                 1000,
		PerFileTimeoutMS:          5000,
		ScanDeadlineMS:            0,
		DatabasePath:              ".codeguardian/scans.db",
	}
}
