package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/d-oit/code-guardian/internal/cgerrors"
	"github.com/d-oit/code-guardian/internal/match"
	"github.com/d-oit/code-guardian/internal/profile"
)

// document is the wire shape accepted from any of the three interchangeable
// formats; unknown fields in the source document are rejected at decode
// time (the decoders below are configured to disallow them), giving
// UnknownConfigField the field name surfaced by the underlying decoder.
type document struct {
	Root              string                       `json:"root" yaml:"root" toml:"root"`
	Profile           string                       `json:"profile" yaml:"profile" toml:"profile"`
	EnabledDetectors  []string                     `json:"enabled_detectors" yaml:"enabled_detectors" toml:"enabled_detectors"`
	CustomPatterns    map[string]string            `json:"custom_patterns" yaml:"custom_patterns" toml:"custom_patterns"`
	SeverityOverrides map[string]string            `json:"severity_overrides" yaml:"severity_overrides" toml:"severity_overrides"`
	IncludeExtensions []string                     `json:"include_extensions" yaml:"include_extensions" toml:"include_extensions"`
	ExcludePaths      []string                     `json:"exclude_paths" yaml:"exclude_paths" toml:"exclude_paths"`
	MaxFileSize       int64                        `json:"max_file_size" yaml:"max_file_size" toml:"max_file_size"`
	MaxThreads        int                          `json:"max_threads" yaml:"max_threads" toml:"max_threads"`
	BatchSize         int                          `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	Incremental       bool                         `json:"incremental" yaml:"incremental" toml:"incremental"`
	Streaming         bool                         `json:"streaming" yaml:"streaming" toml:"streaming"`
	CacheSize         int                          `json:"cache_size" yaml:"cache_size" toml:"cache_size"`
	PerFileTimeoutMS  int64                        `json:"per_file_timeout_ms" yaml:"per_file_timeout_ms" toml:"per_file_timeout_ms"`
	ScanDeadlineMS    int64                        `json:"scan_deadline_ms" yaml:"scan_deadline_ms" toml:"scan_deadline_ms"`
	DatabasePath      string                       `json:"database_path" yaml:"database_path" toml:"database_path"`
}

// Format is one of the three interchangeable document representations.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// DetectFormat infers a Format from a file extension; it defaults to YAML
// when the extension is unrecognized, mirroring the teacher's
// YAML-by-default configuration convention.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// LoadDocument reads a ScanConfig from data in the given format, applies the
// CODE_GUARDIAN_ environment overlay, and validates the result. If the
// source document is missing fields, defaults from Default() are used.
// Unknown fields in the document are rejected with UnknownConfigField.
func LoadDocument(data []byte, format Format) (*ScanConfig, error) {
	var doc document
	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	default:
		return nil, cgerrors.InvalidConfigValue("format", fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return nil, translateDecodeError(err)
	}

	cfg := Default()
	applyDocument(cfg, &doc)

	if doc.Profile != "" {
		names, perr := profile.Expand(doc.Profile)
		if perr != nil {
			return nil, perr
		}
		cfg.EnabledDetectors = append(append([]string{}, names...), cfg.EnabledDetectors...)
	}

	if err := applyEnvOverlay(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads path and loads a ScanConfig via LoadDocument, inferring the
// format from the extension. If path does not exist, Default() is returned
// (with the env overlay applied), matching the teacher's
// missing-file-is-not-an-error convention.
func LoadFile(path string) (*ScanConfig, error) {
	if path == "" {
		cfg := Default()
		if err := applyEnvOverlay(cfg); err != nil {
			return nil, err
		}
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if aerr := applyEnvOverlay(cfg); aerr != nil {
				return nil, aerr
			}
			if verr := Validate(cfg); verr != nil {
				return nil, verr
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return LoadDocument(data, DetectFormat(path))
}

func applyDocument(cfg *ScanConfig, doc *document) {
	if doc.Root != "" {
		cfg.Root = doc.Root
	}
	if len(doc.EnabledDetectors) > 0 {
		cfg.EnabledDetectors = doc.EnabledDetectors
	}
	if len(doc.CustomPatterns) > 0 {
		cfg.CustomPatterns = doc.CustomPatterns
	}
	if len(doc.SeverityOverrides) > 0 {
		for k, v := range doc.SeverityOverrides {
			cfg.SeverityOverrides[k] = match.Severity(v)
		}
	}
	if len(doc.IncludeExtensions) > 0 {
		cfg.IncludeExtensions = doc.IncludeExtensions
	}
	if len(doc.ExcludePaths) > 0 {
		cfg.ExcludePaths = doc.ExcludePaths
	}
	if doc.MaxFileSize != 0 {
		cfg.MaxFileSize = doc.MaxFileSize
	}
	if doc.MaxThreads != 0 {
		cfg.MaxThreads = doc.MaxThreads
	}
	if doc.BatchSize != 0 {
		cfg.BatchSize = doc.BatchSize
	}
	cfg.Incremental = doc.Incremental
	cfg.Streaming = doc.Streaming
	if doc.CacheSize != 0 {
		cfg.CacheSize = doc.CacheSize
	}
	if doc.PerFileTimeoutMS != 0 {
		cfg.PerFileTimeoutMS = doc.PerFileTimeoutMS
	}
	if doc.ScanDeadlineMS != 0 {
		cfg.ScanDeadlineMS = doc.ScanDeadlineMS
	}
	if doc.DatabasePath != "" {
		cfg.DatabasePath = doc.DatabasePath
	}
}

// applyEnvOverlay applies CODE_GUARDIAN_* environment overrides, following
// the teacher's truthy-string convention: only "true" or "1" are true.
// Recognized variables:
//   - CODE_GUARDIAN_MAX_THREADS
//   - CODE_GUARDIAN_MAX_FILE_SIZE
//   - CODE_GUARDIAN_CACHE_SIZE
//   - CODE_GUARDIAN_INCREMENTAL
//   - CODE_GUARDIAN_STREAMING
//   - CODE_GUARDIAN_DATABASE_PATH
func applyEnvOverlay(cfg *ScanConfig) error {
	if v := os.Getenv("CODE_GUARDIAN_MAX_THREADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cgerrors.InvalidConfigValue("max_threads", "CODE_GUARDIAN_MAX_THREADS is not an integer")
		}
		cfg.MaxThreads = n
	}
	if v := os.Getenv("CODE_GUARDIAN_MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cgerrors.InvalidConfigValue("max_file_size", "CODE_GUARDIAN_MAX_FILE_SIZE is not an integer")
		}
		cfg.MaxFileSize = n
	}
	if v := os.Getenv("CODE_GUARDIAN_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cgerrors.InvalidConfigValue("cache_size", "CODE_GUARDIAN_CACHE_SIZE is not an integer")
		}
		cfg.CacheSize = n
	}
	if v := os.Getenv("CODE_GUARDIAN_INCREMENTAL"); v != "" {
		cfg.Incremental = v == "true" || v == "1"
	}
	if v := os.Getenv("CODE_GUARDIAN_STREAMING"); v != "" {
		cfg.Streaming = v == "true" || v == "1"
	}
	if v := os.Getenv("CODE_GUARDIAN_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	return nil
}

func translateDecodeError(err error) error {
	var strict *toml.StrictMissingError
	if errors.As(err, &strict) && len(strict.Errors) > 0 {
		return cgerrors.UnknownConfigField(strings.Join(strict.Errors[0].Key(), "."))
	}
	msg := err.Error()
	if strings.Contains(msg, "unknown field") || strings.Contains(msg, "field") && strings.Contains(msg, "not found") {
		return cgerrors.UnknownConfigField(extractFieldName(msg))
	}
	return cgerrors.InvalidConfigValue("document", msg)
}

func extractFieldName(msg string) string {
	// Best-effort extraction of the quoted field name from decoder errors
	// such as `json: unknown field "foo"` or `field bar not found in type`.
	if i := strings.IndexByte(msg, '"'); i >= 0 {
		if j := strings.IndexByte(msg[i+1:], '"'); j >= 0 {
			return msg[i+1 : i+1+j]
		}
	}
	if i := strings.Index(msg, "field "); i >= 0 {
		if rest := strings.Fields(msg[i+len("field "):]); len(rest) > 0 {
			return rest[0]
		}
	}
	fields := strings.Fields(msg)
	if len(fields) > 1 {
		return fields[1]
	}
	return msg
}
