package config

import (
	"fmt"
	"strings"

	"github.com/d-oit/code-guardian/internal/cgerrors"
)

// Validate enforces the invariants a ScanConfig must satisfy before it can
// be handed to the registry or scanner, mirroring the teacher's Validate()
// checks generalized to the scan domain.
func Validate(cfg *ScanConfig) error {
	if cfg.MaxThreads < 1 {
		return cgerrors.InvalidConfigValue("max_threads", "must be >= 1")
	}
	if cfg.MaxFileSize < 1 {
		return cgerrors.InvalidConfigValue("max_file_size", "must be >= 1")
	}
	if cfg.BatchSize < 1 {
		return cgerrors.InvalidConfigValue("batch_size", "must be >= 1")
	}
	if cfg.CacheSize < 0 {
		return cgerrors.InvalidConfigValue("cache_size", "must be >= 0")
	}
	if cfg.PerFileTimeoutMS < 0 {
		return cgerrors.InvalidConfigValue("per_file_timeout_ms", "must be >= 0")
	}
	if cfg.ScanDeadlineMS < 0 {
		return cgerrors.InvalidConfigValue("scan_deadline_ms", "must be >= 0")
	}

	for name, sev := range cfg.SeverityOverrides {
		if !sev.Valid() {
			return cgerrors.InvalidConfigValue("severity_overrides",
				fmt.Sprintf("detector %q: unknown severity %q", name, sev))
		}
	}

	for _, doc := range cfg.CustomDetectorDescriptors {
		if doc.Severity != "" && !doc.Severity.Valid() {
			return cgerrors.InvalidConfigValue("custom_detector_descriptors",
				fmt.Sprintf("detector %q: unknown severity %q", doc.Name, doc.Severity))
		}
		if doc.Category != "" && !doc.Category.Valid() {
			return cgerrors.InvalidConfigValue("custom_detector_descriptors",
				fmt.Sprintf("detector %q: unknown category %q", doc.Name, doc.Category))
		}
	}

	for _, entry := range cfg.EnabledDetectors {
		if !isCustomReference(entry) {
			continue
		}
		name := stripCustom(entry)
		if _, ok := cfg.CustomPatterns[name]; !ok {
			return cgerrors.InvalidConfigValue("enabled_detectors",
				fmt.Sprintf("Custom(%s) has no entry in custom_patterns", name))
		}
	}

	return nil
}

func isCustomReference(name string) bool {
	return strings.HasPrefix(name, "Custom(") && strings.HasSuffix(name, ")")
}

func stripCustom(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, "Custom("), ")")
}
