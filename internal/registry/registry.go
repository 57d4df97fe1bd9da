// Package registry implements the detector registry / factory (C3):
// enumerating built-in detectors, resolving named profiles, and compiling
// user-defined detectors from configuration.
package registry

import (
	"github.com/d-oit/code-guardian/internal/cgerrors"
	"github.com/d-oit/code-guardian/internal/config"
	"github.com/d-oit/code-guardian/internal/detector"
	"github.com/d-oit/code-guardian/internal/match"
	"github.com/d-oit/code-guardian/internal/profile"
)

// Registry resolves ScanConfig detector selections into a concrete,
// ordered list of Detector implementations.
type Registry struct {
	builtinByName map[string]detector.Detector
}

// New constructs a Registry with the full built-in catalog indexed by name.
func New() (*Registry, error) {
	all, err := detector.Builtins()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]detector.Detector, len(all))
	for _, d := range all {
		byName[d.Descriptor().Name] = d
	}
	return &Registry{builtinByName: byName}, nil
}

// DetectorsFor returns the ordered, deduplicated list of Detectors for cfg.
// Deterministic for a given config: identical input produces an identical
// output slice (same names in the same order).
func (r *Registry) DetectorsFor(cfg *config.ScanConfig) ([]detector.Detector, error) {
	names, err := expandNames(cfg)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(names))
	out := make([]detector.Detector, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue // tie-break: first occurrence wins, per §4.3
		}
		seen[name] = true

		if custom, ok := cfg.CustomPatterns[stripCustomPrefix(name)]; ok && isCustomName(name) {
			d, err := r.compileCustom(stripCustomPrefix(name), custom, cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
			continue
		}

		d, ok := r.builtinByName[name]
		if !ok {
			return nil, cgerrors.UnknownDetector(name)
		}
		out = append(out, withSeverityOverride(d, cfg.SeverityOverrides[name]))
	}
	return out, nil
}

// expandNames resolves cfg.EnabledDetectors (which may reference profile
// names or Custom(name) entries) into a flat, ordered list of detector
// names.
func expandNames(cfg *config.ScanConfig) ([]string, error) {
	var names []string
	for _, entry := range cfg.EnabledDetectors {
		if profileNames, ok := profile.Names[entry]; ok {
			names = append(names, profileNames...)
			continue
		}
		names = append(names, entry)
	}
	return names, nil
}

func isCustomName(name string) bool {
	return len(name) > 7 && name[:7] == "Custom("
}

func stripCustomPrefix(name string) string {
	if isCustomName(name) && name[len(name)-1] == ')' {
		return name[7 : len(name)-1]
	}
	return name
}

// compileCustom compiles a user-defined regex pattern into a Detector.
func (r *Registry) compileCustom(name, pattern string, cfg *config.ScanConfig) (detector.Detector, error) {
	sev := match.SeverityMedium
	if s, ok := cfg.SeverityOverrides[name]; ok {
		sev = s
	}
	if custom, ok := cfg.CustomDetectorDescriptors[name]; ok {
		if custom.Severity != "" {
			sev = custom.Severity
		}
		cat := custom.Category
		if cat == "" {
			cat = match.CategoryCustom
		}
		d := detector.Descriptor{
			Name:            name,
			DefaultSeverity: sev,
			DefaultCategory: cat,
			ExtensionFilter: extSetFromSlice(custom.FileExtensions),
			CaseSensitive:   custom.CaseSensitive,
			Multiline:       custom.Multiline,
		}
		rd, err := detector.NewRegexDetector(d, pattern)
		if err != nil {
			return nil, cgerrors.InvalidPattern(name, err.Error())
		}
		return rd, nil
	}

	d := detector.Descriptor{Name: name, DefaultSeverity: sev, DefaultCategory: match.CategoryCustom}
	rd, err := detector.NewRegexDetector(d, pattern)
	if err != nil {
		return nil, cgerrors.InvalidPattern(name, err.Error())
	}
	return rd, nil
}

func extSetFromSlice(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

// withSeverityOverride wraps d so produced Matches carry sev instead of d's
// default severity, when sev is non-empty.
func withSeverityOverride(d detector.Detector, sev match.Severity) detector.Detector {
	if sev == "" {
		return d
	}
	return &overriddenDetector{inner: d, severity: sev}
}

type overriddenDetector struct {
	inner    detector.Detector
	severity match.Severity
}

func (o *overriddenDetector) Descriptor() detector.Descriptor {
	desc := o.inner.Descriptor()
	desc.DefaultSeverity = o.severity
	return desc
}

func (o *overriddenDetector) Detect(path string, content []byte) ([]match.Match, error) {
	ms, err := o.inner.Detect(path, content)
	if err != nil {
		return nil, err
	}
	for i := range ms {
		ms[i].Severity = o.severity
	}
	return ms, nil
}

