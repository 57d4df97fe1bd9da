// Package fingerprint computes the content and detector-set fingerprints
// used by the result cache (C7) and persistence layer (C8) to decide
// whether a file's scan result can be reused.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/d-oit/code-guardian/internal/detector"
)

// Content returns a hex-encoded sha256 digest of content, a fingerprint of
// at least 128 bits as required by §4.2's cache key.
func Content(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// DetectorSet returns a fingerprint of the ordered (name, severity,
// category, case-sensitivity, multiline) tuple of every detector in ds,
// so that changing the enabled detector set invalidates cached results
// even when the file content fingerprint is unchanged.
func DetectorSet(ds []detector.Detector) string {
	names := make([]string, 0, len(ds))
	byName := make(map[string]detector.Descriptor, len(ds))
	for _, d := range ds {
		desc := d.Descriptor()
		names = append(names, desc.Name)
		byName[desc.Name] = desc
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		desc := byName[name]
		h.Write([]byte(desc.Name))
		h.Write([]byte{0})
		h.Write([]byte(desc.DefaultSeverity))
		h.Write([]byte{0})
		h.Write([]byte(desc.DefaultCategory))
		h.Write([]byte{0})
		if desc.CaseSensitive {
			h.Write([]byte{1})
		}
		if desc.Multiline {
			h.Write([]byte{2})
		}
		h.Write([]byte{0xff})
	}
	return hex.EncodeToString(h.Sum(nil))
}
