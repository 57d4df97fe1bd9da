package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/d-oit/code-guardian/internal/cgerrors"
)

// customDetectorSchema structurally validates a custom-detector document
// (§6) before it is decoded into CustomDetectorDoc, catching shape errors
// (wrong type, missing required field) with a clearer message than a raw
// decode failure would.
var customDetectorSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"name", "pattern"},
	Properties: map[string]*jsonschema.Schema{
		"name":            {Type: "string"},
		"description":     {Type: "string"},
		"pattern":         {Type: "string"},
		"file_extensions": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"case_sensitive":  {Type: "boolean"},
		"multiline":       {Type: "boolean"},
		"capture_groups":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"severity":        {Type: "string", Enum: []any{"info", "low", "medium", "high", "critical"}},
		"category": {Type: "string", Enum: []any{
			"code_quality", "security", "performance", "documentation",
			"testing", "deprecated", "custom",
		}},
		"examples": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"enabled":  {Type: "boolean"},
	},
}

var resolvedCustomDetectorSchema *jsonschema.Resolved

func init() {
	r, err := customDetectorSchema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("config: custom detector schema failed to resolve: %v", err))
	}
	resolvedCustomDetectorSchema = r
}

// LoadCustomDetectorDocs parses a custom-detector document containing one or
// more CustomDetectorDoc records, in any of the three interchangeable
// formats. A bare object decodes as a single-entry list.
func LoadCustomDetectorDocs(data []byte, format Format) ([]CustomDetectorDoc, error) {
	raw, err := decodeToAny(data, format)
	if err != nil {
		return nil, err
	}

	var rawDocs []any
	switch v := raw.(type) {
	case []any:
		rawDocs = v
	case map[string]any:
		if detectors, ok := v["detectors"].([]any); ok {
			rawDocs = detectors
		} else {
			rawDocs = []any{v}
		}
	default:
		return nil, cgerrors.InvalidConfigValue("custom_detectors", "document must be an object or array of objects")
	}

	out := make([]CustomDetectorDoc, 0, len(rawDocs))
	for _, rd := range rawDocs {
		if err := resolvedCustomDetectorSchema.Validate(rd); err != nil {
			return nil, cgerrors.InvalidConfigValue("custom_detectors", err.Error())
		}
		doc, err := decodeCustomDoc(rd)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func decodeCustomDoc(raw any) (CustomDetectorDoc, error) {
	// Round-trip through JSON to reuse CustomDetectorDoc's json tags
	// regardless of which format the document originally came from.
	b, err := json.Marshal(raw)
	if err != nil {
		return CustomDetectorDoc{}, cgerrors.InvalidConfigValue("custom_detectors", err.Error())
	}
	var doc CustomDetectorDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return CustomDetectorDoc{}, cgerrors.InvalidConfigValue("custom_detectors", err.Error())
	}
	return doc, nil
}

func decodeToAny(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, cgerrors.InvalidConfigValue("custom_detectors", err.Error())
		}
		return v, nil
	case FormatTOML:
		var v any
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
			return nil, cgerrors.InvalidConfigValue("custom_detectors", err.Error())
		}
		return v, nil
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, cgerrors.InvalidConfigValue("custom_detectors", err.Error())
		}
		return normalizeYAML(v), nil
	default:
		return nil, cgerrors.InvalidConfigValue("format", fmt.Sprintf("unsupported format %q", format))
	}
}

// normalizeYAML recursively converts map[string]interface{} (yaml.v3's
// native map shape) into map[string]any so downstream schema validation and
// JSON re-marshaling behave identically across formats.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
