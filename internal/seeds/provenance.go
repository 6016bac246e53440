package seeds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-seeds/pkg/interfaces"
)

// Sources returns the provenance list stored under fields["sources"]. It
// accepts the typed slice used in memory as well as the generic shapes
// produced by YAML and JSON decoders: maps of any key and value type, plain
// URL strings, and a lone entry in place of a list. Entries without a
// readable URL are skipped. A missing key yields nil.
func Sources(fields map[string]any) []interfaces.ProvenanceRecord {
	raw, ok := fields[interfaces.SourcesField]
	if !ok || raw == nil {
		return nil
	}
	if typed, ok := raw.([]interfaces.ProvenanceRecord); ok {
		return append([]interfaces.ProvenanceRecord{}, typed...)
	}
	entries := sourceEntries(raw)
	out := make([]interfaces.ProvenanceRecord, 0, len(entries))
	for _, entry := range entries {
		if record, ok := recordFromAny(entry); ok {
			out = append(out, record)
		}
	}
	return out
}

// AppendProvenance returns a copy of fields whose sources list contains
// record. The list is initialised when absent and record is only added when
// no existing entry has the exact same URL. Existing entries are kept as they
// were decoded, extra keys included.
func AppendProvenance(fields map[string]any, record interfaces.ProvenanceRecord) map[string]any {
	out := make(map[string]any, len(fields)+1)
	maps.Copy(out, fields)

	raw := fields[interfaces.SourcesField]
	if typed, ok := raw.([]interfaces.ProvenanceRecord); ok {
		sources := append([]interfaces.ProvenanceRecord{}, typed...)
		if !HasSource(sources, record.URL) {
			sources = append(sources, record)
		}
		out[interfaces.SourcesField] = sources
		return out
	}

	entries := sourceEntries(raw)
	if entries == nil {
		out[interfaces.SourcesField] = []interfaces.ProvenanceRecord{record}
		return out
	}
	if !HasSource(Sources(out), record.URL) {
		entries = append(entries, record)
	}
	out[interfaces.SourcesField] = entries
	return out
}

// HasSource reports whether sources already holds a record for url. The
// comparison is exact: no trimming or normalisation.
func HasSource(sources []interfaces.ProvenanceRecord, url string) bool {
	for _, source := range sources {
		if source.URL == url {
			return true
		}
	}
	return false
}

// sourceEntries copies the raw sources value into a fresh []any. Slices of
// any element type are spread; any other non-nil value is a single entry.
func sourceEntries(raw any) []any {
	if raw == nil {
		return nil
	}
	value := reflect.ValueOf(raw)
	if value.Kind() != reflect.Slice && value.Kind() != reflect.Array {
		return []any{raw}
	}
	entries := make([]any, 0, value.Len()+1)
	for i := 0; i < value.Len(); i++ {
		entries = append(entries, value.Index(i).Interface())
	}
	return entries
}

func recordFromAny(entry any) (interfaces.ProvenanceRecord, bool) {
	switch value := entry.(type) {
	case interfaces.ProvenanceRecord:
		return value, true
	case *interfaces.ProvenanceRecord:
		if value == nil {
			return interfaces.ProvenanceRecord{}, false
		}
		return *value, true
	case string:
		if strings.TrimSpace(value) == "" {
			return interfaces.ProvenanceRecord{}, false
		}
		return interfaces.ProvenanceRecord{URL: value}, true
	}
	fields, ok := stringKeyed(entry)
	if !ok {
		return interfaces.ProvenanceRecord{}, false
	}
	return recordFromMap(fields), true
}

// stringKeyed converts any map into a map[string]any, formatting keys with
// fmt.Sprint.
func stringKeyed(entry any) (map[string]any, bool) {
	if typed, ok := entry.(map[string]any); ok {
		return typed, true
	}
	value := reflect.ValueOf(entry)
	if !value.IsValid() || value.Kind() != reflect.Map {
		return nil, false
	}
	out := make(map[string]any, value.Len())
	iter := value.MapRange()
	for iter.Next() {
		out[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
	}
	return out, true
}

func recordFromMap(entry map[string]any) interfaces.ProvenanceRecord {
	return interfaces.ProvenanceRecord{
		Name:    stringField(entry, "name"),
		URL:     stringField(entry, "url"),
		License: stringField(entry, "license"),
	}
}

func stringField(entry map[string]any, key string) string {
	if value, ok := entry[key].(string); ok {
		return value
	}
	return ""
}

const sourcesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "minItems": 1,
  "items": {
    "oneOf": [
      {"type": "string", "minLength": 1},
      {
        "type": "object",
        "required": ["url"],
        "properties": {
          "name": {"type": "string"},
          "url": {"type": "string", "minLength": 1},
          "license": {"type": "string"}
        }
      }
    ]
  }
}`

var (
	sourcesSchemaOnce     sync.Once
	sourcesSchemaCompiled *jsonschema.Schema
	sourcesSchemaErr      error
)

func compiledSourcesSchema() (*jsonschema.Schema, error) {
	sourcesSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("sources.json", strings.NewReader(sourcesSchema)); err != nil {
			sourcesSchemaErr = err
			return
		}
		sourcesSchemaCompiled, sourcesSchemaErr = compiler.Compile("sources.json")
	})
	return sourcesSchemaCompiled, sourcesSchemaErr
}

// ValidateSources checks that fields carries a non-empty, well-formed sources
// list. Every document handed to a store must pass. Entries are either URL
// strings or objects with a url; unknown keys are allowed.
func ValidateSources(fields map[string]any) error {
	schema, err := compiledSourcesSchema()
	if err != nil {
		return fmt.Errorf("seeds: compile sources schema: %w", err)
	}

	entries := sourceEntries(fields[interfaces.SourcesField])
	if entries == nil {
		entries = []any{}
	}
	encoded, err := json.Marshal(jsonReady(entries))
	if err != nil {
		return fmt.Errorf("seeds: encode sources: %w", err)
	}
	var payload any
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return fmt.Errorf("seeds: decode sources: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("seeds: invalid sources: %w", err)
	}
	return nil
}

// jsonReady rewrites maps with non-string keys, at any depth, so the value
// can be encoded as JSON.
func jsonReady(value any) any {
	if value == nil {
		return nil
	}
	if _, ok := value.(interfaces.ProvenanceRecord); ok {
		return value
	}
	if mapped, ok := stringKeyed(value); ok {
		out := make(map[string]any, len(mapped))
		for key, item := range mapped {
			out[key] = jsonReady(item)
		}
		return out
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = jsonReady(rv.Index(i).Interface())
		}
		return out
	}
	return value
}
