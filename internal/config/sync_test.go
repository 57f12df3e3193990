// SPDX-License-Identifier: MPL-2.0

package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/skillkit/skillkit/pkg/engine"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// These tests verify Go struct JSON tags match the CUE schema field names,
// catching misalignments that would otherwise drop values silently.

func extractCUEFields(t *testing.T, val cue.Value) map[string]bool {
	t.Helper()

	fields := make(map[string]bool)
	iter, err := val.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("failed to iterate CUE fields: %v", err)
	}
	for iter.Next() {
		sel := iter.Selector()
		if sel.LabelType().IsHidden() || sel.IsDefinition() {
			continue
		}
		fields[strings.TrimSuffix(sel.String(), "?")] = iter.IsOptional()
	}
	return fields
}

func extractGoJSONTags(t *testing.T, typ reflect.Type) map[string]bool {
	t.Helper()

	fields := make(map[string]bool)
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		fields[name] = true
	}
	return fields
}

func lookupDefinition(t *testing.T, defPath string) cue.Value {
	t.Helper()

	schema := cuecontext.New().CompileBytes(configSchema)
	if schema.Err() != nil {
		t.Fatalf("failed to compile CUE schema: %v", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		t.Fatalf("failed to lookup CUE definition %s: %v", defPath, def.Err())
	}
	return def
}

func TestSchemaSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		def string
		typ reflect.Type
	}{
		{"#Config", reflect.TypeFor[Config]()},
		{"#TierBudget", reflect.TypeFor[TierBudget]()},
		{"#LimitsConfig", reflect.TypeFor[LimitsConfig]()},
		{"#OutputConfig", reflect.TypeFor[OutputConfig]()},
		{"#TierRule", reflect.TypeFor[engine.TierRule]()},
	}

	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			t.Parallel()
			cueFields := extractCUEFields(t, lookupDefinition(t, tt.def))
			goFields := extractGoJSONTags(t, tt.typ)
			for field := range cueFields {
				if _, ok := goFields[field]; !ok {
					t.Errorf("[%s] CUE field %q not found in Go struct", tt.def, field)
				}
			}
			for field := range goFields {
				if _, ok := cueFields[field]; !ok {
					t.Errorf("[%s] Go JSON tag %q not found in CUE schema", tt.def, field)
				}
			}
		})
	}
}
