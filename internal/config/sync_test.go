// SPDX-License-Identifier: MPL-2.0

package config

import (
	"reflect"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// TestConfigSchemaSync verifies the Config JSON tags match the #Config CUE fields.
func TestConfigSchemaSync(t *testing.T) {
	t.Parallel()

	schema := cuecontext.New().CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatalf("failed to compile CUE schema: %v", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if def.Err() != nil {
		t.Fatalf("failed to lookup #Config: %v", def.Err())
	}

	cueFields := make(map[string]bool)
	iter, err := def.Fields(cue.Optional(true))
	if err != nil {
		t.Fatalf("failed to iterate CUE fields: %v", err)
	}
	for iter.Next() {
		cueFields[strings.TrimSuffix(iter.Selector().String(), "?")] = true
	}

	goFields := make(map[string]bool)
	typ := reflect.TypeOf(Config{})
	for i := range typ.NumField() {
		tag := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		if tag != "" && tag != "-" {
			goFields[tag] = true
		}
	}

	for f := range cueFields {
		if !goFields[f] {
			t.Errorf("CUE field %q not found in Go struct", f)
		}
	}
	for f := range goFields {
		if !cueFields[f] {
			t.Errorf("Go JSON tag %q not found in CUE schema", f)
		}
	}
}
