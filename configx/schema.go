// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package configx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/ory/jsonschema/v3"
)

func newCompiler(schema []byte) (string, *jsonschema.Compiler, error) {
	id := gjson.GetBytes(schema, "$id").String()
	if id == "" {
		id = fmt.Sprintf("%s.json", uuid.Must(uuid.NewRandom()).String())
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, bytes.NewBuffer(schema)); err != nil {
		return "", nil, errors.WithStack(err)
	}

	// Required so that defaults and other annotations survive compilation
	compiler.ExtractAnnotations = true

	return id, compiler, nil
}

func compileSchema(ctx context.Context, schema []byte) (*jsonschema.Schema, error) {
	id, c, err := newCompiler(schema)
	if err != nil {
		return nil, err
	}

	s, err := c.Compile(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return s, nil
}

// schemaDefaults collects every "default" found under the schema properties, keyed by their dotted path.
func schemaDefaults(schema []byte) map[string]interface{} {
	out := map[string]interface{}{}
	var walk func(prefix string, node gjson.Result)
	walk = func(prefix string, node gjson.Result) {
		node.Get("properties").ForEach(func(key, value gjson.Result) bool {
			path := key.String()
			if prefix != "" {
				path = prefix + "." + path
			}
			if def := value.Get("default"); def.Exists() {
				out[path] = def.Value()
			}
			walk(path, value)
			return true
		})
	}
	walk("", gjson.ParseBytes(schema))
	return out
}

// schemaPath returns the gjson path of the schema node describing key.
func schemaPath(key string) string {
	parts := strings.Split(key, ".")
	for i, p := range parts {
		parts[i] = "properties." + gjson.Escape(p)
	}
	return strings.Join(parts, ".")
}

// coerce converts a string value, e.g. from the environment, to the type the schema expects for key.
// Values that can not be converted are returned unchanged so that validation reports them.
func coerce(schema []byte, key, value string) interface{} {
	node := gjson.GetBytes(schema, schemaPath(key))
	if !node.Exists() {
		return value
	}

	switch node.Get("type").String() {
	case "integer":
		if v, err := cast.ToInt64E(value); err == nil {
			return v
		}
	case "number":
		if v, err := cast.ToFloat64E(value); err == nil {
			return v
		}
	case "boolean":
		if v, err := cast.ToBoolE(value); err == nil {
			return v
		}
	case "array":
		return strings.Split(value, ",")
	}
	return value
}
