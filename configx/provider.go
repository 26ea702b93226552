// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package configx

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/knadh/koanf"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/loggerx"
	"github.com/ory/jsonschema/v3"
)

const Delimiter = "."

// Provider merges, in increasing priority, schema defaults, base values, config files, user
// providers, environment variables, command line flags and forced values.
type Provider struct {
	*koanf.Koanf

	schema []byte
	logger *loggerx.Logger

	files             []string
	flags             *pflag.FlagSet
	envPrefix         string
	baseValues        []tuple
	forcedValues      []tuple
	userProviders     []koanf.Provider
	skipValidation    bool
	disableEnvLoading bool
}

// New creates a new provider validated against schema.
func New(ctx context.Context, schema []byte, modifiers ...OptionModifier) (*Provider, error) {
	p := &Provider{
		schema: schema,
		logger: loggerx.NewNoop(),
	}
	for _, m := range modifiers {
		m(p)
	}

	validator, err := compileSchema(ctx, schema)
	if err != nil {
		return nil, err
	}

	k, err := p.newKoanf(ctx)
	if err != nil {
		return nil, err
	}

	if !p.skipValidation {
		if err := validate(k, validator); err != nil {
			return nil, err
		}
	}

	p.Koanf = k
	return p, nil
}

func (p *Provider) newKoanf(ctx context.Context) (*koanf.Koanf, error) {
	k := koanf.New(Delimiter)

	if err := k.Load(confmap.Provider(schemaDefaults(p.schema), Delimiter), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Load(confmap.Provider(tuplesToMap(p.baseValues), Delimiter), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	for _, f := range p.files {
		parser, err := parserFor(f)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(f), parser); err != nil {
			return nil, errorx.InvalidArgumentErrorf("unable to load config file %q: %v", f, err)
		}
		p.logger.Debug(ctx, "loaded config file", attribute.String("file", f))
	}

	for _, up := range p.userProviders {
		if err := k.Load(up, nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if !p.disableEnvLoading && p.envPrefix != "" {
		if err := k.Load(env.ProviderWithValue(p.envPrefix, Delimiter, p.envKey), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if p.flags != nil {
		if err := k.Load(posflag.Provider(p.flags, Delimiter, k), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if err := k.Load(confmap.Provider(tuplesToMap(p.forcedValues), Delimiter), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	return k, nil
}

func (p *Provider) envKey(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, p.envPrefix))
	key = strings.ReplaceAll(key, "__", Delimiter)
	return key, coerce(p.schema, key, value)
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return kjson.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, errorx.InvalidArgumentErrorf("unsupported config file extension %q for %q", ext, path)
	}
}

func tuplesToMap(ts []tuple) map[string]interface{} {
	m := make(map[string]interface{}, len(ts))
	for _, t := range ts {
		m[t.Key] = t.Value
	}
	return m
}

func validate(k *koanf.Koanf, schema *jsonschema.Schema) error {
	raw, err := json.Marshal(k.Raw())
	if err != nil {
		return errors.WithStack(err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.WithStack(err)
	}

	if err := schema.ValidateInterface(doc); err != nil {
		return errorx.InvalidArgumentErrorf("invalid configuration: %v", err).WithOriginalError(err)
	}
	return nil
}

func (p *Provider) String(key string) string {
	return cast.ToString(p.Koanf.Get(key))
}

func (p *Provider) StringF(key string, fallback string) string {
	if !p.Koanf.Exists(key) {
		return fallback
	}
	return p.String(key)
}

func (p *Provider) Int(key string) int {
	return cast.ToInt(p.Koanf.Get(key))
}

func (p *Provider) IntF(key string, fallback int) int {
	if !p.Koanf.Exists(key) {
		return fallback
	}
	return p.Int(key)
}

func (p *Provider) Bool(key string) bool {
	return cast.ToBool(p.Koanf.Get(key))
}

func (p *Provider) Float64(key string) float64 {
	return cast.ToFloat64(p.Koanf.Get(key))
}

func (p *Provider) Duration(key string) time.Duration {
	return cast.ToDuration(p.Koanf.Get(key))
}

func (p *Provider) DurationF(key string, fallback time.Duration) time.Duration {
	if !p.Koanf.Exists(key) {
		return fallback
	}
	return p.Duration(key)
}

func (p *Provider) Strings(key string) []string {
	return cast.ToStringSlice(p.Koanf.Get(key))
}

// ByteSize reads a size written either as a number of bytes or a human readable string such as "4MB".
func (p *Provider) ByteSize(key string) (bytesize.ByteSize, error) {
	switch v := p.Koanf.Get(key).(type) {
	case nil:
		return 0, nil
	case string:
		b, err := bytesize.Parse(v)
		if err != nil {
			return 0, errorx.InvalidArgumentErrorf("invalid byte size %q for %s: %v", v, key, err)
		}
		return b, nil
	default:
		n, err := cast.ToUint64E(v)
		if err != nil {
			return 0, errorx.InvalidArgumentErrorf("invalid byte size %v for %s: %v", v, key, err)
		}
		return bytesize.ByteSize(n), nil
	}
}
