// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package configx

import (
	"context"

	"github.com/knadh/koanf"
	"github.com/spf13/pflag"

	"github.com/clinia/dataapi/loggerx"
)

type (
	OptionModifier func(p *Provider)
	tuple          struct {
		Key   string
		Value interface{}
	}
)

func WithConfigFiles(files ...string) OptionModifier {
	return func(p *Provider) {
		p.files = append(p.files, files...)
	}
}

func WithFlags(flags *pflag.FlagSet) OptionModifier {
	return func(p *Provider) {
		p.flags = flags
	}
}

func WithLogger(l *loggerx.Logger) OptionModifier {
	return func(p *Provider) {
		p.logger = l
	}
}

// WithEnvPrefix loads environment variables starting with prefix. A double underscore separates
// nested keys, e.g. DATAAPI_BULK__CHUNK_SIZE sets bulk.chunk_size.
func WithEnvPrefix(prefix string) OptionModifier {
	return func(p *Provider) {
		p.envPrefix = prefix
	}
}

func SkipValidation() OptionModifier {
	return func(p *Provider) {
		p.skipValidation = true
	}
}

func DisableEnvLoading() OptionModifier {
	return func(p *Provider) {
		p.disableEnvLoading = true
	}
}

// WithValue forces a value, overriding every other source.
func WithValue(key string, value interface{}) OptionModifier {
	return func(p *Provider) {
		p.forcedValues = append(p.forcedValues, tuple{Key: key, Value: value})
	}
}

func WithValues(values map[string]interface{}) OptionModifier {
	return func(p *Provider) {
		for key, value := range values {
			p.forcedValues = append(p.forcedValues, tuple{Key: key, Value: value})
		}
	}
}

// WithBaseValues sets values loaded right after the schema defaults.
func WithBaseValues(values map[string]interface{}) OptionModifier {
	return func(p *Provider) {
		for key, value := range values {
			p.baseValues = append(p.baseValues, tuple{Key: key, Value: value})
		}
	}
}

func WithUserProviders(providers ...koanf.Provider) OptionModifier {
	return func(p *Provider) {
		p.userProviders = append(p.userProviders, providers...)
	}
}

type contextKey int

const configOptionsKey contextKey = iota

// ContextWithConfigOptions stores options to be applied by WithContext.
func ContextWithConfigOptions(ctx context.Context, opts ...OptionModifier) context.Context {
	return context.WithValue(ctx, configOptionsKey, append(ConfigOptionsFromContext(ctx), opts...))
}

func ConfigOptionsFromContext(ctx context.Context) []OptionModifier {
	opts, _ := ctx.Value(configOptionsKey).([]OptionModifier)
	return opts
}

func WithContext(ctx context.Context) OptionModifier {
	return func(p *Provider) {
		for _, o := range ConfigOptionsFromContext(ctx) {
			o(p)
		}
	}
}
