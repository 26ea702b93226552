// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"
	"errors"

	"github.com/clinia/dataapi/loggerx"
)

type Otel struct {
	tracer *Tracer
	meter  *Meter
}

type OtelOption func(*otelOptions)

type otelOptions struct {
	tracerConfig *TracerConfig
	meterConfig  *MeterConfig
}

func WithTracer(config *TracerConfig) OtelOption {
	return func(o *otelOptions) {
		o.tracerConfig = config
	}
}

func WithMeter(config *MeterConfig) OtelOption {
	return func(o *otelOptions) {
		o.meterConfig = config
	}
}

// New sets up the tracer and meter described by opts. Missing configs produce no-op instances.
func New(ctx context.Context, l *loggerx.Logger, opts ...OtelOption) (*Otel, error) {
	o := &otelOptions{}
	for _, opt := range opts {
		opt(o)
	}

	t := &Tracer{}
	if o.tracerConfig != nil {
		if err := t.setup(ctx, l, o.tracerConfig); err != nil {
			return nil, err
		}
	} else {
		t = NewNoopTracer("NoopTracer")
	}

	m := &Meter{}
	if o.meterConfig != nil {
		if err := m.setup(ctx, l, o.meterConfig); err != nil {
			return nil, errors.Join(err, t.Shutdown(ctx))
		}
	} else {
		m = NewNoopMeter()
	}

	return &Otel{tracer: t, meter: m}, nil
}

// NewNoop returns telemetry discarding everything.
func NewNoop() *Otel {
	return &Otel{
		tracer: NewNoopTracer("NoopTracer"),
		meter:  NewNoopMeter(),
	}
}

func (o *Otel) Tracer() *Tracer {
	return o.tracer
}

func (o *Otel) Meter() *Meter {
	return o.meter
}

// Shutdown flushes the tracer and the meter.
func (o *Otel) Shutdown(ctx context.Context) error {
	return errors.Join(o.tracer.Shutdown(ctx), o.meter.Shutdown(ctx))
}
