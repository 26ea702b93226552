// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"
	"net/http"

	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/loggerx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/embedded"
	"go.opentelemetry.io/otel/metric/noop"
)

type Meter struct {
	meter    metric.Meter
	registry *prometheus.Registry
	shutdown func(context.Context) error
}

// setup constructs the meter based on the given configuration.
func (m *Meter) setup(ctx context.Context, l *loggerx.Logger, c *MeterConfig) error {
	switch c.Provider {
	case "prometheus":
		reg := c.Registry
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		mp, err := SetupPrometheusMeterProvider(reg, c)
		if err != nil {
			return err
		}

		m.meter = mp.Meter(c.Name)
		m.registry = reg
		m.shutdown = mp.Shutdown
		l.Info(ctx, "Prometheus meter configured")
	case "otel":
		mp, err := SetupOTLPMeterProvider(ctx, c)
		if err != nil {
			return err
		}

		m.meter = mp.Meter(c.Name)
		m.shutdown = mp.Shutdown
		l.Info(ctx, "OTLP meter configured", attribute.String("server_url", c.Providers.OTLP.ServerURL))
	case "stdout":
		mp, err := SetupStdoutMeterProvider(c)
		if err != nil {
			return err
		}

		m.meter = mp.Meter(c.Name)
		m.shutdown = mp.Shutdown
		l.Info(ctx, "Stdout meter configured")
	case "":
		l.Debug(ctx, "No meter configured - skipping meter setup")
		m.meter = noop.NewMeterProvider().Meter(c.Name)
	default:
		return errorx.NewEnumOutOfRangeError(c.Provider, []string{"prometheus", "otel", "stdout", ""}, "meter provider")
	}
	return nil
}

func NewNoopMeter() *Meter {
	return &Meter{
		meter: noop.NewMeterProvider().Meter("NoopMeter"),
	}
}

// IsLoaded returns true if the meter has been loaded.
func (m *Meter) IsLoaded() bool {
	if m == nil || m.meter == nil {
		return false
	}
	return true
}

// Meter returns the underlying OpenTelemetry meter.
func (m *Meter) Meter() metric.Meter {
	return m.meter
}

// Provider returns a MeterProvider which in turn yields this meter unmodified.
func (m *Meter) Provider() metric.MeterProvider {
	return meterProvider{m: m.Meter()}
}

// Handler serves the prometheus registry. It is nil unless the prometheus provider is configured.
func (m *Meter) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes pending measurements.
func (m *Meter) Shutdown(ctx context.Context) error {
	if m == nil || m.shutdown == nil {
		return nil
	}
	return m.shutdown(ctx)
}

type meterProvider struct {
	embedded.MeterProvider
	m metric.Meter
}

var _ metric.MeterProvider = meterProvider{}

// Meter implements metric.MeterProvider.
func (mp meterProvider) Meter(name string, options ...metric.MeterOption) metric.Meter {
	return mp.m
}
