// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/samplers/jaegerremote"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/clinia/dataapi/errorx"
)

const (
	OTLPProtocolHTTP = "http"
	OTLPProtocolGRPC = "grpc"
)

var otlpProtocols = []string{OTLPProtocolHTTP, OTLPProtocolGRPC}

// SetupOTLPTracerProvider exports spans over OTLP. The returned shutdown flushes the provider and
// stops the remote sampler when one is configured.
func SetupOTLPTracerProvider(ctx context.Context, c *TracerConfig) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	client, err := newOTLPTraceClient(&c.Providers.OTLP)
	if err != nil {
		return nil, nil, err
	}

	exp, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	sampler, closeSampler := newSampler(c)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
		sdktrace.WithSampler(sampler),
	)

	return tp, func(ctx context.Context) error {
		defer closeSampler()
		return tp.Shutdown(ctx)
	}, nil
}

func newOTLPTraceClient(c *OTLPTracerConfig) (otlptrace.Client, error) {
	switch c.Protocol {
	case "", OTLPProtocolHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(c.ServerURL)}
		if c.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.NewClient(opts...), nil
	case OTLPProtocolGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.ServerURL)}
		if c.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.NewClient(opts...), nil
	default:
		return nil, errorx.NewEnumOutOfRangeError(c.Protocol, otlpProtocols, "otlp protocol")
	}
}

// newSampler samples by trace id ratio, or asks a jaeger sampling server when one is configured.
// The ratio is then only used until the first strategy is fetched.
func newSampler(c *TracerConfig) (sdktrace.Sampler, func()) {
	s := c.Providers.OTLP.Sampling
	ratio := sdktrace.TraceIDRatioBased(s.SamplingRatio)
	if s.ServerURL == "" {
		return sdktrace.ParentBased(ratio), func() {}
	}

	opts := []jaegerremote.Option{
		jaegerremote.WithSamplingServerURL(s.ServerURL),
		jaegerremote.WithInitialSampler(ratio),
	}
	if s.RefreshInterval > 0 {
		opts = append(opts, jaegerremote.WithSamplingRefreshInterval(s.RefreshInterval))
	}
	remote := jaegerremote.New(c.ServiceName, opts...)
	return sdktrace.ParentBased(remote), remote.Close
}

func SetupOTLPMeterProvider(ctx context.Context, c *MeterConfig) (*sdkmetric.MeterProvider, error) {
	exp, err := newOTLPMetricExporter(ctx, &c.Providers.OTLP)
	if err != nil {
		return nil, err
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if c.Providers.OTLP.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(c.Providers.OTLP.Interval))
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, readerOpts...)),
		sdkmetric.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
	), nil
}

func newOTLPMetricExporter(ctx context.Context, c *OTLPMeterConfig) (sdkmetric.Exporter, error) {
	switch c.Protocol {
	case "", OTLPProtocolHTTP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(c.ServerURL)}
		if c.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return exp, nil
	case OTLPProtocolGRPC:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(c.ServerURL)}
		if c.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return exp, nil
	default:
		return nil, errorx.NewEnumOutOfRangeError(c.Protocol, otlpProtocols, "otlp protocol")
	}
}
