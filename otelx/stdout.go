// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func SetupStdoutTracerProvider(c *TracerConfig) (*sdktrace.TracerProvider, error) {
	opts := []stdouttrace.Option{}
	if c.Providers.Stdout.Pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}

	exp, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
	), nil
}

func SetupStdoutMeterProvider(c *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []stdoutmetric.Option{}
	if c.Providers.Stdout.Pretty {
		opts = append(opts, stdoutmetric.WithPrettyPrint())
	}

	exp, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
	), nil
}
