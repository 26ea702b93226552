// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
)

type OTLPMeterConfig struct {
	ServerURL string `json:"server_url"`
	// Protocol is "http" (default) or "grpc".
	Protocol string        `json:"protocol"`
	Insecure bool          `json:"insecure"`
	Interval time.Duration `json:"interval"`
}

type MeterProvidersConfig struct {
	OTLP   OTLPMeterConfig `json:"otlp"`
	Stdout StdoutConfig    `json:"stdout"`
}

type MeterConfig struct {
	ServiceName        string               `json:"service_name"`
	Name               string               `json:"name"`
	Provider           string               `json:"provider"`
	Providers          MeterProvidersConfig `json:"providers"`
	ResourceAttributes []attribute.KeyValue `json:"-"`

	// Registry receives the prometheus collector. A new registry is created when nil.
	Registry *prometheus.Registry `json:"-"`
}
