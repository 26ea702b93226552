// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

type OTLPTracerConfig struct {
	ServerURL string `json:"server_url"`
	// Protocol is "http" (default) or "grpc".
	Protocol string       `json:"protocol"`
	Insecure bool         `json:"insecure"`
	Sampling OTLPSampling `json:"sampling"`
}

type OTLPSampling struct {
	SamplingRatio float64 `json:"sampling_ratio"`
	// ServerURL of a jaeger remote sampling endpoint, e.g. http://localhost:5778/sampling.
	ServerURL       string        `json:"server_url"`
	RefreshInterval time.Duration `json:"refresh_interval"`
}

type StdoutConfig struct {
	Pretty bool `json:"pretty"`
}

type TracerProvidersConfig struct {
	OTLP   OTLPTracerConfig `json:"otlp"`
	Stdout StdoutConfig     `json:"stdout"`
}

type TracerConfig struct {
	ServiceName        string                `json:"service_name"`
	Name               string                `json:"name"`
	Provider           string                `json:"provider"`
	Providers          TracerProvidersConfig `json:"providers"`
	ResourceAttributes []attribute.KeyValue  `json:"-"`
}
