package dataapix

import (
	"context"
	_ "embed"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/inhies/go-bytesize"

	"github.com/clinia/dataapi/bulkx"
	"github.com/clinia/dataapi/configx"
	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/mathx"
)

//go:embed config.schema.json
var ConfigSchema []byte

// MaxChunkSize is the largest number of documents the server accepts in one insertMany.
const MaxChunkSize = bulkx.DefaultChunkSize

const (
	IDVersion4 = "v4"
	IDVersion7 = "v7"
)

const (
	defaultUserAgent       = "dataapi-go"
	defaultRequestTimeout  = 60 * time.Second
	defaultMaxRequestBytes = 5 * bytesize.MB
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Config struct {
	Endpoint        string            `json:"endpoint" validate:"required,url"`
	Keyspace        string            `json:"keyspace" validate:"required"`
	Token           string            `json:"token"`
	UserAgent       string            `json:"user_agent"`
	RequestTimeout  time.Duration     `json:"request_timeout" validate:"gte=0"`
	MaxRequestBytes bytesize.ByteSize `json:"max_request_bytes"`
	// IDVersion is the UUID version of the _id given to documents inserted without one.
	IDVersion string `json:"id_version" validate:"omitempty,oneof=v4 v7"`
	// DocumentResponses asks insertMany to report the fate of every document. Without it failed
	// documents are inferred from the inserted ids.
	DocumentResponses bool        `json:"document_responses"`
	Retry             RetryConfig `json:"retry"`
	Bulk              BulkConfig  `json:"bulk"`
}

// RetryConfig controls how commands failing with a transient error are resent. A failed attempt
// may still have been applied. When a retried insertMany reports an already existing document
// whose _id the client generated, the document counts as inserted. Documents carrying their own
// _id keep the error, since another writer may own them.
type RetryConfig struct {
	// Count is the maximum number of attempts for a command failing with a transient error.
	Count       int           `json:"count" validate:"gte=0"`
	Interval    time.Duration `json:"interval" validate:"gte=0"`
	MaxInterval time.Duration `json:"max_interval" validate:"gte=0"`
}

type BulkConfig struct {
	Ordered      bool          `json:"ordered"`
	Concurrency  int           `json:"concurrency" validate:"gte=0"`
	ChunkSize    int           `json:"chunk_size" validate:"gte=0"`
	ChunkTimeout time.Duration `json:"chunk_timeout" validate:"gte=0"`
}

// Validate checks the config and fills the zero values with their defaults.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errorx.InvalidArgumentErrorf("invalid data api config: %v", err).WithOriginalError(err)
	}

	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxRequestBytes == 0 {
		c.MaxRequestBytes = defaultMaxRequestBytes
	}
	if c.IDVersion == "" {
		c.IDVersion = IDVersion4
	}
	if c.Retry.Count == 0 {
		c.Retry.Count = 1
	}
	if c.Bulk.Concurrency == 0 {
		c.Bulk.Concurrency = bulkx.DefaultConcurrency
	}
	if c.Bulk.ChunkSize == 0 {
		c.Bulk.ChunkSize = MaxChunkSize
	}
	c.Bulk.ChunkSize = mathx.Clamp(c.Bulk.ChunkSize, 1, MaxChunkSize)

	return nil
}

// BulkOptions returns the engine options matching the bulk config.
func (c *Config) BulkOptions() bulkx.Options {
	return bulkx.Options{
		Ordered:      c.Bulk.Ordered,
		Concurrency:  c.Bulk.Concurrency,
		ChunkSize:    c.Bulk.ChunkSize,
		ChunkTimeout: c.Bulk.ChunkTimeout,
	}
}

// NewConfigProvider loads the configuration validated against ConfigSchema.
func NewConfigProvider(ctx context.Context, modifiers ...configx.OptionModifier) (*configx.Provider, error) {
	return configx.New(ctx, ConfigSchema, modifiers...)
}

func NewConfigFromProvider(p *configx.Provider) (*Config, error) {
	maxBytes, err := p.ByteSize("max_request_bytes")
	if err != nil {
		return nil, err
	}

	c := &Config{
		Endpoint:          p.String("endpoint"),
		Keyspace:          p.String("keyspace"),
		Token:             p.String("token"),
		UserAgent:         p.String("user_agent"),
		RequestTimeout:    p.Duration("request_timeout"),
		MaxRequestBytes:   maxBytes,
		IDVersion:         p.String("id_version"),
		DocumentResponses: p.Bool("document_responses"),
		Retry: RetryConfig{
			Count:       p.Int("retry.count"),
			Interval:    p.Duration("retry.interval"),
			MaxInterval: p.Duration("retry.max_interval"),
		},
		Bulk: BulkConfig{
			Ordered:      p.Bool("bulk.ordered"),
			Concurrency:  p.Int("bulk.concurrency"),
			ChunkSize:    p.Int("bulk.chunk_size"),
			ChunkTimeout: p.Duration("bulk.chunk_timeout"),
		},
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
