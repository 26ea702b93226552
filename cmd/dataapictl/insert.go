package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/dataapi/bulkx"
	"github.com/clinia/dataapi/configx"
	"github.com/clinia/dataapi/dataapix"
	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/loggerx"
	"github.com/clinia/dataapi/otelx"
	"github.com/clinia/dataapi/tracex"
)

const (
	envPrefix     = "DATAAPI_"
	maxLineLength = 16 * 1024 * 1024
)

// configFlags are the flags that map onto dataapix config keys.
var configFlags = map[string]bool{
	"endpoint":           true,
	"keyspace":           true,
	"token":              true,
	"document_responses": true,
	"retry.count":        true,
	"bulk.ordered":       true,
	"bulk.concurrency":   true,
	"bulk.chunk_size":    true,
	"bulk.chunk_timeout": true,
}

type insertSummary struct {
	Inserted     int           `json:"inserted"`
	Failed       int           `json:"failed"`
	NotAttempted int           `json:"not_attempted"`
	Elapsed      string        `json:"elapsed"`
	Errors       []summaryItem `json:"errors,omitempty"`
}

type summaryItem struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

func newInsertFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("insert", pflag.ContinueOnError)
	flags.String("endpoint", "", "Data API endpoint, e.g. https://db.example.com")
	flags.String("keyspace", "", "Keyspace of the collection")
	flags.String("token", "", "Application token")
	flags.Bool("document_responses", true, "Ask the server for one response per document")
	flags.Int("retry.count", 3, "Attempts per command on transient failures")
	flags.Bool("bulk.ordered", false, "Stop at the first failed document")
	flags.Int("bulk.concurrency", 1, "Chunks sent concurrently")
	flags.Int("bulk.chunk_size", dataapix.MaxChunkSize, "Documents per chunk")
	flags.String("bulk.chunk_timeout", "30s", "Timeout of each chunk, 0 to disable")

	flags.StringP("collection", "C", "", "Collection to insert into")
	flags.StringP("file", "f", "-", "NDJSON file to read, - for stdin")
	flags.StringSliceP("config", "c", nil, "Config files (json, yaml or toml), later files win")
	flags.String("log.level", "info", "Log level")
	flags.String("metrics.addr", "", "Serve prometheus metrics on this address while inserting")
	return flags
}

func runInsert(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := newInsertFlags()
	flags.SetOutput(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	level, _ := flags.GetString("log.level")
	l := loggerx.New(
		loggerx.WithOutput(stderr),
		loggerx.WithLevel(level),
		loggerx.WithService("dataapictl", version),
		loggerx.WithRequestID(dataapix.RequestIDContextKey, "request_id"),
	)

	if err := insert(ctx, l, flags, stdin, stdout); err != nil {
		l.WithError(err).Error(ctx, "insert failed")
		return 1
	}
	return 0
}

func insert(ctx context.Context, l *loggerx.Logger, flags *pflag.FlagSet, stdin io.Reader, stdout io.Writer) error {
	collection, _ := flags.GetString("collection")
	if collection == "" {
		return errorx.InvalidArgumentErrorf("--collection is required")
	}

	conf, err := loadConfig(ctx, l, flags)
	if err != nil {
		return err
	}

	docs, lines, err := readInput(flags, stdin)
	if err != nil {
		return err
	}

	o, stopMetrics, err := setupMetrics(ctx, l, flags)
	if err != nil {
		return err
	}
	defer stopMetrics()

	client, err := dataapix.NewClient(conf, dataapix.WithLogger(l), dataapix.WithMeter(o.Meter()), dataapix.WithTracer(o.Tracer()))
	if err != nil {
		return err
	}
	defer client.Close()

	l.Info(ctx, "inserting documents",
		attribute.String("collection", collection),
		attribute.Int("documents", len(docs)),
	)

	start := time.Now()
	res, err := client.Collection(collection).InsertMany(ctx, docs)
	if res == nil {
		return err
	}

	summary := summarize(res.Result, lines, time.Since(start))
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if eerr := enc.Encode(summary); eerr != nil {
		return eerr
	}
	return err
}

// loadConfig merges config files, DATAAPI_ environment variables and the config flags.
func loadConfig(ctx context.Context, l *loggerx.Logger, flags *pflag.FlagSet) (*dataapix.Config, error) {
	files, _ := flags.GetStringSlice("config")

	cf := pflag.NewFlagSet("config", pflag.ContinueOnError)
	flags.VisitAll(func(f *pflag.Flag) {
		if configFlags[f.Name] {
			cf.AddFlag(f)
		}
	})

	p, err := dataapix.NewConfigProvider(ctx,
		configx.WithLogger(l),
		configx.WithConfigFiles(files...),
		configx.WithEnvPrefix(envPrefix),
		configx.WithFlags(cf),
	)
	if err != nil {
		return nil, err
	}
	return dataapix.NewConfigFromProvider(p)
}

func readInput(flags *pflag.FlagSet, stdin io.Reader) ([]any, []int, error) {
	path, _ := flags.GetString("file")
	if path == "-" {
		return readDocuments(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return readDocuments(f)
}

// readDocuments reads one JSON document per line and the line number of each. Blank lines are skipped.
func readDocuments(r io.Reader) ([]any, []int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var (
		docs  []any
		lines []int
	)
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		if !gjson.ValidBytes(b) {
			return nil, nil, errorx.InvalidArgumentErrorf("line %d is not valid JSON", line)
		}
		docs = append(docs, json.RawMessage(bytes.Clone(b)))
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return docs, lines, nil
}

func setupMetrics(ctx context.Context, l *loggerx.Logger, flags *pflag.FlagSet) (*otelx.Otel, func(), error) {
	addr, _ := flags.GetString("metrics.addr")
	if addr == "" {
		return otelx.NewNoop(), func() {}, nil
	}

	o, err := otelx.New(ctx, l, otelx.WithMeter(&otelx.MeterConfig{
		ServiceName: "dataapictl",
		Name:        "dataapictl",
		Provider:    "prometheus",
	}))
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Meter().Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		defer tracex.RecoverWithStackTrace(ctx, l, "metrics server panicked")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.WithError(err).Error(ctx, "metrics server stopped")
		}
	}()
	l.Info(ctx, "serving metrics", attribute.String("addr", addr))

	return o, func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
		_ = o.Shutdown(sctx)
	}, nil
}

// summarize reports failures by input line. lines[i] is the line of operation i.
func summarize(res *bulkx.BulkResult, lines []int, elapsed time.Duration) insertSummary {
	s := insertSummary{
		Inserted:     len(res.Succeeded()),
		Failed:       len(res.Failed()),
		NotAttempted: len(res.NotAttempted()),
		Elapsed:      elapsed.Round(time.Millisecond).String(),
	}
	for _, e := range res.Errors() {
		s.Errors = append(s.Errors, summaryItem{Line: lines[e.Index], Error: e.Err.Error()})
	}
	return s
}
