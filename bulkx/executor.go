package bulkx

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/loggerx"
	"github.com/clinia/dataapi/otelx"
	"github.com/clinia/dataapi/syncx"
	"github.com/clinia/dataapi/tracex"
)

const componentName = "bulkx.Executor"

// Executor runs batches of write operations against a Transport. It keeps no state between
// calls and is safe for concurrent use.
type Executor struct {
	transport Transport
	defaults  Options
	logger    *loggerx.Logger
	tracer    *otelx.Tracer
	meter     *otelx.Meter
	metrics   *metrics
}

type ExecutorOption func(*Executor)

func WithLogger(l *loggerx.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

func WithTracer(t *otelx.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = t
	}
}

func WithMeter(m *otelx.Meter) ExecutorOption {
	return func(e *Executor) {
		e.meter = m
	}
}

// WithDefaults sets the options used when Execute is called without options.
func WithDefaults(opts ...Option) ExecutorOption {
	return func(e *Executor) {
		e.defaults = e.defaults.apply(opts...)
	}
}

func NewExecutor(t Transport, opts ...ExecutorOption) (*Executor, error) {
	if t == nil {
		return nil, errorx.InvalidArgumentErrorf("transport can not be nil")
	}

	e := &Executor{
		transport: t,
		defaults:  DefaultOptions(),
		logger:    loggerx.NewNoop(),
		tracer:    otelx.NewNoopTracer(componentName),
		meter:     otelx.NewNoopMeter(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.defaults.Validate(); err != nil {
		return nil, err
	}

	m, err := newMetrics(e.meter.Meter())
	if err != nil {
		return nil, err
	}
	e.metrics = m

	return e, nil
}

func (e *Executor) instrument(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
	return tracex.InstrumentNext(ctx,
		func() *loggerx.Logger { return e.logger },
		func(context.Context) *otelx.Tracer { return e.tracer },
		componentName, name, opts...)
}

// Execute splits ops into chunks, writes them through the transport and merges the outcomes.
//
// Invalid options or operations fail with INVALID_ARGUMENT before anything is sent. Otherwise a
// result holding one outcome per operation is always returned. In ordered mode the error is the
// one of the first failed chunk; in unordered mode it is an *AggregatedBatchError listing every
// failed chunk.
func (e *Executor) Execute(ctx context.Context, ops []WriteOperation, opts ...Option) (*BulkResult, error) {
	o := e.defaults.apply(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	for i, op := range ops {
		if op == nil {
			return nil, errorx.InvalidArgumentErrorf("operation %d is nil", i)
		}
	}

	if len(ops) == 0 {
		return &BulkResult{Ordered: o.Ordered, Items: []ItemOutcome{}}, nil
	}

	ctx, span, l := e.instrument(ctx, "Execute", trace.WithAttributes(
		attribute.Int("bulk.operations", len(ops)),
		attribute.Bool("bulk.ordered", o.Ordered),
		attribute.Int("bulk.concurrency", o.Concurrency),
		attribute.Int("bulk.chunk_size", o.ChunkSize),
	))
	defer span.End()

	chunks, err := Chunks(ops, o.ChunkSize)
	if err != nil {
		return nil, err
	}

	st := newBatchState(len(ops), o.ChunkSize, o.Ordered)
	e.schedule(ctx, l, chunks, st, o)

	res, err := aggregate(st)
	e.metrics.recordOperations(ctx, res)

	stats := st.stats()
	fields := []attribute.KeyValue{
		attribute.Int("bulk.chunks", stats.chunks),
		attribute.Int("bulk.chunks.dispatched", stats.dispatched),
		attribute.Int("bulk.chunks.failed", stats.failed),
		attribute.Int("bulk.succeeded", len(res.Succeeded())),
		attribute.Int("bulk.failed", len(res.Failed())),
		attribute.Int("bulk.not_attempted", len(res.NotAttempted())),
	}
	span.SetAttributes(fields...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.WithError(err).Debug(ctx, "batch completed with errors", fields...)
	} else {
		l.Debug(ctx, "batch completed", fields...)
	}

	return res, err
}

// executeChunk turns one chunk into exactly one outcome. It never retries.
func (e *Executor) executeChunk(ctx context.Context, chunk Chunk, o Options) ChunkOutcome {
	r := chunk.Range()
	ctx, span, l := e.instrument(ctx, "executeChunk", trace.WithAttributes(
		attribute.Int("chunk.start", r.Start),
		attribute.Int("chunk.end", r.End),
	))
	defer span.End()

	start := time.Now()
	outcome, label := e.writeChunk(ctx, l, chunk, o)
	e.metrics.recordChunk(ctx, label, time.Since(start))

	if f, ok := outcome.(*ChunkFailure); ok {
		span.RecordError(f.Err)
		span.SetStatus(codes.Error, f.Err.Error())
		l.WithError(f.Err).Warn(ctx, "chunk failed",
			attribute.Int("chunk.acknowledged", len(f.Partial)+len(f.ItemErrors)),
			attribute.String("chunk.outcome", label),
		)
	}
	return outcome
}

func (e *Executor) writeChunk(ctx context.Context, l *loggerx.Logger, chunk Chunk, o Options) (ChunkOutcome, string) {
	r := chunk.Range()
	cctx := ctx
	if o.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, o.ChunkTimeout)
		defer cancel()
	}

	req := &ChunkRequest{Chunk: chunk, Ordered: o.Ordered}
	f := syncx.Go(func() (resp *ChunkResponse, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error(ctx, "transport panicked while writing chunk", tracex.StackTraceAttrs(rec)...)
				err = errorx.InternalErrorf("transport panicked: %v", rec)
			}
		}()
		return e.transport.Write(cctx, req)
	})

	resp, err := awaitResponse(f, cctx.Done())
	if cerr := cctx.Err(); cerr != nil && (err != nil || resp == nil) {
		return e.contextFailure(ctx, r, cerr, resp)
	}

	if err != nil {
		var items []ItemResponse
		if resp != nil {
			items = resp.Items
		}
		return transportFailure(r, err, items), chunkOutcomeFailure
	}

	return classify(chunk, o.Ordered, resp)
}

// awaitResponse waits for the transport or for done. A response already available when done
// fires is kept. It returns nil, nil when the transport is still running.
func awaitResponse(f *syncx.Future[*ChunkResponse], done <-chan struct{}) (*ChunkResponse, error) {
	select {
	case <-f.Done():
		return f.Await()
	case <-done:
	}

	select {
	case <-f.Done():
		return f.Await()
	default:
		// The transport did not honor its context, stop waiting for it
		return nil, nil
	}
}

// contextFailure reports a chunk interrupted by its timeout or by the caller's context.
func (e *Executor) contextFailure(parent context.Context, r IndexRange, cerr error, resp *ChunkResponse) (ChunkOutcome, string) {
	var items []ItemResponse
	if resp != nil {
		items = resp.Items
	}

	if parent.Err() != nil {
		return transportFailure(r, parent.Err(), items), chunkOutcomeCanceled
	}
	err := errorx.DeadlineExceededErrorf("chunk %s timed out", r).WithOriginalError(cerr)
	return transportFailure(r, err, items), chunkOutcomeTimeout
}

func transportFailure(r IndexRange, err error, items []ItemResponse) *ChunkFailure {
	partial, itemErrs, perr := collect(r, items)
	if perr != nil {
		partial, itemErrs = nil, nil
	}
	return &ChunkFailure{
		Chunk:      r,
		Err:        &ChunkTransportError{Range: r, Err: err, Acknowledged: len(partial) + len(itemErrs)},
		Partial:    partial,
		ItemErrors: itemErrs,
	}
}

// classify turns a complete transport response into an outcome.
func classify(chunk Chunk, ordered bool, resp *ChunkResponse) (ChunkOutcome, string) {
	r := chunk.Range()
	if resp == nil {
		return protocolFailure(r, errorx.InternalErrorf("transport returned no response")), chunkOutcomeFailure
	}

	partial, itemErrs, err := collect(r, resp.Items)
	if err != nil {
		return protocolFailure(r, err), chunkOutcomeFailure
	}

	if len(itemErrs) == 0 {
		if len(partial) != chunk.Len() {
			return protocolFailure(r, errorx.InternalErrorf("transport acknowledged %d of %d operations without reporting an error", len(partial), chunk.Len())), chunkOutcomeFailure
		}
		return &ChunkSuccess{Chunk: r, Results: partial}, chunkOutcomeSuccess
	}

	if ordered && resp.Items[len(resp.Items)-1].Err == nil {
		return protocolFailure(r, errorx.InternalErrorf("ordered transport kept going after a failed operation")), chunkOutcomeFailure
	}

	return &ChunkFailure{
		Chunk:      r,
		Err:        &PartialChunkFailure{Range: r, Succeeded: len(partial), Errors: itemErrs},
		Partial:    partial,
		ItemErrors: itemErrs,
	}, chunkOutcomePartial
}

func protocolFailure(r IndexRange, err error) *ChunkFailure {
	return &ChunkFailure{
		Chunk: r,
		Err:   &ChunkTransportError{Range: r, Err: err},
	}
}

// collect splits acknowledged items into results and errors, checking they form a prefix of the chunk.
func collect(r IndexRange, items []ItemResponse) ([]ItemResult, []ItemError, error) {
	if len(items) > r.Len() {
		return nil, nil, errorx.InternalErrorf("transport acknowledged %d operations for a chunk of %d", len(items), r.Len())
	}

	var (
		results []ItemResult
		errs    []ItemError
	)
	for i, it := range items {
		if it.Index != r.Start+i {
			return nil, nil, errorx.InternalErrorf("transport acknowledged operation %d at position %d of chunk %s", it.Index, i, r)
		}
		switch {
		case it.Err != nil && it.Result == nil:
			errs = append(errs, ItemError{Index: it.Index, Err: it.Err})
		case it.Err == nil && it.Result != nil:
			res := *it.Result
			res.Index = it.Index
			results = append(results, res)
		default:
			return nil, nil, errorx.InternalErrorf("transport response for operation %d must hold either a result or an error", it.Index)
		}
	}
	return results, errs, nil
}
