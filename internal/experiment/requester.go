package experiment

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/chaosfire/chaos"
	"github.com/torosent/chaosfire/internal/httpclient"
	"github.com/torosent/chaosfire/internal/metrics"
	"github.com/torosent/chaosfire/internal/runner"
	"github.com/torosent/chaosfire/internal/tracing"
)

// Requester sends one HTTP request per Do through the composed chaos
// strategies and records the outcome.
type Requester struct {
	client   httpclient.Doer
	builder  *httpclient.RequestBuilder
	pipeline *chaos.Pipeline[*httpclient.Response]
	recorder metrics.Recorder
	tracing  *tracing.Provider
	newID    func() string
}

var _ runner.Requester = (*Requester)(nil)

// RequesterOption customizes a Requester.
type RequesterOption func(*Requester)

// WithRecorder sets where outcomes are recorded.
func WithRecorder(rec metrics.Recorder) RequesterOption {
	return func(r *Requester) { r.recorder = rec }
}

// WithTracing enables request spans and, if configured, header propagation.
func WithTracing(p *tracing.Provider) RequesterOption {
	return func(r *Requester) { r.tracing = p }
}

// WithIDGenerator replaces the ULID invocation id source.
func WithIDGenerator(fn func() string) RequesterOption {
	return func(r *Requester) { r.newID = fn }
}

// NewRequester composes strategies outer first around requests built by
// builder.
func NewRequester(client httpclient.Doer, builder *httpclient.RequestBuilder, strategies []*Strategy, opts ...RequesterOption) (*Requester, error) {
	if client == nil {
		return nil, errors.New("http client is required")
	}
	if builder == nil {
		return nil, errors.New("request builder is required")
	}
	policies := make([]chaos.Policy[*httpclient.Response], 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			policies = append(policies, s)
		}
	}
	r := &Requester{
		client:   client,
		builder:  builder,
		pipeline: chaos.Wrap(nil, policies...),
		newID:    func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Do executes one request. HTTP status >= 400, injected faults and transport
// errors are all returned as errors.
func (r *Requester) Do(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	vals, err := r.values()
	if err != nil {
		r.record(time.Since(start), nil, err)
		return err
	}

	ctx, span := tracing.StartRequestSpan(ctx, r.tracer(), r.builder.Method(), vals.String(KeyURL))
	span.SetAttributes(attribute.String("chaos.invocation_id", vals.String(KeyInvocationID)))

	resp, err := r.pipeline.Execute(ctx, vals, r.fetch)
	if err == nil {
		err = resp.CheckStatus()
	}
	r.record(time.Since(start), resp, err)

	var attrs []attribute.KeyValue
	if resp != nil {
		attrs = append(attrs, attribute.Int("http.response.status_code", resp.StatusCode))
	}
	tracing.EndSpan(span, err, attrs...)
	return err
}

func (r *Requester) fetch(ctx context.Context, _ chaos.Values) (*httpclient.Response, error) {
	req, err := r.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	if r.tracing.ShouldPropagate() {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}
	return httpclient.Fetch(r.client, req)
}

func (r *Requester) values() (chaos.Values, error) {
	body, err := r.builder.Body()
	if err != nil {
		return nil, err
	}
	u := r.builder.URL()
	return chaos.Values{
		KeyInvocationID: r.newID(),
		KeyMethod:       r.builder.Method(),
		KeyURL:          u.String(),
		KeyHost:         u.Host,
		KeyPath:         u.Path,
		KeyBody:         body,
	}, nil
}

func (r *Requester) tracer() trace.Tracer {
	return r.tracing.Tracer()
}

func (r *Requester) record(latency time.Duration, resp *httpclient.Response, err error) {
	if r.recorder == nil {
		return
	}
	r.recorder.RecordRequest(latency, err, requestMeta(resp, err))
}
