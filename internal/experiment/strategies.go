package experiment

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/torosent/chaosfire/chaos"
	"github.com/torosent/chaosfire/internal/config"
	"github.com/torosent/chaosfire/internal/httpclient"
	"github.com/torosent/chaosfire/internal/metrics"
	"github.com/torosent/chaosfire/internal/tracing"
)

// Strategy is a chaos strategy over buffered HTTP responses.
type Strategy = chaos.Strategy[*httpclient.Response]

// IdleCloser is implemented by *http.Client.
type IdleCloser interface {
	CloseIdleConnections()
}

// Deps are the collaborators shared by every built strategy. All fields are
// optional.
type Deps struct {
	Recorder metrics.Recorder
	Logger   *zap.Logger
	Client   IdleCloser
	// Source drives both injection decisions and latency jitter. Nil uses
	// a seeded source when Seed is non-zero, otherwise the runtime source.
	Source chaos.RandomSource
	Seed   uint64
}

func (d Deps) normalize() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Source == nil {
		if d.Seed != 0 {
			d.Source = chaos.NewSeededSource(d.Seed)
		} else {
			d.Source = chaos.DefaultSource()
		}
	}
	return d
}

// Build returns one strategy per configured injection, in order. The first
// strategy is the outermost when composed.
func Build(injections []config.InjectionConfig, deps Deps) ([]*Strategy, error) {
	deps = deps.normalize()
	out := make([]*Strategy, 0, len(injections))
	for idx, inj := range injections {
		s, err := buildOne(inj, inj.DisplayName(idx), deps)
		if err != nil {
			return nil, fmt.Errorf("injection %s: %w", inj.DisplayName(idx), err)
		}
		out = append(out, s)
	}
	return out, nil
}

func buildOne(inj config.InjectionConfig, name string, deps Deps) (*Strategy, error) {
	cond, err := newCondition(inj.When, inj.WhenBody)
	if err != nil {
		return nil, err
	}

	opts := []chaos.Option{
		chaos.WithName(name),
		chaos.InjectionRate(inj.Rate),
		chaos.WithRandomSource(deps.Source),
		chaos.BeforeInject(injectionHook(string(inj.Kind), name, deps)),
	}
	switch {
	case !inj.Enabled:
		opts = append(opts, chaos.Enabled(false))
	case cond.empty():
		opts = append(opts, chaos.Enabled(true))
	default:
		opts = append(opts, chaos.EnabledWhen(func(_ context.Context, vals chaos.Values) (bool, error) {
			return cond.match(vals), nil
		}))
	}

	switch inj.Kind {
	case config.InjectionFault:
		msg := inj.Error
		return chaos.NewFault[*httpclient.Response](func(_ context.Context, vals chaos.Values) (error, error) {
			return &InjectedFaultError{
				Strategy:     name,
				Message:      msg,
				InvocationID: vals.String(KeyInvocationID),
			}, nil
		}, opts...)

	case config.InjectionLatency:
		return chaos.NewLatency[*httpclient.Response](latencyProvider(inj.Latency, inj.MaxLatency, deps.Source), opts...)

	case config.InjectionResult:
		status, headers, body := inj.Status, inj.Headers, inj.Body
		return chaos.NewResult[*httpclient.Response](func(context.Context, chaos.Values) (*httpclient.Response, error) {
			return httpclient.SyntheticResponse(status, headers, body), nil
		}, opts...)

	case config.InjectionBehavior:
		return chaos.NewBehavior[*httpclient.Response](behaviorAction(inj.Action, name, deps), opts...)

	default:
		return nil, fmt.Errorf("unknown kind %q", inj.Kind)
	}
}

// latencyProvider returns lo when hi is unset, otherwise a uniform draw in
// [lo, hi).
func latencyProvider(lo, hi time.Duration, src chaos.RandomSource) chaos.Func[time.Duration] {
	if hi <= lo {
		return chaos.Const(lo)
	}
	width := float64(hi - lo)
	return func(context.Context, chaos.Values) (time.Duration, error) {
		return lo + time.Duration(src.Float64()*width), nil
	}
}

func behaviorAction(action config.BehaviorAction, name string, deps Deps) chaos.Hook {
	switch action {
	case config.ActionCloseIdleConnections:
		client := deps.Client
		return func(context.Context, chaos.Values) error {
			if client != nil {
				client.CloseIdleConnections()
			}
			return nil
		}
	default:
		logger := deps.Logger
		return func(_ context.Context, vals chaos.Values) error {
			logger.Info("chaos behavior",
				zap.String("strategy", name),
				zap.String("invocation_id", vals.String(KeyInvocationID)),
				zap.String("url", vals.String(KeyURL)),
			)
			return nil
		}
	}
}

// injectionHook counts, logs and traces every injection before it happens.
func injectionHook(kind, name string, deps Deps) chaos.Hook {
	recorder, logger := deps.Recorder, deps.Logger
	return func(ctx context.Context, vals chaos.Values) error {
		id := vals.String(KeyInvocationID)
		if recorder != nil {
			recorder.RecordInjection(kind, name)
		}
		logger.Debug("injecting chaos",
			zap.String("kind", kind),
			zap.String("strategy", name),
			zap.String("invocation_id", id),
		)
		tracing.RecordInjection(ctx, kind, name, attribute.String("chaos.invocation_id", id))
		return nil
	}
}
