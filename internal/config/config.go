package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/torosent/chaosfire/chaos"
)

type Config struct {
	TargetURL   string            `mapstructure:"target"`
	Method      string            `mapstructure:"method"`
	Headers     map[string]string `mapstructure:"headers"`
	Body        string            `mapstructure:"body"`
	BodyFile    string            `mapstructure:"body_file"`
	Concurrency int               `mapstructure:"concurrency"`
	Rate        int               `mapstructure:"rate"`
	Duration    time.Duration     `mapstructure:"duration"`
	Total       int               `mapstructure:"total"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	JSONOutput  bool              `mapstructure:"json_output"`
	LogLevel    string            `mapstructure:"log_level"`
	LogFormat   string            `mapstructure:"log_format"`
	LogErrors   bool              `mapstructure:"log_errors"`
	MetricsAddr string            `mapstructure:"metrics_addr"`
	Seed        uint64            `mapstructure:"seed"`
	ConfigFile  string            `mapstructure:"-"`
	Arrival     ArrivalConfig     `mapstructure:"arrival"`
	Thresholds  []string          `mapstructure:"thresholds"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	Injections  []InjectionConfig `mapstructure:"injections"`
}

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type ArrivalConfig struct {
	Model ArrivalModel `mapstructure:"model"`
}

// TracingConfig configures OTLP span export. An empty endpoint falls back to
// OTEL_EXPORTER_OTLP_ENDPOINT.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Propagate   *bool   `mapstructure:"propagate"`
}

// Enabled reports whether any tracing setting was supplied.
func (t TracingConfig) Enabled() bool {
	return t.Endpoint != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate defaults to true when tracing is on.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type InjectionKind string

const (
	InjectionFault    InjectionKind = "fault"
	InjectionLatency  InjectionKind = "latency"
	InjectionResult   InjectionKind = "result"
	InjectionBehavior InjectionKind = "behavior"
)

type BehaviorAction string

const (
	ActionLog                  BehaviorAction = "log"
	ActionCloseIdleConnections BehaviorAction = "close_idle_connections"
)

// InjectionConfig describes one chaos strategy applied around every request.
type InjectionConfig struct {
	Kind       InjectionKind     `mapstructure:"kind"`
	Name       string            `mapstructure:"name"`
	Enabled    bool              `mapstructure:"enabled"`
	Rate       float64           `mapstructure:"rate"`
	When       map[string]string `mapstructure:"when"`
	WhenBody   string            `mapstructure:"when_body"`   // gjson path that must exist in the request body
	Error      string            `mapstructure:"error"`       // fault
	Latency    time.Duration     `mapstructure:"latency"`     // latency
	MaxLatency time.Duration     `mapstructure:"max_latency"` // latency, uniform in [latency, max_latency]
	Status     int               `mapstructure:"status"`      // result
	Body       string            `mapstructure:"body"`        // result
	Headers    map[string]string `mapstructure:"headers"`     // result
	Action     BehaviorAction    `mapstructure:"action"`      // behavior
}

// DisplayName is the configured name or the kind with its position.
func (i InjectionConfig) DisplayName(idx int) string {
	if strings.TrimSpace(i.Name) != "" {
		return i.Name
	}
	return fmt.Sprintf("%s-%d", i.Kind, idx)
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	}

	if c.Rate > 1000 {
		fmt.Fprintf(os.Stderr, "WARNING: High rate limit configured (%d RPS). Ensure you have authorization to test the target system.\n", c.Rate)
	}
	if c.Concurrency > 500 {
		fmt.Fprintf(os.Stderr, "WARNING: High concurrency configured (%d workers). Ensure you have authorization to test the target system.\n", c.Concurrency)
	}

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Total < 0 {
		issues = append(issues, "total must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if strings.TrimSpace(c.Body) != "" && strings.TrimSpace(c.BodyFile) != "" {
		issues = append(issues, "body and bodyFile are mutually exclusive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		issues = append(issues, fmt.Sprintf("log_format must be console or json, got %q", c.LogFormat))
	}

	issues = append(issues, validateArrivalConfig(c.Arrival)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)
	issues = append(issues, validateInjections(c.Injections)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateArrivalConfig(arr ArrivalConfig) []string {
	switch arr.Model {
	case "", ArrivalModelUniform, ArrivalModelPoisson:
		return nil
	default:
		return []string{fmt.Sprintf("arrival model must be uniform or poisson, got %q", arr.Model)}
	}
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol must be grpc or http, got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}

func validateInjections(injections []InjectionConfig) []string {
	var issues []string
	names := make(map[string]int, len(injections))
	for idx, inj := range injections {
		prefix := fmt.Sprintf("injections[%d]", idx)
		name := inj.DisplayName(idx)
		if prev, ok := names[name]; ok {
			issues = append(issues, fmt.Sprintf("%s: name %q already used by injections[%d]", prefix, name, prev))
		} else {
			names[name] = idx
		}
		if err := chaos.ValidateRate(inj.Rate); err != nil {
			issues = append(issues, fmt.Sprintf("%s: rate: %v", prefix, err))
		}
		for key := range inj.When {
			if strings.TrimSpace(key) == "" {
				issues = append(issues, fmt.Sprintf("%s: when keys cannot be empty", prefix))
				break
			}
		}
		switch inj.Kind {
		case InjectionFault:
			if strings.TrimSpace(inj.Error) == "" {
				issues = append(issues, fmt.Sprintf("%s: fault requires error", prefix))
			}
		case InjectionLatency:
			if inj.Latency < 0 {
				issues = append(issues, fmt.Sprintf("%s: latency must be >= 0", prefix))
			}
			if inj.MaxLatency != 0 && inj.MaxLatency < inj.Latency {
				issues = append(issues, fmt.Sprintf("%s: max_latency must be >= latency", prefix))
			}
		case InjectionResult:
			if inj.Status < 100 || inj.Status > 599 {
				issues = append(issues, fmt.Sprintf("%s: result status must be between 100 and 599, got %d", prefix, inj.Status))
			}
		case InjectionBehavior:
			switch inj.Action {
			case ActionLog, ActionCloseIdleConnections:
			default:
				issues = append(issues, fmt.Sprintf("%s: behavior action must be log or close_idle_connections, got %q", prefix, inj.Action))
			}
		case "":
			issues = append(issues, fmt.Sprintf("%s: kind is required", prefix))
		default:
			issues = append(issues, fmt.Sprintf("%s: unknown kind %q", prefix, inj.Kind))
		}
	}
	return issues
}
