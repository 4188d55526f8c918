package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/chaosfire/internal/config"
)

func TestParseFlagsDefaults(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TargetURL != "" {
		t.Errorf("TargetURL = %q, want empty", cfg.TargetURL)
	}
	if cfg.Method != "GET" {
		t.Errorf("Method = %q, want GET", cfg.Method)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
	if cfg.Rate != 0 {
		t.Errorf("Rate = %d, want 0", cfg.Rate)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("Log = %s/%s, want info/console", cfg.LogLevel, cfg.LogFormat)
	}
	if len(cfg.Injections) != 0 {
		t.Errorf("Injections len = %d, want 0", len(cfg.Injections))
	}
	if cfg.JSONOutput {
		t.Errorf("JSONOutput = true, want false")
	}
	if len(cfg.Headers) != 0 {
		t.Errorf("Headers len = %d, want 0", len(cfg.Headers))
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"target": "https://api.example.com",
		"method": "PUT",
		"headers": {"Content-Type": "application/json"},
		"body": "{\"foo\":\"bar\"}",
		"concurrency": 10,
		"rate": 100,
		"duration": "2m",
		"total": 500,
		"timeout": "45s",
		"logLevel": "debug",
		"metrics_addr": ":9090",
		"jsonOutput": true
	}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path, "--method", "PATCH", "--header", "Authorization=Bearer token"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TargetURL != "https://api.example.com" {
		t.Errorf("TargetURL = %q, want https://api.example.com", cfg.TargetURL)
	}
	if cfg.Method != "PATCH" {
		t.Errorf("Method = %q, want PATCH", cfg.Method)
	}
	if cfg.Headers["Content-Type"] != "application/json" {
		t.Errorf("Headers[Content-Type] = %q, want application/json", cfg.Headers["Content-Type"])
	}
	if cfg.Headers["Authorization"] != "Bearer token" {
		t.Errorf("Headers[Authorization] = %q, want Bearer token", cfg.Headers["Authorization"])
	}
	if cfg.Body != `{"foo":"bar"}` {
		t.Errorf("Body = %q, want {\"foo\":\"bar\"}", cfg.Body)
	}
	if cfg.Concurrency != 10 {
		t.Errorf("Concurrency = %d, want 10", cfg.Concurrency)
	}
	if cfg.Rate != 100 {
		t.Errorf("Rate = %d, want 100", cfg.Rate)
	}
	if cfg.Duration != 2*time.Minute {
		t.Errorf("Duration = %s, want 2m", cfg.Duration)
	}
	if cfg.Total != 500 {
		t.Errorf("Total = %d, want 500", cfg.Total)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %s, want 45s", cfg.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %q, want :9090", cfg.MetricsAddr)
	}
	if !cfg.JSONOutput {
		t.Errorf("JSONOutput = false, want true")
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"target: https://service.example.com",
		"method: POST",
		"headers:",
		"  X-Env: staging",
		"concurrency: 4",
		"rate: 20",
		"duration: 30s",
		"timeout: 15s",
		"total: 40",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TargetURL != "https://service.example.com" {
		t.Errorf("TargetURL = %q, want https://service.example.com", cfg.TargetURL)
	}
	if cfg.Method != "POST" {
		t.Errorf("Method = %q, want POST", cfg.Method)
	}
	if cfg.Headers["X-Env"] != "staging" {
		t.Errorf("Headers[X-Env] = %q, want staging", cfg.Headers["X-Env"])
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if cfg.Rate != 20 {
		t.Errorf("Rate = %d, want 20", cfg.Rate)
	}
	if cfg.Duration != 30*time.Second {
		t.Errorf("Duration = %s, want 30s", cfg.Duration)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %s, want 15s", cfg.Timeout)
	}
	if cfg.Total != 40 {
		t.Errorf("Total = %d, want 40", cfg.Total)
	}
}

func TestFlagBodyOverridesConfigBodyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"bodyFile":"payload.json"}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path, "--body", "inline"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Body != "inline" {
		t.Errorf("Body = %q, want inline", cfg.Body)
	}
	if cfg.BodyFile != "" {
		t.Errorf("BodyFile = %q, want empty", cfg.BodyFile)
	}
}

func TestFlagBodyFileOverridesConfigBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"body":"inline-config"}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path, "--body-file", "payload.txt"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BodyFile != "payload.txt" {
		t.Errorf("BodyFile = %q, want payload.txt", cfg.BodyFile)
	}
	if cfg.Body != "" {
		t.Errorf("Body = %q, want empty", cfg.Body)
	}
}

func TestLoadInjectionsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	content := strings.Join([]string{
		"target: https://service.example.com",
		"injections:",
		"  - kind: fault",
		"    name: checkout-down",
		"    rate: 0.1",
		"    error: upstream unavailable",
		"    when:",
		"      path: /checkout",
		"  - kind: latency",
		"    rate: 0.5",
		"    latency: 100ms",
		"    max_latency: 300ms",
		"  - kind: result",
		"    enabled: false",
		"    rate: 1",
		"    status: 503",
		"    body: '{\"error\":\"busy\"}'",
		"    headers:",
		"      retry-after: \"1\"",
		"  - kind: behavior",
		"    rate: 0.01",
		"    action: close_idle_connections",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "--latency-rate", "0.2"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(cfg.Injections) != 5 {
		t.Fatalf("Injections len = %d, want 5", len(cfg.Injections))
	}

	fault := cfg.Injections[0]
	if fault.Kind != config.InjectionFault || fault.Name != "checkout-down" || fault.Error != "upstream unavailable" {
		t.Errorf("fault = %+v", fault)
	}
	if fault.When["path"] != "/checkout" {
		t.Errorf("fault.When[path] = %q, want /checkout", fault.When["path"])
	}
	latency := cfg.Injections[1]
	if latency.Latency != 100*time.Millisecond || latency.MaxLatency != 300*time.Millisecond {
		t.Errorf("latency = %v..%v, want 100ms..300ms", latency.Latency, latency.MaxLatency)
	}
	if got := latency.DisplayName(1); got != "latency-1" {
		t.Errorf("DisplayName = %q, want latency-1", got)
	}
	result := cfg.Injections[2]
	if result.Enabled {
		t.Errorf("result.Enabled = true, want false")
	}
	if result.Status != 503 || result.Body != `{"error":"busy"}` || result.Headers["Retry-After"] != "1" {
		t.Errorf("result = %+v", result)
	}
	if cfg.Injections[3].Action != config.ActionCloseIdleConnections {
		t.Errorf("behavior action = %q", cfg.Injections[3].Action)
	}
	if cli := cfg.Injections[4]; cli.Name != "cli-latency" || cli.Rate != 0.2 {
		t.Errorf("flag injection = %+v", cli)
	}
}

func TestConfigValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		have config.Config
		want []string
	}{
		{
			name: "missing target",
			have: config.Config{},
			want: []string{"target"},
		},
		{
			name: "negative values",
			have: config.Config{
				TargetURL:   "https://example.com",
				Concurrency: -1,
				Rate:        -5,
				Total:       -10,
				Timeout:     -1,
				Duration:    -1,
			},
			want: []string{"concurrency", "rate", "total", "timeout", "duration"},
		},
		{
			name: "body conflict",
			have: config.Config{
				TargetURL: "https://example.com",
				Body:      "inline",
				BodyFile:  "payload.json",
			},
			want: []string{"body"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.have.Validate()
			if err == nil {
				t.Fatalf("Validate() error = nil, want error")
			}
			for _, want := range tc.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error %q missing %q", err.Error(), want)
				}
			}
		})
	}
}

func TestInjectionValidation(t *testing.T) {
	base := func(inj ...config.InjectionConfig) config.Config {
		return config.Config{TargetURL: "https://example.com", Concurrency: 1, Injections: inj}
	}
	cases := []struct {
		name string
		have config.Config
		want []string
	}{
		{
			name: "rate above one",
			have: base(config.InjectionConfig{Kind: config.InjectionFault, Error: "x", Rate: 1.5}),
			want: []string{"injections[0]", "rate", "greater than 1"},
		},
		{
			name: "negative rate",
			have: base(config.InjectionConfig{Kind: config.InjectionFault, Error: "x", Rate: -0.1}),
			want: []string{"negative number"},
		},
		{
			name: "fault without error",
			have: base(config.InjectionConfig{Kind: config.InjectionFault, Rate: 0.5}),
			want: []string{"fault requires error"},
		},
		{
			name: "latency range inverted",
			have: base(config.InjectionConfig{Kind: config.InjectionLatency, Rate: 0.5, Latency: time.Second, MaxLatency: time.Millisecond}),
			want: []string{"max_latency"},
		},
		{
			name: "result status",
			have: base(config.InjectionConfig{Kind: config.InjectionResult, Rate: 0.5, Status: 42}),
			want: []string{"status"},
		},
		{
			name: "behavior action",
			have: base(config.InjectionConfig{Kind: config.InjectionBehavior, Rate: 0.5, Action: "reboot"}),
			want: []string{"action"},
		},
		{
			name: "missing kind",
			have: base(config.InjectionConfig{Rate: 0.5}),
			want: []string{"kind is required"},
		},
		{
			name: "duplicate names",
			have: base(
				config.InjectionConfig{Kind: config.InjectionFault, Name: "x", Error: "e", Rate: 0.1},
				config.InjectionConfig{Kind: config.InjectionFault, Name: "x", Error: "e", Rate: 0.1},
			),
			want: []string{"already used"},
		},
		{
			name: "tracing sample rate",
			have: config.Config{TargetURL: "https://example.com", Concurrency: 1, Tracing: config.TracingConfig{SampleRate: 2}},
			want: []string{"sample_rate"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.have.Validate()
			if err == nil {
				t.Fatalf("Validate() error = nil, want error")
			}
			var verr config.ValidationError
			if !errors.As(err, &verr) || len(verr.Issues()) == 0 {
				t.Fatalf("Validate() error = %T, want ValidationError with issues", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error %q missing %q", err.Error(), want)
				}
			}
		})
	}
}

func TestValidConfigPasses(t *testing.T) {
	cfg := config.Config{
		TargetURL:   "https://example.com",
		Concurrency: 2,
		LogFormat:   "json",
		Injections: []config.InjectionConfig{
			{Kind: config.InjectionLatency, Rate: 0, Latency: 0},
			{Kind: config.InjectionBehavior, Rate: 1, Action: config.ActionLog},
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
