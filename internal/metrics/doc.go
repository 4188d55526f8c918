// Package metrics aggregates request outcomes and chaos injections.
//
// [Collector] keeps an HDR histogram of latencies, success and failure
// counts, error types, status buckets split by upstream versus injected
// outcomes, and injection counts by kind and strategy:
//
//	collector := metrics.NewCollector()
//	collector.RecordRequest(latency, err, &metrics.RequestMetadata{StatusCode: "503", Injected: true})
//	collector.RecordInjection("result", "busy")
//	stats := collector.Stats(elapsed)
//
// [Exporter] mirrors the same events as Prometheus series, and [Tee] feeds
// both from one [Recorder].
package metrics
