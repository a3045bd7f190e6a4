package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a snapshot of Go runtime resource usage
type RuntimeStats struct {
	Goroutines    int64
	HeapAlloc     int64
	HeapSys       int64
	GCCount       int64
	ProcessUptime time.Duration
}

// ReadRuntimeStats samples the Go runtime
func ReadRuntimeStats(startTime time.Time) RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		Goroutines:    int64(runtime.NumGoroutine()),
		HeapAlloc:     int64(memStats.HeapAlloc),
		HeapSys:       int64(memStats.HeapSys),
		GCCount:       int64(memStats.NumGC),
		ProcessUptime: time.Since(startTime),
	}
}

// RegisterRuntimeMetrics registers observable instruments that sample the
// runtime on every collection. Unregister the returned registration on
// shutdown.
func RegisterRuntimeMetrics(meter metric.Meter, startTime time.Time) (metric.Registration, error) {
	goroutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64ObservableGauge(
		"system_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	heapSys, err := meter.Int64ObservableGauge(
		"system_heap_sys_bytes",
		metric.WithDescription("Heap memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64ObservableCounter(
		"system_gc_count_total",
		metric.WithDescription("Total number of completed garbage collections"),
	)
	if err != nil {
		return nil, err
	}

	uptime, err := meter.Float64ObservableGauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := ReadRuntimeStats(startTime)
		o.ObserveInt64(goroutines, stats.Goroutines)
		o.ObserveInt64(heapAlloc, stats.HeapAlloc)
		o.ObserveInt64(heapSys, stats.HeapSys)
		o.ObserveInt64(gcCount, stats.GCCount)
		o.ObserveFloat64(uptime, stats.ProcessUptime.Seconds())
		return nil
	}, goroutines, heapAlloc, heapSys, gcCount, uptime)
}
