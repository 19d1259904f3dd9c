package propdex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// prommetrics provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordInsert is called after each entity insert into a property or
	// composite index. err is nil if successful.
	RecordInsert(property string, duration time.Duration, err error)

	// RecordLookup is called after each lookup. hit reports whether an entry existed.
	RecordLookup(property string, hit bool, duration time.Duration)

	// RecordRegister is called after each property or composite registration.
	RecordRegister(property string, err error)

	// RecordLoad is called after each bulk load.
	// count is the number of records attempted, failed is the number that failed.
	RecordLoad(count, failed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordLookup(string, bool, time.Duration)  {}
func (NoopMetricsCollector) RecordRegister(string, error)              {}
func (NoopMetricsCollector) RecordLoad(int, int, time.Duration)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	LookupCount      atomic.Int64
	LookupHits       atomic.Int64
	LookupTotalNanos atomic.Int64
	RegisterCount    atomic.Int64
	RegisterErrors   atomic.Int64
	LoadCount        atomic.Int64
	LoadRecords      atomic.Int64
	LoadFailed       atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(_ string, duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(_ string, hit bool, duration time.Duration) {
	b.LookupCount.Add(1)
	b.LookupTotalNanos.Add(duration.Nanoseconds())
	if hit {
		b.LookupHits.Add(1)
	}
}

// RecordRegister implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRegister(_ string, err error) {
	b.RegisterCount.Add(1)
	if err != nil {
		b.RegisterErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(count, failed int, _ time.Duration) {
	b.LoadCount.Add(1)
	b.LoadRecords.Add(int64(count))
	b.LoadFailed.Add(int64(failed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:    b.InsertCount.Load(),
		InsertErrors:   b.InsertErrors.Load(),
		InsertAvgNanos: avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		LookupCount:    b.LookupCount.Load(),
		LookupHits:     b.LookupHits.Load(),
		LookupAvgNanos: avg(b.LookupTotalNanos.Load(), b.LookupCount.Load()),
		RegisterCount:  b.RegisterCount.Load(),
		RegisterErrors: b.RegisterErrors.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadRecords:    b.LoadRecords.Load(),
		LoadFailed:     b.LoadFailed.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount    int64
	InsertErrors   int64
	InsertAvgNanos int64
	LookupCount    int64
	LookupHits     int64
	LookupAvgNanos int64
	RegisterCount  int64
	RegisterErrors int64
	LoadCount      int64
	LoadRecords    int64
	LoadFailed     int64
}
