package memtable

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordWrite is called after each write operation.
	// duration is the total time taken, err is nil if successful.
	RecordWrite(duration time.Duration, err error)

	// RecordRead is called after each point read. found reports whether a
	// partition was present for the key.
	RecordRead(duration time.Duration, found bool)

	// RecordRangeScan is called after a range iterator is built.
	RecordRangeScan(duration time.Duration, err error)

	// RecordFlushSnapshot is called after a flush set is built. partitions
	// is the number of partitions it covers.
	RecordFlushSnapshot(partitions int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordWrite(time.Duration, error)                {}
func (NoopMetricsCollector) RecordRead(time.Duration, bool)                  {}
func (NoopMetricsCollector) RecordRangeScan(time.Duration, error)            {}
func (NoopMetricsCollector) RecordFlushSnapshot(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	WriteCount         atomic.Int64
	WriteErrors        atomic.Int64
	WriteTotalNanos    atomic.Int64
	ReadCount          atomic.Int64
	ReadMisses         atomic.Int64
	RangeScanCount     atomic.Int64
	RangeScanErrors    atomic.Int64
	FlushSnapshotCount atomic.Int64
	FlushedPartitions  atomic.Int64
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(_ time.Duration, found bool) {
	b.ReadCount.Add(1)
	if !found {
		b.ReadMisses.Add(1)
	}
}

// RecordRangeScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRangeScan(_ time.Duration, err error) {
	b.RangeScanCount.Add(1)
	if err != nil {
		b.RangeScanErrors.Add(1)
	}
}

// RecordFlushSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlushSnapshot(partitions int64, _ time.Duration, err error) {
	b.FlushSnapshotCount.Add(1)
	if err == nil {
		b.FlushedPartitions.Add(partitions)
	}
}
