package gridpls

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordFieldSwitch is called after paged storage maps a different field.
	RecordFieldSwitch(duration time.Duration)

	// RecordRecompute is called after each recompute pass.
	RecordRecompute(duration time.Duration, err error)

	// RecordPartition is called after each cross-validation plan build.
	// folds is zero if the build failed.
	RecordPartition(folds int, duration time.Duration, err error)

	// RecordArchive is called after each archive save or load.
	RecordArchive(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFieldSwitch(time.Duration)           {}
func (NoopMetricsCollector) RecordRecompute(time.Duration, error)      {}
func (NoopMetricsCollector) RecordPartition(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordArchive(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	FieldSwitches       atomic.Int64
	FieldSwitchNanos    atomic.Int64
	RecomputeCount      atomic.Int64
	RecomputeErrors     atomic.Int64
	RecomputeTotalNanos atomic.Int64
	PartitionCount      atomic.Int64
	PartitionErrors     atomic.Int64
	PartitionFolds      atomic.Int64
	ArchiveCount        atomic.Int64
	ArchiveErrors       atomic.Int64
	ArchiveBytes        atomic.Int64
}

// RecordFieldSwitch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFieldSwitch(duration time.Duration) {
	b.FieldSwitches.Add(1)
	b.FieldSwitchNanos.Add(duration.Nanoseconds())
}

// RecordRecompute implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecompute(duration time.Duration, err error) {
	b.RecomputeCount.Add(1)
	b.RecomputeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RecomputeErrors.Add(1)
	}
}

// RecordPartition implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartition(folds int, _ time.Duration, err error) {
	b.PartitionCount.Add(1)
	b.PartitionFolds.Add(int64(folds))
	if err != nil {
		b.PartitionErrors.Add(1)
	}
}

// RecordArchive implements MetricsCollector.
func (b *BasicMetricsCollector) RecordArchive(bytes int64, _ time.Duration, err error) {
	b.ArchiveCount.Add(1)
	b.ArchiveBytes.Add(bytes)
	if err != nil {
		b.ArchiveErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FieldSwitches:     b.FieldSwitches.Load(),
		RecomputeCount:    b.RecomputeCount.Load(),
		RecomputeErrors:   b.RecomputeErrors.Load(),
		RecomputeAvgNanos: b.getAvgRecomputeNanos(),
		PartitionCount:    b.PartitionCount.Load(),
		PartitionErrors:   b.PartitionErrors.Load(),
		PartitionFolds:    b.PartitionFolds.Load(),
		ArchiveCount:      b.ArchiveCount.Load(),
		ArchiveErrors:     b.ArchiveErrors.Load(),
		ArchiveBytes:      b.ArchiveBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRecomputeNanos() int64 {
	count := b.RecomputeCount.Load()
	if count == 0 {
		return 0
	}
	return b.RecomputeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FieldSwitches     int64
	RecomputeCount    int64
	RecomputeErrors   int64
	RecomputeAvgNanos int64
	PartitionCount    int64
	PartitionErrors   int64
	PartitionFolds    int64
	ArchiveCount      int64
	ArchiveErrors     int64
	ArchiveBytes      int64
}
