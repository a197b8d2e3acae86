package memtable

import (
	"log/slog"

	"github.com/hupe1980/memtable/engine"
)

type options struct {
	shardCount       int
	boundaries       *engine.Boundaries
	serializeWrites  bool
	factory          engine.PartitionFactory
	allocator        engine.Allocator
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures memtable construction.
//
// All options are construction-time only: shard count, boundaries and the
// write strategy are immutable for the memtable's lifetime.
type Option func(*options)

// WithShardCount configures the number of shards the keyspace is split into.
//
// Each shard owns an independent ordered map and its own aggregate counters,
// so writes to different shards never contend. Defaults to the available
// parallelism when unset or non-positive.
//
// Ignored when WithBoundaries supplies explicit split points.
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

// WithBoundaries fixes the token-space split points instead of dividing the
// token space evenly. The boundary computation is the surrounding engine's
// business; the memtable only requires that the result is deterministic for
// its lifetime.
func WithBoundaries(b engine.Boundaries) Option {
	return func(o *options) {
		o.boundaries = &b
	}
}

// WithSerializedWrites selects the serialized write strategy: one exclusive
// lock per shard, totally ordering writes within a shard. Use it when the
// partition merge is not safely concurrent for a workload; the default
// concurrent strategy maximizes throughput. Reads are unaffected either way.
func WithSerializedWrites(serialize bool) Option {
	return func(o *options) {
		o.serializeWrites = serialize
	}
}

// WithPartitionFactory configures the partition implementation created on
// first write to a key. Defaults to the reference row partition.
func WithPartitionFactory(factory engine.PartitionFactory) Option {
	return func(o *options) {
		if factory != nil {
			o.factory = factory
		}
	}
}

// WithAllocator configures the memtable-lifetime allocator. Defaults to a
// fresh arena that is released when the memtable is closed.
func WithAllocator(alloc engine.Allocator) Option {
	return func(o *options) {
		if alloc != nil {
			o.allocator = alloc
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
