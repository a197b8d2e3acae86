package memtable

import (
	"fmt"
	"strconv"
)

// Configuration keys understood by ParseFactoryOptions. They come from table
// configuration, not from the process environment.
const (
	// ShardsOption sets the number of shards.
	ShardsOption = "shards"
	// SerializeWritesOption selects the serialized write strategy.
	SerializeWritesOption = "serialize_writes"
)

// Factory produces memtables from parsed configuration. The surrounding
// engine keeps one factory per table and creates a fresh memtable from it
// whenever the previous one is handed off for flushing.
type Factory struct {
	shardCount      int
	serializeWrites bool
	serializeSet    bool
}

// ParseFactoryOptions resolves string configuration into a Factory.
// Unparsable or non-positive shard counts fail here with
// *ErrInvalidShardCount, before any shard is constructed.
func ParseFactoryOptions(config map[string]string) (*Factory, error) {
	f := &Factory{}

	if raw, ok := config[ShardsOption]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &ErrInvalidShardCount{Value: raw, cause: err}
		}
		if n <= 0 {
			return nil, &ErrInvalidShardCount{Value: raw}
		}
		f.shardCount = n
	}

	if raw, ok := config[SerializeWritesOption]; ok {
		serialize, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s option: %w", SerializeWritesOption, err)
		}
		f.serializeWrites = serialize
		f.serializeSet = true
	}

	return f, nil
}

// NewFactory creates a factory from already-validated settings. A
// non-positive shardCount defers to the parallelism-derived default.
func NewFactory(shardCount int, serializeWrites bool) *Factory {
	return &Factory{
		shardCount:      shardCount,
		serializeWrites: serializeWrites,
		serializeSet:    true,
	}
}

// New creates a memtable with the factory's configuration. Additional
// options are applied first; settings the factory was configured with
// override them, while unconfigured settings leave the caller's options in
// effect.
func (f *Factory) New(optFns ...Option) *Memtable {
	fns := make([]Option, 0, len(optFns)+2)
	fns = append(fns, optFns...)
	if f.shardCount > 0 {
		fns = append(fns, WithShardCount(f.shardCount))
	}
	if f.serializeSet {
		fns = append(fns, WithSerializedWrites(f.serializeWrites))
	}
	return New(fns...)
}

// ShardCount returns the configured shard count, 0 when defaulted.
func (f *Factory) ShardCount() int { return f.shardCount }

// SerializeWrites reports whether the serialized strategy was selected.
func (f *Factory) SerializeWrites() bool { return f.serializeWrites }
