package cachesim

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Timing holds the cycle-cost constants that drive the bus and core state
// machines. The zero value is invalid; use DefaultTiming.
type Timing struct {
	L1CacheHitCC            uint64 `yaml:"l1_cache_hit_cc"`
	MemFetchCC              uint64 `yaml:"mem_fetch_cc"`
	BusUpdateWordCC         uint64 `yaml:"bus_update_word_cc"`
	EvictDirtyCacheBlockCC  uint64 `yaml:"evict_dirty_cache_block_cc"`
	WordSizeBits            uint64 `yaml:"word_size_bits"`
}

// DefaultTiming returns the reference timing constants.
func DefaultTiming() Timing {
	return Timing{
		L1CacheHitCC:           1,
		MemFetchCC:             100,
		BusUpdateWordCC:        2,
		EvictDirtyCacheBlockCC: 100,
		WordSizeBits:           32,
	}
}

// LoadTiming reads a YAML file overriding a subset of the default timing
// constants; fields absent from the file keep their default value.
func LoadTiming(path string) (Timing, error) {
	t := DefaultTiming()
	buf, err := os.ReadFile(path)
	if err != nil {
		return Timing{}, configErrorf(err, "reading timing config %q", path)
	}
	if err := yaml.Unmarshal(buf, &t); err != nil {
		return Timing{}, configErrorf(err, "parsing timing config %q", path)
	}
	return t, nil
}

// Geometry describes a cache's size/associativity/block-size triple and the
// derived set_count. Both set_count and block_size_bytes must be powers of
// two; associativity has no power-of-two constraint.
type Geometry struct {
	SizeBytes       uint64
	Associativity   uint64
	BlockSizeBytes  uint64
	SetCount        uint64
	OffsetBits      uint
	SetIndexBits    uint
}

// DefaultGeometry returns the reference geometry: 4096 bytes, 2-way
// associative, 32-byte blocks.
func DefaultGeometry() Geometry {
	g, err := NewGeometry(4096, 2, 32)
	if err != nil {
		// Unreachable: the defaults are a valid geometry by construction.
		panic(err)
	}
	return g
}

// NewGeometry validates and constructs a Geometry. It rejects any
// configuration where block size or set count is not a power of two, or
// where the cache size does not divide evenly into associativity-many
// blocks per set.
func NewGeometry(sizeBytes, associativity, blockSizeBytes uint64) (Geometry, error) {
	if sizeBytes == 0 || associativity == 0 || blockSizeBytes == 0 {
		return Geometry{}, configErrorf(ErrBadGeometry, "size, associativity, and block size must be non-zero")
	}
	if !isPowerOfTwo(blockSizeBytes) {
		return Geometry{}, configErrorf(ErrBadGeometry, "block size %d is not a power of two", blockSizeBytes)
	}
	bytesPerSet := associativity * blockSizeBytes
	if sizeBytes%bytesPerSet != 0 {
		return Geometry{}, configErrorf(ErrBadGeometry, "cache size %d does not divide evenly by associativity*block_size %d", sizeBytes, bytesPerSet)
	}
	setCount := sizeBytes / bytesPerSet
	if !isPowerOfTwo(setCount) {
		return Geometry{}, configErrorf(ErrBadGeometry, "derived set count %d is not a power of two", setCount)
	}

	return Geometry{
		SizeBytes:      sizeBytes,
		Associativity:  associativity,
		BlockSizeBytes: blockSizeBytes,
		SetCount:       setCount,
		OffsetBits:     bitLength(blockSizeBytes - 1),
		SetIndexBits:   bitLength(setCount - 1),
	}, nil
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// bitLength returns the number of bits needed to represent mask (0 for
// mask==0); for mask = 2^k - 1 it returns k. Used to derive offset/index
// bit widths from a power-of-two size minus one (an all-ones mask).
func bitLength(mask uint64) uint {
	var n uint
	for mask != 0 {
		n++
		mask >>= 1
	}
	return n
}
