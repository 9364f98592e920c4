package cachesim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sliceTrace is a fixed, in-memory InstructionSource used by core/driver
// tests in place of a file-backed TraceReader.
type sliceTrace struct {
	instrs []Instruction
	pos    int
}

func newSliceTrace(instrs ...Instruction) *sliceTrace {
	return &sliceTrace{instrs: instrs}
}

func (s *sliceTrace) Next() (Instruction, bool) {
	if s.pos >= len(s.instrs) {
		return Instruction{}, false
	}
	instr := s.instrs[s.pos]
	s.pos++
	return instr, true
}

func load(addr uint64) Instruction  { return Instruction{Kind: InstrLoad, Addr: Address(addr)} }
func store(addr uint64) Instruction { return Instruction{Kind: InstrStore, Addr: Address(addr)} }
func other(cycles uint64) Instruction {
	return Instruction{Kind: InstrOther, Cycles: cycles}
}

func TestCore_OtherInstructionBurnsExactCycles(t *testing.T) {
	g := testGeometry(t)
	cache := newCache(g)
	protocol := NewMESIProtocol()
	bus := NewBus(DefaultTiming(), g, []*Cache{cache}, NopLogger{})
	trace := newSliceTrace(other(5))
	core := NewCore(0, cache, protocol, bus, trace, DefaultTiming(), NopLogger{})

	ticks := 0
	for !core.Done() {
		core.Step()
		bus.Tick()
		ticks++
		if ticks > 100 {
			t.Fatal("core never finished the OTHER instruction")
		}
	}

	require.Equal(t, uint64(5), core.Stats().ComputeCycles)
	require.Equal(t, uint64(0), core.Stats().IdleCycles)
}

func TestCore_LoadMissThenHit(t *testing.T) {
	g := testGeometry(t)
	cache := newCache(g)
	protocol := NewMESIProtocol()
	bus := NewBus(DefaultTiming(), g, []*Cache{cache}, NopLogger{})
	trace := newSliceTrace(load(0x00), load(0x00))
	core := NewCore(0, cache, protocol, bus, trace, DefaultTiming(), NopLogger{})

	for i := 0; i < 200 && !core.Done(); i++ {
		core.Step()
		bus.Tick()
	}

	require.True(t, core.Done())
	require.Equal(t, uint64(1), core.Stats().CacheMisses)
	require.Equal(t, uint64(1), core.Stats().CacheHits)
	require.Equal(t, uint64(2), core.Stats().LoadInstrs)
	require.Equal(t, Exclusive, cache.StateOf(Address(0x00)))
}

// TestCore_LRUEviction_WithoutDirtyWriteback verifies that three distinct
// reads into a 2-way set evict the first without a dirty penalty. With
// block_size=16/associativity=2/size=64, block numbers are addr>>4 mod 2
// sets; 0x00, 0x20, 0x40 (block numbers 0, 2, 4) all land in set 0.
func TestCore_LRUEviction_WithoutDirtyWriteback(t *testing.T) {
	g := testGeometry(t) // associativity 2
	cache := newCache(g)
	protocol := NewMESIProtocol()
	bus := NewBus(DefaultTiming(), g, []*Cache{cache}, NopLogger{})
	trace := newSliceTrace(load(0x00), load(0x20), load(0x40))
	core := NewCore(0, cache, protocol, bus, trace, DefaultTiming(), NopLogger{})

	for i := 0; i < 500 && !core.Done(); i++ {
		core.Step()
		bus.Tick()
	}

	require.True(t, core.Done())
	require.Equal(t, uint64(3), core.Stats().CacheMisses)
	require.Equal(t, uint64(0), core.Stats().CacheHits)
}
