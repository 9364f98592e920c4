package cachesim

// CoreState is the core's instruction-level state machine.
type CoreState int

const (
	Ready CoreState = iota
	ExecuteNonMem
	AwaitBusLoad
	AwaitBusStore
	ExecuteLoad
	ExecuteStore
	Done
)

func (s CoreState) String() string {
	switch s {
	case Ready:
		return "READY"
	case ExecuteNonMem:
		return "EXECUTE_NON_MEM"
	case AwaitBusLoad:
		return "AWAIT_BUS_LOAD"
	case AwaitBusStore:
		return "AWAIT_BUS_STORE"
	case ExecuteLoad:
		return "EXECUTE_LOAD"
	case ExecuteStore:
		return "EXECUTE_STORE"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// CoreStats are the counters a core maintains across a run.
type CoreStats struct {
	LoadInstrs    uint64
	StoreInstrs   uint64
	CacheHits     uint64
	CacheMisses   uint64
	ComputeCycles uint64
	IdleCycles    uint64
}

// ExecutionCycles is compute + idle cycles.
func (s CoreStats) ExecutionCycles() uint64 {
	return s.ComputeCycles + s.IdleCycles
}

// Core drives one processor's instruction stream against its private
// cache, via the shared Protocol and Bus. It owns its Cache and its trace
// exclusively; the bus is the only other component permitted to mutate
// its cache, and only during the bus's own tick.
//
// Each call to Step performs exactly one row of the core's state table —
// including the fetch-and-transition out of READY, so pulling the next
// instruction and stepping the core are always a single call, never two
// separate driver actions on the same tick.
type Core struct {
	id       int
	cache    *Cache
	protocol Protocol
	bus      *Bus
	trace    InstructionSource
	timing   Timing
	logger   Logger

	state     CoreState
	remaining int // cycles left in EXECUTE_NON_MEM/EXECUTE_LOAD/EXECUTE_STORE
	stats     CoreStats
}

// NewCore constructs a core wired to its own cache, the shared protocol
// and bus, and its instruction trace.
func NewCore(id int, cache *Cache, protocol Protocol, bus *Bus, trace InstructionSource, timing Timing, logger Logger) *Core {
	return &Core{
		id:       id,
		cache:    cache,
		protocol: protocol,
		bus:      bus,
		trace:    trace,
		timing:   timing,
		logger:   logger,
		state:    Ready,
	}
}

func (c *Core) ID() int { return c.id }

func (c *Core) Done() bool { return c.state == Done }

func (c *Core) Stats() CoreStats { return c.stats }

// Step advances the core by one global tick.
func (c *Core) Step() {
	switch c.state {
	case Done:
		return

	case Ready:
		instr, ok := c.trace.Next()
		if !ok {
			c.state = Done
			return
		}
		c.dispatch(instr)

	case ExecuteNonMem:
		c.stats.ComputeCycles++
		c.remaining--
		if c.remaining <= 0 {
			c.state = Ready
		}

	case AwaitBusLoad:
		resp, ok := c.bus.Response(c.id)
		if !ok {
			c.stats.IdleCycles++
			return
		}
		c.resolveMiss(resp)
		c.stats.IdleCycles++
		if c.remaining > 0 {
			c.state = ExecuteLoad
		} else {
			c.state = Ready
		}

	case AwaitBusStore:
		resp, ok := c.bus.Response(c.id)
		if !ok {
			c.stats.IdleCycles++
			return
		}
		c.resolveMiss(resp)
		c.stats.IdleCycles++
		if c.remaining > 0 {
			c.state = ExecuteStore
		} else {
			c.state = Ready
		}

	case ExecuteLoad, ExecuteStore:
		c.stats.IdleCycles++
		c.remaining--
		if c.remaining <= 0 {
			c.state = Ready
		}
	}
}

// dispatch performs the READY-state transition for the freshly fetched
// instruction: a LOAD/STORE either completes as a hit in this same tick
// or issues a bus request and moves to the matching AWAIT_BUS_* state;
// OTHER(k) moves to EXECUTE_NON_MEM for the remaining k-1 ticks.
func (c *Core) dispatch(instr Instruction) {
	switch instr.Kind {
	case InstrLoad:
		c.stats.LoadInstrs++
		outcome, reqKind := c.protocol.OnRead(c.cache, instr.Addr)
		c.completeMemAccess(outcome, reqKind, instr.Addr, AwaitBusLoad)

	case InstrStore:
		c.stats.StoreInstrs++
		outcome, reqKind := c.protocol.OnWrite(c.cache, instr.Addr)
		c.completeMemAccess(outcome, reqKind, instr.Addr, AwaitBusStore)

	case InstrOther:
		c.stats.ComputeCycles++
		if instr.Cycles <= 1 {
			c.state = Ready
			return
		}
		c.remaining = int(instr.Cycles) - 1
		c.state = ExecuteNonMem

	default:
		panic("cachesim: unknown instruction kind")
	}
}

func (c *Core) completeMemAccess(outcome AccessOutcome, reqKind BusReqKind, addr Address, missState CoreState) {
	if outcome == Hit {
		c.cache.Touch(addr)
		c.stats.CacheHits++
		c.stats.IdleCycles++
		c.state = Ready
		return
	}

	c.stats.CacheMisses++
	c.stats.IdleCycles++
	c.remaining = 0 // cleared before resolveMiss may extend it with a dirty-eviction penalty
	c.bus.Enqueue(BusRequest{
		Kind:                  reqKind,
		OriginCoreID:          c.id,
		Addr:                  addr,
		OriginStateWhenIssued: c.cache.StateOf(addr),
	})
	c.state = missState
}

// resolveMiss performs the cache maintenance that follows a serviced bus
// response: install (evicting via LRU first if the set is full, charging
// a dirty writeback penalty if the victim was MODIFIED), touch, then hand
// off to the protocol to set the final state.
func (c *Core) resolveMiss(resp BusResponse) {
	addr := resp.Request.Addr

	if !c.cache.IsPresent(addr) {
		if c.cache.IsSetFull(addr) {
			victim := c.cache.EvictTarget(addr)
			if victim.State == Modified {
				c.remaining += int(c.timing.EvictDirtyCacheBlockCC)
				c.logger.Debugf("core %d: evicting dirty block tag=%d, +%d cycles",
					c.id, victim.Tag, c.timing.EvictDirtyCacheBlockCC)
			}
		}
		c.cache.Install(addr)
	}

	c.cache.Touch(addr)
	c.protocol.OnBusResponse(c.cache, resp)
}
