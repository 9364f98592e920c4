package cachesim

// NumCores is fixed at four private caches sharing one bus.
const NumCores = 4

// Simulation is the lock-step driver: it owns the bus and the cores,
// ticks a global cycle counter, and terminates once every core has
// exhausted its trace and reached DONE.
type Simulation struct {
	geometry Geometry
	timing   Timing
	protocol Protocol
	bus      *Bus
	cores    [NumCores]*Core
	caches   [NumCores]*Cache
	logger   Logger

	cycle uint64
}

// NewSimulation constructs a Simulation: it owns the bus and the cores,
// each core exclusively owns its cache, and the bus holds mutation rights
// over every cache for snooping.
func NewSimulation(geometry Geometry, timing Timing, protocol Protocol, traces [NumCores]InstructionSource, logger Logger) *Simulation {
	if logger == nil {
		logger = NopLogger{}
	}

	var caches [NumCores]*Cache
	for i := range caches {
		caches[i] = newCache(geometry)
	}

	cacheSlice := make([]*Cache, NumCores)
	for i, c := range caches {
		cacheSlice[i] = c
	}
	bus := NewBus(timing, geometry, cacheSlice, logger)

	var cores [NumCores]*Core
	for i := range cores {
		cores[i] = NewCore(i, caches[i], protocol, bus, traces[i], timing, logger)
	}

	return &Simulation{
		geometry: geometry,
		timing:   timing,
		protocol: protocol,
		bus:      bus,
		cores:    cores,
		caches:   caches,
		logger:   logger,
	}
}

// Run executes the simulation to completion and returns the aggregate
// report.
func (s *Simulation) Run() Report {
	for !s.allDone() {
		s.tick()
	}
	return s.report()
}

func (s *Simulation) allDone() bool {
	for _, c := range s.cores {
		if !c.Done() {
			return false
		}
	}
	return true
}

// tick advances every core (in id order) one step, then the bus one
// step, then the global cycle counter. This ordering is observable: two
// cores that both queue a bus request on the same tick are enqueued in
// id order, so the FIFO services them in id order.
func (s *Simulation) tick() {
	for _, c := range s.cores {
		if !c.Done() {
			c.Step()
		}
	}
	s.bus.Tick()
	s.cycle++
}

// report aggregates per-core and bus/protocol statistics. Overall
// execution cycles is the max over cores of their own execution cycles,
// not the global tick counter (which also counts trailing ticks after
// the last core's final transition).
func (s *Simulation) report() Report {
	rep := Report{
		Bus:      s.bus.Stats(),
		Protocol: s.protocol.Stats(),
	}
	var maxExec uint64
	for i, c := range s.cores {
		stats := c.Stats()
		rep.Cores[i] = stats
		if exec := stats.ExecutionCycles(); exec > maxExec {
			maxExec = exec
		}
	}
	rep.OverallCycles = maxExec
	return rep
}

// Report is the final aggregate result of a simulation run.
type Report struct {
	OverallCycles uint64
	Cores         [NumCores]CoreStats
	Bus           BusStats
	Protocol      ProtocolStats
}
