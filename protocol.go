package cachesim

// AccessOutcome is the result of a processor-side cache access decision.
type AccessOutcome int

const (
	Hit AccessOutcome = iota
	Miss
)

func (o AccessOutcome) String() string {
	if o == Hit {
		return "HIT"
	}
	return "MISS"
}

// BusReqKind identifies the kind of coherence transaction queued on the
// bus.
type BusReqKind int

const (
	BusRd BusReqKind = iota
	BusRdX
	Flush
)

func (k BusReqKind) String() string {
	switch k {
	case BusRd:
		return "BusRd"
	case BusRdX:
		return "BusRdX"
	case Flush:
		return "Flush"
	default:
		return "unknown"
	}
}

// BusRequest is queued by the protocol on a miss path and discarded once
// its response is posted.
type BusRequest struct {
	Kind                  BusReqKind
	OriginCoreID          int
	Addr                  Address
	OriginStateWhenIssued MESIState
}

// BusResponse carries the serviced request back to its origin core.
// SharersExisted is only meaningful for BusRd.
type BusResponse struct {
	Request        BusRequest
	SharersExisted bool
}

// Protocol is a narrow interface: a pure decision module that inspects
// the requesting core's own cache and either completes the access
// locally or asks for a bus request kind, then finalises local state
// once a bus response arrives. It MUST NOT mutate peer caches — all peer
// mutation belongs to the Bus during snoop.
//
// Any implementation satisfying this interface can replace MESI; a
// write-update variant (Dragon) would differ by returning update rather
// than invalidate request kinds here and by maintaining its own SC/SM/E/M
// states instead of MESIState. Only MESI ships.
type Protocol interface {
	// OnRead handles a processor read (PrRd) against cache at addr. On a
	// miss it returns (Miss, kind) identifying the bus request the caller
	// should queue; on a hit it returns (Hit, _).
	OnRead(cache *Cache, addr Address) (AccessOutcome, BusReqKind)
	// OnWrite handles a processor write (PrWr) analogously.
	OnWrite(cache *Cache, addr Address) (AccessOutcome, BusReqKind)
	// OnBusResponse finalises the requesting core's block state once the
	// bus has serviced resp.Request. Called after the core's own miss
	// maintenance (install/evict, touch) has already run.
	OnBusResponse(cache *Cache, resp BusResponse)
	// Stats returns the cumulative access-locality counters.
	Stats() ProtocolStats
}

// ProtocolStats are the access-locality counters: on every processor
// access, before the HIT/MISS decision, PrivateAccesses is incremented if
// the block's pre-access state was MODIFIED or EXCLUSIVE, SharedAccesses
// if SHARED. An INVALID/absent block increments neither — it becomes
// private or shared only once the miss resolves, and the pre-access
// state is what gets counted.
type ProtocolStats struct {
	PrivateAccesses uint64
	SharedAccesses  uint64
}

// MESIProtocol is the reference coherence protocol. A single instance is
// shared by every core in a Simulation, since the access-locality
// counters it owns are aggregated (not per-core) in the final report.
type MESIProtocol struct {
	stats ProtocolStats
}

// NewMESIProtocol constructs the reference protocol.
func NewMESIProtocol() *MESIProtocol {
	return &MESIProtocol{}
}

func (p *MESIProtocol) countAccess(state MESIState) {
	switch state {
	case Modified, Exclusive:
		p.stats.PrivateAccesses++
	case Shared:
		p.stats.SharedAccesses++
	}
}

// OnRead implements the PrRd table: a block held in any valid state hits
// with no transition and no bus traffic; INVALID/absent misses and
// queues BusRd.
func (p *MESIProtocol) OnRead(cache *Cache, addr Address) (AccessOutcome, BusReqKind) {
	state := cache.StateOf(addr)
	p.countAccess(state)

	if state.valid() {
		return Hit, 0
	}
	return Miss, BusRd
}

// OnWrite implements the PrWr table: MODIFIED hits with no transition;
// EXCLUSIVE hits and silently upgrades to MODIFIED with no bus traffic;
// SHARED/INVALID/absent misses and queues BusRdX.
func (p *MESIProtocol) OnWrite(cache *Cache, addr Address) (AccessOutcome, BusReqKind) {
	state := cache.StateOf(addr)
	p.countAccess(state)

	switch state {
	case Modified:
		return Hit, 0
	case Exclusive:
		cache.SetState(addr, Modified)
		return Hit, 0
	default: // Shared, Invalid/absent
		return Miss, BusRdX
	}
}

// OnBusResponse implements the response-side state transition table.
func (p *MESIProtocol) OnBusResponse(cache *Cache, resp BusResponse) {
	switch resp.Request.Kind {
	case BusRd:
		if resp.SharersExisted {
			cache.SetState(resp.Request.Addr, Shared)
		} else {
			cache.SetState(resp.Request.Addr, Exclusive)
		}
	case BusRdX:
		cache.SetState(resp.Request.Addr, Modified)
	}
}

func (p *MESIProtocol) Stats() ProtocolStats {
	return p.stats
}

// NewProtocol constructs the named protocol. Dragon is a reserved name:
// the CLI surface accepts it, but no Dragon implementation ships, so it
// is rejected here with a configuration error rather than silently
// falling back to MESI.
func NewProtocol(name string) (Protocol, error) {
	switch name {
	case "MESI":
		return NewMESIProtocol(), nil
	case "Dragon":
		return nil, configErrorf(ErrUnknownProtocol, "Dragon protocol interface is reserved but not implemented")
	default:
		return nil, configErrorf(ErrUnknownProtocol, "protocol %q", name)
	}
}
