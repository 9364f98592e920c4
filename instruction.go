package cachesim

// InstrKind is the instruction type encoded by the first token of a
// trace line.
type InstrKind int

const (
	InstrLoad InstrKind = iota
	InstrStore
	InstrOther
)

func (k InstrKind) String() string {
	switch k {
	case InstrLoad:
		return "LOAD"
	case InstrStore:
		return "STORE"
	case InstrOther:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Instruction is one line of a per-core trace. For LOAD/STORE, Addr is
// the byte address; for OTHER, Cycles is the compute-cycle count and
// Addr is unused.
type Instruction struct {
	Kind   InstrKind
	Addr   Address
	Cycles uint64
}

// InstructionSource feeds a Core its instruction stream one at a time.
// Next returns ok=false once the trace is exhausted.
type InstructionSource interface {
	Next() (Instruction, bool)
}
