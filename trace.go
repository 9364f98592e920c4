package cachesim

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TraceReader implements InstructionSource over a trace file format of
// one instruction per line, two whitespace-separated tokens. A malformed
// line is a fatal TraceParseError — never skipped.
//
// Trace file discovery and line tokenising sit deliberately outside the
// core state machine's own test surface, but TraceReader is still the
// repository's one concrete implementation of InstructionSource, since a
// runnable CLI needs a real trace source.
type TraceReader struct {
	path    string
	scanner *bufio.Scanner
	file    *os.File
	lineNo  int
	err     error
}

// OpenTrace opens path and returns a TraceReader positioned at its first
// line. The caller must call Close when done (or let the process exit).
func OpenTrace(path string) (*TraceReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, configErrorf(ErrTraceNotFound, "%s", path)
	}
	return &TraceReader{
		path:    path,
		scanner: bufio.NewScanner(f),
		file:    f,
	}, nil
}

func (r *TraceReader) Close() error {
	return r.file.Close()
}

// Next implements InstructionSource. Once the trace is exhausted it
// returns (Instruction{}, false) forever. A malformed line, or an error
// reading the file, panics with a *TraceParseError; main recovers it into
// a returned error. Trace parse errors abort the run; they are never
// silently skipped.
func (r *TraceReader) Next() (Instruction, bool) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			r.err = fmt.Errorf("cachesim: reading %s: %w", r.path, err)
			panic(&TraceParseError{File: r.path, Line: r.lineNo, Err: r.err})
		}
		return Instruction{}, false
	}
	r.lineNo++
	line := r.scanner.Text()

	fields := strings.Fields(line)
	if len(fields) != 2 {
		panic(&TraceParseError{File: r.path, Line: r.lineNo, Text: line,
			Err: fmt.Errorf("expected 2 whitespace-separated tokens, got %d", len(fields))})
	}

	kind, err := parseInstrKind(fields[0])
	if err != nil {
		panic(&TraceParseError{File: r.path, Line: r.lineNo, Text: line, Err: err})
	}

	operand, err := strconv.ParseUint(fields[1], 16, 64)
	if err != nil {
		panic(&TraceParseError{File: r.path, Line: r.lineNo, Text: line,
			Err: fmt.Errorf("parsing hex operand %q: %w", fields[1], err)})
	}

	instr := Instruction{Kind: kind}
	if kind == InstrOther {
		instr.Cycles = operand
	} else {
		instr.Addr = Address(operand)
	}
	return instr, true
}

func parseInstrKind(tok string) (InstrKind, error) {
	switch tok {
	case "0":
		return InstrLoad, nil
	case "1":
		return InstrStore, nil
	case "2":
		return InstrOther, nil
	default:
		return 0, fmt.Errorf("unknown instruction type %q", tok)
	}
}

// TracePath builds the per-core trace file name from the input base:
// "<base>_<coreID>.data".
func TracePath(base string, coreID int) string {
	return fmt.Sprintf("%s_%d.data", base, coreID)
}
