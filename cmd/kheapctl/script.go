package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/joshuapare/kheapkit/mem/kheap"
)

// Script commands, one per line:
//
//	alloc   <name> <size>
//	calloc  <name> <size>
//	realloc <name> <size>
//	free    <name>
//	fill    <name> <byte>
//	expect  <name> <byte>
//	check
//	stats
//	blocks
//
// Blank lines and lines starting with '#' are ignored.

type opKind string

const (
	opAlloc   opKind = "alloc"
	opCalloc  opKind = "calloc"
	opRealloc opKind = "realloc"
	opFree    opKind = "free"
	opFill    opKind = "fill"
	opExpect  opKind = "expect"
	opCheck   opKind = "check"
	opStats   opKind = "stats"
	opBlocks  opKind = "blocks"
)

// arity is the number of arguments each command takes.
var arity = map[opKind]int{
	opAlloc:   2,
	opCalloc:  2,
	opRealloc: 2,
	opFree:    1,
	opFill:    2,
	opExpect:  2,
	opCheck:   0,
	opStats:   0,
	opBlocks:  0,
}

type scriptOp struct {
	Line int
	Kind opKind
	Name string
	N    int // size for alloc/calloc/realloc, byte value for fill/expect
}

func (o scriptOp) String() string {
	switch arity[o.Kind] {
	case 0:
		return string(o.Kind)
	case 1:
		return fmt.Sprintf("%s %s", o.Kind, o.Name)
	}
	return fmt.Sprintf("%s %s %d", o.Kind, o.Name, o.N)
}

// ScriptError reports a malformed script line.
type ScriptError struct {
	Line int
	Msg  string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func parseScript(r io.Reader) ([]scriptOp, error) {
	var ops []scriptOp
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		op, err := parseLine(line, strings.Fields(text))
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ops, nil
}

func parseLine(line int, fields []string) (scriptOp, error) {
	kind := opKind(strings.ToLower(fields[0]))
	want, ok := arity[kind]
	if !ok {
		return scriptOp{}, &ScriptError{Line: line, Msg: fmt.Sprintf("unknown command %q", fields[0])}
	}
	if len(fields)-1 != want {
		return scriptOp{}, &ScriptError{
			Line: line,
			Msg:  fmt.Sprintf("%s takes %d argument(s), got %d", kind, want, len(fields)-1),
		}
	}

	op := scriptOp{Line: line, Kind: kind}
	if want >= 1 {
		op.Name = fields[1]
	}
	if want == 2 {
		n, err := strconv.ParseInt(fields[2], 0, 64)
		if err != nil {
			return scriptOp{}, &ScriptError{Line: line, Msg: fmt.Sprintf("bad number %q", fields[2])}
		}
		if (kind == opFill || kind == opExpect) && (n < 0 || n > 0xFF) {
			return scriptOp{}, &ScriptError{Line: line, Msg: fmt.Sprintf("byte value %d out of range", n)}
		}
		op.N = int(n)
	}
	return op, nil
}

// opResult is the outcome of one script line.
type opResult struct {
	Line  int    `json:"line"`
	Op    string `json:"op"`
	Ptr   string `json:"ptr,omitempty"`
	Size  int    `json:"usable,omitempty"`
	Error string `json:"error,omitempty"`
}

var (
	errUnknownName = errors.New("unknown allocation name")
	errMismatch    = errors.New("content mismatch")
)

// session replays script operations against one heap, naming each live
// allocation.
type session struct {
	h    *kheap.Heap
	ptrs map[string]kheap.Ptr
	out  io.Writer // destination for stats and blocks output
}

func newSession(h *kheap.Heap, out io.Writer) *session {
	return &session{h: h, ptrs: make(map[string]kheap.Ptr), out: out}
}

func (s *session) exec(op scriptOp) opResult {
	res := opResult{Line: op.Line, Op: op.String()}
	p, err := s.apply(op)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if p != 0 {
		res.Ptr = fmt.Sprintf("%#x", uint64(p))
		if n, err := s.h.UsableSize(p); err == nil {
			res.Size = n
		}
	}
	return res
}

func (s *session) apply(op scriptOp) (kheap.Ptr, error) {
	switch op.Kind {
	case opAlloc, opCalloc:
		alloc := s.h.Alloc
		if op.Kind == opCalloc {
			alloc = s.h.Calloc
		}
		if old, ok := s.ptrs[op.Name]; ok {
			return 0, fmt.Errorf("%s already holds %#x", op.Name, uint64(old))
		}
		p, _, err := alloc(op.N)
		if err != nil {
			return 0, err
		}
		s.ptrs[op.Name] = p
		return p, nil

	case opRealloc:
		// An unknown name reallocs the null pointer.
		p, _, err := s.h.Realloc(s.ptrs[op.Name], op.N)
		if err != nil {
			return 0, err
		}
		if p == 0 {
			delete(s.ptrs, op.Name)
		} else {
			s.ptrs[op.Name] = p
		}
		return p, nil

	case opFree:
		p, ok := s.ptrs[op.Name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", errUnknownName, op.Name)
		}
		if err := s.h.Free(p); err != nil {
			return 0, err
		}
		delete(s.ptrs, op.Name)
		return 0, nil

	case opFill, opExpect:
		p, ok := s.ptrs[op.Name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", errUnknownName, op.Name)
		}
		b, err := s.h.Bytes(p)
		if err != nil {
			return 0, err
		}
		for i := range b {
			if op.Kind == opFill {
				b[i] = byte(op.N)
			} else if b[i] != byte(op.N) {
				return 0, fmt.Errorf("%w: %s byte %d is %#x, want %#x", errMismatch, op.Name, i, b[i], op.N)
			}
		}
		return p, nil

	case opCheck:
		return 0, s.h.Check()

	case opStats:
		if !jsonOut {
			s.h.PrintStats(s.out)
		}
		return 0, nil

	case opBlocks:
		blocks, err := s.h.FreeBlocks()
		if err != nil {
			return 0, err
		}
		if !jsonOut {
			for _, b := range blocks {
				fmt.Fprintf(s.out, "  free %s size %d\n", b.Addr, b.Size)
			}
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unhandled command %q", op.Kind)
}

// live returns the names still holding allocations, sorted.
func (s *session) live() []string {
	return slices.Sorted(maps.Keys(s.ptrs))
}
