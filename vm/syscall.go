package vm

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"
)

// Syscall service numbers, per spec.md 4.7's table plus the two
// supplemented print_float/print_double services (SPEC_FULL.md 3).
const (
	SyscallPrintInt      = 1
	SyscallPrintString   = 4
	SyscallReadInt       = 5
	SyscallReadString    = 8
	SyscallHeapAlloc     = 9
	SyscallExit          = 10
	SyscallPrintChar     = 11
	SyscallReadChar      = 12
	SyscallExitVal       = 17
	SyscallTime          = 30
	SyscallSleep         = 32
	SyscallPrintIntHex   = 34
	SyscallPrintIntBin   = 35
	SyscallPrintUInt     = 36
	SyscallSetRandSeed   = 40
	SyscallRandInt       = 41
	SyscallRandIntRange  = 42
	SyscallPrintFloat    = 43
	SyscallPrintDouble   = 44
)

// rngState is a process-lifetime, per-id RNG used by the random syscalls.
// math/rand/v2's PCG source is this repository's stdlib-only exception
// (see DESIGN.md): the spec only asks for "Mersenne-Twister-equivalent"
// statistical behavior, not a bit-identical stream, and no example repo
// in the pack supplies an alternative RNG library.
type rngState struct {
	src *rand.Rand
}

func newRNG(seed uint64) *rngState {
	return &rngState{src: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

func (st *State) rng(id uint32) *rngState {
	r, ok := st.RNGs[id]
	if !ok {
		r = newRNG(uint64(time.Now().UnixNano()))
		st.RNGs[id] = r
	}
	return r
}

// Streams bundles the I/O handles a syscall's service needs; Interpret
// callers construct one around stdin/stdout (or any io.Reader/io.Writer).
type Streams struct {
	In  *bufio.Reader
	Out io.Writer
}

func (st *State) requiresSyscallMode(name string) error {
	if st.IOMode == MMIOMode {
		return &ExecExcept{Cause: CauseSyscall, Msg: fmt.Sprintf("%s requires syscall I/O mode", name)}
	}
	return nil
}

// syscall executes the service selected by $v0. The active Streams must be
// installed on State (see SetStreams) before Interpret is invoked, since
// spec.md 5 requires stream handles to be live for the whole run.
func (st *State) syscall() error {
	r := &st.Registers
	code := r.GetU32(V0)

	switch code {
	case SyscallPrintInt:
		if err := st.requiresSyscallMode("print_int"); err != nil {
			return err
		}
		fmt.Fprintf(st.streams.Out, "%d", r.Get(A0))
	case SyscallPrintString:
		if err := st.requiresSyscallMode("print_string"); err != nil {
			return err
		}
		st.writeCString(r.GetU32(A0))
	case SyscallReadInt:
		if err := st.requiresSyscallMode("read_int"); err != nil {
			return err
		}
		line, err := st.streams.In.ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		n, err := strconv.Atoi(trimEOL(line))
		if err != nil {
			return fmt.Errorf("vm: read_int: %w", err)
		}
		r.Set(V0, int32(n))
	case SyscallReadString:
		if err := st.requiresSyscallMode("read_string"); err != nil {
			return err
		}
		return st.readString(r.GetU32(A0), r.GetU32(A1))
	case SyscallHeapAlloc:
		addr, err := st.Heap.Allocate(r.GetU32(A0))
		if err != nil {
			return err
		}
		r.SetU32(V0, addr)
	case SyscallExit:
		return &Exit{Code: 0, Msg: "exit"}
	case SyscallPrintChar:
		if err := st.requiresSyscallMode("print_char"); err != nil {
			return err
		}
		fmt.Fprintf(st.streams.Out, "%c", byte(r.GetU32(A0)))
	case SyscallReadChar:
		if err := st.requiresSyscallMode("read_char"); err != nil {
			return err
		}
		b, err := st.streams.In.ReadByte()
		if err != nil {
			return err
		}
		r.SetU32(V0, uint32(b)&0xFF)
	case SyscallExitVal:
		return &Exit{Code: int(r.Get(A0)), Msg: "exit"}
	case SyscallTime:
		ms := time.Now().UnixMilli()
		r.SetU32(A0, uint32(ms))
		r.SetU32(A1, uint32(ms>>32))
	case SyscallSleep:
		ms := r.Get(A0)
		if ms < 0 {
			return fmt.Errorf("vm: sleep: negative duration")
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
	case SyscallPrintIntHex:
		if err := st.requiresSyscallMode("print_int_hex"); err != nil {
			return err
		}
		fmt.Fprintf(st.streams.Out, "%08x", r.GetU32(A0))
	case SyscallPrintIntBin:
		if err := st.requiresSyscallMode("print_int_bin"); err != nil {
			return err
		}
		fmt.Fprintf(st.streams.Out, "%032b", r.GetU32(A0))
	case SyscallPrintUInt:
		if err := st.requiresSyscallMode("print_uint"); err != nil {
			return err
		}
		fmt.Fprintf(st.streams.Out, "%d", r.GetU32(A0))
	case SyscallSetRandSeed:
		st.RNGs[r.GetU32(A0)] = newRNG(uint64(r.GetU32(A1)))
	case SyscallRandInt:
		v := st.rng(r.GetU32(A0)).src.Int32()
		r.Set(A0, v)
	case SyscallRandIntRange:
		max := r.Get(A1)
		if max < 0 {
			return fmt.Errorf("vm: rand_int_range: negative max")
		}
		v := int32(st.rng(r.GetU32(A0)).src.IntN(int(max) + 1))
		r.Set(A0, v)
	case SyscallPrintFloat:
		if err := st.requiresSyscallMode("print_float"); err != nil {
			return err
		}
		fmt.Fprintf(st.streams.Out, "%v", st.CP1.GetFloat(12))
	case SyscallPrintDouble:
		if err := st.requiresSyscallMode("print_double"); err != nil {
			return err
		}
		v, err := st.CP1.GetDouble(12)
		if err != nil {
			return err
		}
		fmt.Fprintf(st.streams.Out, "%v", v)
	default:
		return fmt.Errorf("vm: unknown syscall %d", code)
	}
	return nil
}

func trimEOL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func (st *State) writeCString(addr uint32) {
	for {
		b := st.Memory.ByteAt(addr)
		if b == 0 {
			return
		}
		fmt.Fprintf(st.streams.Out, "%c", b)
		addr++
	}
}

// readString implements the read_string service's terminal-editing rule:
// '\n' terminates, '\b' decrements the write cursor without underflowing.
func (st *State) readString(addr, maxLen uint32) error {
	if maxLen == 0 {
		return nil
	}
	cursor := uint32(0)
	for cursor < maxLen-1 {
		b, err := st.streams.In.ReadByte()
		if err != nil {
			break
		}
		if b == '\n' {
			break
		}
		if b == '\b' {
			if cursor > 0 {
				cursor--
			}
			continue
		}
		st.Memory.SysByteTo(addr+cursor, b)
		cursor++
	}
	st.Memory.SysByteTo(addr+cursor, 0)
	return nil
}

// SetStreams installs the stdin/stdout handles syscalls read and write.
func (st *State) SetStreams(in io.Reader, out io.Writer) {
	st.streams = Streams{In: bufio.NewReader(in), Out: out}
}
