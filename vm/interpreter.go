package vm

import "fmt"

// MemLayout is the assembled program image handed from the assembler to
// the interpreter: raw bytes per section, plus debug info for executable
// ranges. Defined here (rather than in loader) since State.Load consumes
// it directly and the loader's object container is just one more source
// of a MemLayout.
type MemLayout struct {
	Sections  map[MemSection][]byte
	DebugInfo map[uint32]DebugInfo
}

// Load copies every section of a layout into memory at its fixed base and
// installs debug info, per spec.md 3's Lifecycle note ("loading copies
// bytes into memory and installs debug info for executable ranges").
func (st *State) Load(layout *MemLayout) {
	for section, data := range layout.Sections {
		base := BaseOf(section)
		for i, b := range data {
			st.Memory.SysByteTo(base+uint32(i), b)
		}
	}
	for addr, info := range layout.DebugInfo {
		st.DebugInfo[addr] = info
	}
}

// Init prepares a freshly loaded State for execution, per spec.md 4.7's
// Initialization step.
func (st *State) Init() {
	st.Registers.SetU32(Pc, TextBase)
	st.Registers.SetU32(Fp, StackBase)
	st.Registers.SetU32(Sp, StackBase)
	st.Registers.SetU32(Gp, GlobalBase)
	st.Memory.SetDisplayIdle()
	st.CP0.Set(CP0Status, StatusInterruptEnable|StatusKeyboardMask|StatusDisplayMask)
}

// InputSource supplies MMIO-mode bytes one at a time, non-blocking.
type InputSource interface {
	// HasByte reports whether a byte is ready without consuming it.
	HasByte() bool
	// NextByte consumes and returns the next byte; only called after
	// HasByte returns true.
	NextByte() byte
}

// OutputSink receives MMIO-mode output bytes one at a time.
type OutputSink interface {
	WriteByte(b byte) error
}

func (st *State) locatorAt(pc uint32) SourceLocator {
	if info, ok := st.DebugInfo[pc]; ok {
		return info.Loc
	}
	return SourceLocator{}
}

// Step executes exactly one instruction (or delivers one pending
// exception/interrupt instead), per spec.md 4.7.
func (st *State) Step(in InputSource, out OutputSink) error {
	var cause uint32

	if st.IOMode == MMIOMode && st.Registers.GetU32(Pc) < KTextBase {
		cause |= st.pollMMIO(in, out)
	}

	pc := st.Registers.GetU32(Pc)
	if !st.Memory.Allocated(pc) {
		return &Exit{Code: -1, Msg: "fell off end"}
	}
	if pc >= TextLimit && pc < KTextBase {
		return NewRuntimeError(pc, st.locatorAt(pc), "program counter out of text segment")
	}

	word := st.Memory.SysWordAt(pc)
	st.Registers.SetU32(Pc, pc+4)

	if cause != 0 {
		st.deliver(cause, pc)
		return nil
	}

	if err := st.execute(word, pc); err != nil {
		if ee, ok := err.(*ExecExcept); ok {
			st.deliver(ee.Cause, pc)
			return nil
		}
		return err
	}
	return nil
}

func (st *State) pollMMIO(in InputSource, out OutputSink) uint32 {
	var cause uint32
	enabled := st.CP0.Get(CP0Status)&StatusInterruptEnable != 0

	if in != nil && in.HasByte() {
		if st.Memory.PollInput(in.NextByte()) {
			if enabled && st.CP0.Get(CP0Status)&StatusKeyboardMask != 0 {
				cause |= CauseKeyboardInterrupt
			}
		}
	}
	if b, pending := st.Memory.OutputPending(); pending {
		if out != nil {
			_ = out.WriteByte(b)
		}
		if enabled && st.CP0.Get(CP0Status)&StatusDisplayMask != 0 {
			cause |= CauseDisplayInterrupt
		}
	}
	return cause
}

// deliver installs cause/EPC and jumps to the KText handler if one is
// installed; the caller (Step) has already observed the exception and
// simply records its disposition. Interpret converts the unhandled case
// into a RuntimeError.
func (st *State) deliver(cause uint32, pc uint32) {
	if !st.Memory.Allocated(KTextBase) {
		st.pendingUnhandled = &RuntimeError{PC: pc, Loc: st.locatorAt(pc), Msg: fmt.Sprintf("unhandled exception, cause 0x%02X", cause)}
		return
	}
	st.CP0.Set(CP0Epc, pc)
	st.CP0.Set(CP0Cause, cause)
	st.Registers.SetU32(Pc, KTextBase)
}

func (st *State) execute(word uint32, pc uint32) error {
	op := word >> 26

	switch {
	case word == WordSyscall:
		return st.syscall()
	case word == WordEret:
		st.Registers.SetU32(Pc, uint32(st.CP0.Get(CP0Epc)))
		st.CP0.Set(CP0Epc, 0)
		st.CP0.Set(CP0Cause, 0)
		return nil
	case op == OpCP0:
		rs := (word >> 21) & 0x1F
		rt := (word >> 16) & 0x1F
		rd := (word >> 11) & 0x1F
		switch rs {
		case CP0Mf:
			st.Registers.SetU32(Register(rt), st.CP0.GetIndex(rd))
		case CP0Mt:
			st.CP0.SetIndex(rd, st.Registers.GetU32(Register(rt)))
		default:
			return NewRuntimeError(pc, st.locatorAt(pc), "unknown CP0 move")
		}
		return nil
	case op == OpCP1:
		return st.execCP1(word)
	case op == OpLwc1, op == OpLdc1, op == OpSwc1, op == OpSdc1:
		base := (word >> 21) & 0x1F
		ft := (word >> 16) & 0x1F
		offset := word & 0xFFFF
		return st.ExecCP1ImmType(op, base, ft, offset)
	case op == OpR:
		rs := (word >> 21) & 0x1F
		rt := (word >> 16) & 0x1F
		rd := (word >> 11) & 0x1F
		shamt := (word >> 6) & 0x1F
		funct := word & 0x3F
		return st.ExecRType(rs, rt, rd, shamt, funct)
	case op == OpJ, op == OpJal:
		return st.execJ(op, word)
	default:
		rs := (word >> 21) & 0x1F
		rt := (word >> 16) & 0x1F
		imm16 := word & 0xFFFF
		return st.ExecIType(op, rs, rt, imm16)
	}
}

func (st *State) execJ(op, word uint32) error {
	st.ExecJType(op, word&0x3FFFFFF)
	return nil
}

func (st *State) execCP1(word uint32) error {
	sub := (word >> 21) & 0x1F
	switch sub {
	case CP1SubMfc1, CP1SubMtc1:
		rt := (word >> 16) & 0x1F
		fs := (word >> 11) & 0x1F
		return st.ExecCP1RegImmType(sub, rt, fs)
	case CP1SubBc1:
		tf := (word >> 16) & 0x1
		offset := word & 0xFFFF
		st.ExecCP1CondImmType(tf, offset)
		return nil
	default:
		fmt_ := sub
		ft := (word >> 16) & 0x1F
		fs := (word >> 11) & 0x1F
		fd := (word >> 6) & 0x1F
		funct := word & 0x3F
		return st.ExecCP1RegType(fmt_, ft, fs, fd, funct)
	}
}

// Interpret runs Step repeatedly until Exit is raised or an unhandled
// RuntimeError occurs, returning the program's exit code.
func (st *State) Interpret(in InputSource, out OutputSink) (int, error) {
	return st.InterpretLimited(in, out, 0)
}

// InterpretLimited behaves like Interpret but aborts with a RuntimeError
// once maxCycles instructions have executed, guarding the CLI frontend
// against runaway programs (an infinite loop with no syscall exit). A
// maxCycles of 0 means unlimited.
func (st *State) InterpretLimited(in InputSource, out OutputSink, maxCycles uint64) (int, error) {
	var cycles uint64
	for {
		if maxCycles > 0 && cycles >= maxCycles {
			pc := st.Registers.GetU32(Pc)
			return 1, NewRuntimeError(pc, st.locatorAt(pc), "exceeded cycle limit of %d instructions", maxCycles)
		}
		cycles++

		err := st.Step(in, out)
		if st.pendingUnhandled != nil {
			u := st.pendingUnhandled
			st.pendingUnhandled = nil
			return 1, u
		}
		if err == nil {
			continue
		}
		if exit, ok := err.(*Exit); ok {
			return exit.Code, nil
		}
		return 1, err
	}
}
