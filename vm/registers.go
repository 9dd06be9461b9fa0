package vm

import "fmt"

// Register is a stable index into the general-purpose register file, which
// also carries pc, hi and lo so that a single flat array covers every
// value an instruction can address by number.
type Register int

const (
	Zero Register = iota
	At
	V0
	V1
	A0
	A1
	A2
	A3
	T0
	T1
	T2
	T3
	T4
	T5
	T6
	T7
	S0
	S1
	S2
	S3
	S4
	S5
	S6
	S7
	T8
	T9
	K0
	K1
	Gp
	Sp
	Fp
	Ra
	Pc
	Hi
	Lo

	NumRegisters
)

var registerNames = map[string]Register{
	"zero": Zero, "at": At, "v0": V0, "v1": V1,
	"a0": A0, "a1": A1, "a2": A2, "a3": A3,
	"t0": T0, "t1": T1, "t2": T2, "t3": T3, "t4": T4, "t5": T5, "t6": T6, "t7": T7,
	"s0": S0, "s1": S1, "s2": S2, "s3": S3, "s4": S4, "s5": S5, "s6": S6, "s7": S7,
	"t8": T8, "t9": T9, "k0": K0, "k1": K1,
	"gp": Gp, "sp": Sp, "fp": Fp, "ra": Ra, "pc": Pc, "hi": Hi, "lo": Lo,
}

var registerDisplayNames = func() map[Register]string {
	m := make(map[Register]string, len(registerNames))
	for name, reg := range registerNames {
		m[reg] = name
	}
	return m
}()

// RegisterIndex returns the register numbered by name, e.g. "t0" -> T0.
func RegisterIndex(name string) (Register, error) {
	if r, ok := registerNames[name]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("vm: unknown register %q", name)
}

// String renders the conventional assembly name of a register.
func (r Register) String() string {
	if name, ok := registerDisplayNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reg%d", int(r))
}

// RegisterFile holds the 32 general-purpose registers plus pc, hi and lo.
// $zero always reads as 0 regardless of what is stored to it.
type RegisterFile struct {
	values [NumRegisters]int32
}

// Get reads a register by numeric index.
func (f *RegisterFile) Get(r Register) int32 {
	return f.values[r]
}

// Set writes a register by numeric index; writes to $zero are discarded.
func (f *RegisterFile) Set(r Register, v int32) {
	if r == Zero {
		return
	}
	f.values[r] = v
}

// GetU32/SetU32 are unsigned-view convenience wrappers used throughout the
// interpreter, where addresses and unsigned arithmetic results are more
// naturally expressed as uint32.
func (f *RegisterFile) GetU32(r Register) uint32 { return uint32(f.Get(r)) }
func (f *RegisterFile) SetU32(r Register, v uint32) { f.Set(r, int32(v)) }
