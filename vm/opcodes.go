package vm

// Numeric opcode/funct values shared between the encoder (which emits
// them) and the interpreter (which decodes them). Grounded on
// original_source/include/parser/instruction.h's InstructionCode enum,
// which mirrors the standard MIPS32 encoding.

// Primary opcodes (bits 31:26).
const (
	OpR      uint32 = 0x00
	OpRegImm uint32 = 0x01 // bltz/bgez family, reached only via pseudo-expansion
	OpJ      uint32 = 0x02
	OpJal    uint32 = 0x03
	OpBeq    uint32 = 0x04
	OpBne    uint32 = 0x05
	OpBlez   uint32 = 0x06
	OpBgtz   uint32 = 0x07
	OpAddi   uint32 = 0x08
	OpAddiu  uint32 = 0x09
	OpSlti   uint32 = 0x0A
	OpSltiu  uint32 = 0x0B
	OpAndi   uint32 = 0x0C
	OpOri    uint32 = 0x0D
	OpXori   uint32 = 0x0E
	OpLui    uint32 = 0x0F
	OpCP0    uint32 = 0x10
	OpCP1    uint32 = 0x11
	OpLb     uint32 = 0x20
	OpLh     uint32 = 0x21
	OpLw     uint32 = 0x23
	OpLbu    uint32 = 0x24
	OpLhu    uint32 = 0x25
	OpSb     uint32 = 0x28
	OpSh     uint32 = 0x29
	OpSw     uint32 = 0x2B
	OpLwc1   uint32 = 0x31
	OpLdc1   uint32 = 0x35
	OpSwc1   uint32 = 0x39
	OpSdc1   uint32 = 0x3D
)

// R-type funct codes (bits 5:0) when op == OpR.
const (
	FnSll     uint32 = 0x00
	FnSrl     uint32 = 0x02
	FnSra     uint32 = 0x03
	FnSllv    uint32 = 0x04
	FnSrlv    uint32 = 0x06
	FnSrav    uint32 = 0x07
	FnJr      uint32 = 0x08
	FnJalr    uint32 = 0x09
	FnSyscall uint32 = 0x0C
	FnBreak   uint32 = 0x0D
	FnMfhi    uint32 = 0x10
	FnMthi    uint32 = 0x11
	FnMflo    uint32 = 0x12
	FnMtlo    uint32 = 0x13
	FnMult    uint32 = 0x18
	FnMultu   uint32 = 0x19
	FnDiv     uint32 = 0x1A
	FnDivu    uint32 = 0x1B
	FnAdd     uint32 = 0x20
	FnAddu    uint32 = 0x21
	FnSub     uint32 = 0x22
	FnSubu    uint32 = 0x23
	FnAnd     uint32 = 0x24
	FnOr      uint32 = 0x25
	FnXor     uint32 = 0x26
	FnNor     uint32 = 0x27
	FnSlt     uint32 = 0x2A
	FnSltu    uint32 = 0x2B
)

// REGIMM rt-field selectors (op == OpRegImm).
const (
	RtBltz uint32 = 0x00
	RtBgez uint32 = 0x01
)

// CP0 rs-field selectors (op == OpCP0).
const (
	CP0Mf uint32 = 0x00
	CP0Mt uint32 = 0x04
)

const WordEret uint32 = 0x42000018
const WordSyscall uint32 = 0x0000000C

// CP1 rs-field ("sub") selectors (op == OpCP1).
const (
	CP1SubMfc1  uint32 = 0x00
	CP1SubMtc1  uint32 = 0x04
	CP1SubBc1   uint32 = 0x08
	CP1FmtSingle uint32 = 0x10
	CP1FmtDouble uint32 = 0x11
)

// CP1 arithmetic funct codes (when sub is a format selector, not Mfc1/Mtc1/Bc1).
const (
	FnFAdd  uint32 = 0x00
	FnFSub  uint32 = 0x01
	FnFMul  uint32 = 0x02
	FnFDiv  uint32 = 0x03
	FnFSqrt uint32 = 0x04
	FnFAbs  uint32 = 0x05
	FnFMov  uint32 = 0x06
	FnFNeg  uint32 = 0x07
)

// IsCompareFunc reports whether a CP1 arithmetic-position funct code is one
// of the C.cond.fmt comparisons (func bits 5:4 == 0b11), per spec.md 4.7's
// decode split.
func IsCompareFunc(fn uint32) bool { return fn&0x30 == 0x30 }
