package encoder

import "github.com/matthew-pisano/masm-sub000/vm"

// instTable maps every native mnemonic this assembler supports to its
// operand shape, emitter class, and numeric opcode/funct, grounded on
// spec.md 4.5 and vm.opcodes.go's shared numeric constants.
var instTable = map[string]InstDef{
	// R-type, {rd, rs, rt}
	"add":  {Name: "add", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnAdd, Size: 4},
	"addu": {Name: "addu", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnAddu, Size: 4},
	"sub":  {Name: "sub", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnSub, Size: 4},
	"subu": {Name: "subu", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnSubu, Size: 4},
	"and":  {Name: "and", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnAnd, Size: 4},
	"or":   {Name: "or", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnOr, Size: 4},
	"xor":  {Name: "xor", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnXor, Size: 4},
	"nor":  {Name: "nor", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnNor, Size: 4},
	"slt":  {Name: "slt", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnSlt, Size: 4},
	"sltu": {Name: "sltu", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnSltu, Size: 4},

	// R-type, {rd, rt, shamt}
	"sll": {Name: "sll", Shape: ShapeRdRtShamt, Class: ClassR, Code: vm.FnSll, Size: 4},
	"srl": {Name: "srl", Shape: ShapeRdRtShamt, Class: ClassR, Code: vm.FnSrl, Size: 4},
	"sra": {Name: "sra", Shape: ShapeRdRtShamt, Class: ClassR, Code: vm.FnSra, Size: 4},

	// R-type, {rd, rt, rs} (shift-variable order)
	"sllv": {Name: "sllv", Shape: ShapeRdRtRs, Class: ClassR, Code: vm.FnSllv, Size: 4},
	"srlv": {Name: "srlv", Shape: ShapeRdRtRs, Class: ClassR, Code: vm.FnSrlv, Size: 4},
	"srav": {Name: "srav", Shape: ShapeRdRtRs, Class: ClassR, Code: vm.FnSrav, Size: 4},

	// R-type, {rd only}
	"mfhi": {Name: "mfhi", Shape: ShapeRdOnly, Class: ClassR, Code: vm.FnMfhi, Size: 4},
	"mflo": {Name: "mflo", Shape: ShapeRdOnly, Class: ClassR, Code: vm.FnMflo, Size: 4},

	// R-type, {rs only}
	"mthi": {Name: "mthi", Shape: ShapeRsOnly, Class: ClassR, Code: vm.FnMthi, Size: 4},
	"mtlo": {Name: "mtlo", Shape: ShapeRsOnly, Class: ClassR, Code: vm.FnMtlo, Size: 4},
	"jr":   {Name: "jr", Shape: ShapeRsOnly, Class: ClassR, Code: vm.FnJr, Size: 4},

	// R-type, {rs, rt}
	"mult":  {Name: "mult", Shape: ShapeRsRt, Class: ClassR, Code: vm.FnMult, Size: 4},
	"multu": {Name: "multu", Shape: ShapeRsRt, Class: ClassR, Code: vm.FnMultu, Size: 4},
	"div":   {Name: "div", Shape: ShapeRsRt, Class: ClassR, Code: vm.FnDiv, Size: 4},
	"divu":  {Name: "divu", Shape: ShapeRsRt, Class: ClassR, Code: vm.FnDivu, Size: 4},

	// R-type, {rd, rs} (jalr is rd,rs)
	"jalr": {Name: "jalr", Shape: ShapeRdRsRt, Class: ClassR, Code: vm.FnJalr, Size: 4},

	// I-type, {rt, rs, imm}
	"addi":  {Name: "addi", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpAddi, Size: 4},
	"addiu": {Name: "addiu", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpAddiu, Size: 4},
	"slti":  {Name: "slti", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpSlti, Size: 4},
	"sltiu": {Name: "sltiu", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpSltiu, Size: 4},
	"andi":  {Name: "andi", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpAndi, Size: 4},
	"ori":   {Name: "ori", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpOri, Size: 4},
	"xori":  {Name: "xori", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpXori, Size: 4},
	"lb":    {Name: "lb", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpLb, Size: 4},
	"lbu":   {Name: "lbu", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpLbu, Size: 4},
	"lh":    {Name: "lh", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpLh, Size: 4},
	"lhu":   {Name: "lhu", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpLhu, Size: 4},
	"lw":    {Name: "lw", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpLw, Size: 4},
	"sb":    {Name: "sb", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpSb, Size: 4},
	"sh":    {Name: "sh", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpSh, Size: 4},
	"sw":    {Name: "sw", Shape: ShapeRtRsImm, Class: ClassI, Code: vm.OpSw, Size: 4},

	// I-type, {rt, imm}
	"lui": {Name: "lui", Shape: ShapeRtImm, Class: ClassI, Code: vm.OpLui, Size: 4},

	// I-type, {rs, rt, label} (branch)
	"beq": {Name: "beq", Shape: ShapeRsRtLabel, Class: ClassI, Code: vm.OpBeq, Size: 4},
	"bne": {Name: "bne", Shape: ShapeRsRtLabel, Class: ClassI, Code: vm.OpBne, Size: 4},

	// I-type, {rs, label} (one-register branch)
	"blez": {Name: "blez", Shape: ShapeRsRtLabel, Class: ClassI, Code: vm.OpBlez, Size: 4},
	"bgtz": {Name: "bgtz", Shape: ShapeRsRtLabel, Class: ClassI, Code: vm.OpBgtz, Size: 4},

	// J-type
	"j":   {Name: "j", Shape: ShapeLabelOnly, Class: ClassJ, Code: vm.OpJ, Size: 4},
	"jal": {Name: "jal", Shape: ShapeLabelOnly, Class: ClassJ, Code: vm.OpJal, Size: 4},

	// Syscall, no operands
	"syscall": {Name: "syscall", Shape: ShapeNone, Class: ClassSyscall, Code: 0, Size: 4},

	// CP0
	"mfc0": {Name: "mfc0", Shape: ShapeCP0RtRd, Class: ClassCP0, Code: vm.CP0Mf, Size: 4},
	"mtc0": {Name: "mtc0", Shape: ShapeCP0RtRd, Class: ClassCP0, Code: vm.CP0Mt, Size: 4},
	"eret": {Name: "eret", Shape: ShapeNone, Class: ClassCP0, Code: 0, Size: 4},

	// CP1 arithmetic, single precision {fd, fs, ft} / {fd, fs}
	"add.s":  {Name: "add.s", Shape: ShapeCP1FdFsFt, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, vm.FnFAdd), Size: 4},
	"sub.s":  {Name: "sub.s", Shape: ShapeCP1FdFsFt, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, vm.FnFSub), Size: 4},
	"mul.s":  {Name: "mul.s", Shape: ShapeCP1FdFsFt, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, vm.FnFMul), Size: 4},
	"div.s":  {Name: "div.s", Shape: ShapeCP1FdFsFt, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, vm.FnFDiv), Size: 4},
	"abs.s":  {Name: "abs.s", Shape: ShapeCP1FdFs, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, vm.FnFAbs), Size: 4},
	"neg.s":  {Name: "neg.s", Shape: ShapeCP1FdFs, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, vm.FnFNeg), Size: 4},
	"mov.s":  {Name: "mov.s", Shape: ShapeCP1FdFs, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, vm.FnFMov), Size: 4},
	"sqrt.s": {Name: "sqrt.s", Shape: ShapeCP1FdFs, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, vm.FnFSqrt), Size: 4},

	// CP1 arithmetic, double precision
	"add.d":  {Name: "add.d", Shape: ShapeCP1FdFsFt, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, vm.FnFAdd), Size: 4},
	"sub.d":  {Name: "sub.d", Shape: ShapeCP1FdFsFt, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, vm.FnFSub), Size: 4},
	"mul.d":  {Name: "mul.d", Shape: ShapeCP1FdFsFt, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, vm.FnFMul), Size: 4},
	"div.d":  {Name: "div.d", Shape: ShapeCP1FdFsFt, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, vm.FnFDiv), Size: 4},
	"abs.d":  {Name: "abs.d", Shape: ShapeCP1FdFs, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, vm.FnFAbs), Size: 4},
	"neg.d":  {Name: "neg.d", Shape: ShapeCP1FdFs, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, vm.FnFNeg), Size: 4},
	"mov.d":  {Name: "mov.d", Shape: ShapeCP1FdFs, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, vm.FnFMov), Size: 4},
	"sqrt.d": {Name: "sqrt.d", Shape: ShapeCP1FdFs, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, vm.FnFSqrt), Size: 4},

	// CP1 comparisons (condition flag 0 implied unless encoded by caller)
	"c.eq.s": {Name: "c.eq.s", Shape: ShapeCP1FsFtCond, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, 0x32), Size: 4},
	"c.lt.s": {Name: "c.lt.s", Shape: ShapeCP1FsFtCond, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, 0x3C), Size: 4},
	"c.le.s": {Name: "c.le.s", Shape: ShapeCP1FsFtCond, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtSingle, 0x3E), Size: 4},
	"c.eq.d": {Name: "c.eq.d", Shape: ShapeCP1FsFtCond, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, 0x32), Size: 4},
	"c.lt.d": {Name: "c.lt.d", Shape: ShapeCP1FsFtCond, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, 0x3C), Size: 4},
	"c.le.d": {Name: "c.le.d", Shape: ShapeCP1FsFtCond, Class: ClassCP1Reg, Code: packCP1(vm.CP1FmtDouble, 0x3E), Size: 4},

	// CP1 branch on condition flag
	"bc1t": {Name: "bc1t", Shape: ShapeCP1BranchLabel, Class: ClassCP1Branch, Code: 1, Size: 4},
	"bc1f": {Name: "bc1f", Shape: ShapeCP1BranchLabel, Class: ClassCP1Branch, Code: 0, Size: 4},

	// CP1 moves
	"mfc1": {Name: "mfc1", Shape: ShapeCP1RtFs, Class: ClassCP1Mov, Code: vm.CP1SubMfc1, Size: 4},
	"mtc1": {Name: "mtc1", Shape: ShapeCP1RtFs, Class: ClassCP1Mov, Code: vm.CP1SubMtc1, Size: 4},

	// CP1 memory
	"lwc1": {Name: "lwc1", Shape: ShapeCP1FtBaseOffset, Class: ClassCP1Mem, Code: vm.OpLwc1, Size: 4},
	"swc1": {Name: "swc1", Shape: ShapeCP1FtBaseOffset, Class: ClassCP1Mem, Code: vm.OpSwc1, Size: 4},
	"ldc1": {Name: "ldc1", Shape: ShapeCP1FtBaseOffset, Class: ClassCP1Mem, Code: vm.OpLdc1, Size: 4},
	"sdc1": {Name: "sdc1", Shape: ShapeCP1FtBaseOffset, Class: ClassCP1Mem, Code: vm.OpSdc1, Size: 4},
}

// REGIMM-shaped one-register branches (op==0x01, rt selects bltz/bgez);
// reached only through pseudo expansion (spec.md Design Notes, Open
// Question (b)), so they carry no direct instTable entry of their own.

func packCP1(fmt, funct uint32) uint32 { return fmt<<8 | funct }
func unpackCP1(code uint32) (fmt, funct uint32) { return code >> 8, code & 0xFF }

// Lookup returns the instruction table entry for a native mnemonic.
func Lookup(name string) (InstDef, bool) {
	d, ok := instTable[name]
	return d, ok
}

// IsNative reports whether name is a native (non-pseudo) mnemonic.
func IsNative(name string) bool {
	_, ok := instTable[name]
	return ok
}
