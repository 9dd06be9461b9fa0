// Package encoder validates operand shapes and emits the 32-bit
// instruction words (and directive bytes) that make up an assembled
// image, per spec.md 4.4/4.5. It knows nothing about lexing or token
// provenance; callers hand it already-parsed operands and get back bytes
// or an error.
package encoder

import "fmt"

// OperandKind classifies one operand slot.
type OperandKind int

const (
	KindReg OperandKind = iota
	KindImm
	KindLabel
	KindString
	// KindLabelHi/KindLabelLo carry a label resolved to the upper/lower 16
	// bits of its address, used only by la's lui/ori expansion.
	KindLabelHi
	KindLabelLo
)

// Operand is one decoded instruction argument.
type Operand struct {
	Kind  OperandKind
	Reg   uint32  // valid when Kind == KindReg
	Imm   int64   // valid when Kind == KindImm (integer directives/instructions)
	Float float64 // valid when Kind == KindImm and the operand came from a .float/.double literal
	Label string  // valid when Kind == KindLabel
	Str   string  // valid when Kind == KindString
}

func Reg(r uint32) Operand   { return Operand{Kind: KindReg, Reg: r} }
func Imm(v int64) Operand    { return Operand{Kind: KindImm, Imm: v, Float: float64(v)} }
func Label(l string) Operand { return Operand{Kind: KindLabel, Label: l} }

// FloatImm builds an Operand from a .float/.double literal, which may not
// round-trip exactly through Imm's int64 field.
func FloatImm(v float64) Operand { return Operand{Kind: KindImm, Imm: int64(v), Float: v} }

// Shape names the operand pattern a mnemonic accepts, matching spec.md
// 4.5's shape catalogue.
type Shape int

const (
	ShapeRdRsRt Shape = iota
	ShapeRdRtShamt
	ShapeRdOnly
	ShapeRsRt
	ShapeRdRtRs // shift-variable order: rd, rt, rs
	ShapeRsOnly
	ShapeRtRsImm
	ShapeRtImm
	ShapeRsRtLabel // branch: written rs, rt, label; bits are rs then rt
	ShapeLabelOnly
	ShapeNone
	ShapeCP0RtRd
	ShapeCP1FdFs
	ShapeCP1FdFsFt
	ShapeCP1FsFtCond
	ShapeCP1BranchLabel
	ShapeCP1RtFs
	ShapeCP1FtBaseOffset
)

// InstClass distinguishes which emitter a mnemonic's bits route through.
type InstClass int

const (
	ClassR InstClass = iota
	ClassI
	ClassJ
	ClassCP0
	ClassCP1Reg
	ClassCP1Mov
	ClassCP1Mem
	ClassCP1Branch
	ClassSyscall
	ClassPseudo
)

// InstDef is one row of the instruction table: the operand shape a
// mnemonic requires, which class of emitter handles it, its numeric
// opcode/funct, and its encoded size in bytes (4 for everything native;
// pseudo sizes vary per spec.md 4.3).
type InstDef struct {
	Name  string
	Shape Shape
	Class InstClass
	Code  uint32 // opcode, funct, or (for CP1) packed fields depending on class
	Size  int
}

func (d InstDef) validationError(got int) error {
	return fmt.Errorf("encoder: %q expects shape %d, got %d operands", d.Name, d.Shape, got)
}
