package encoder

import "fmt"

// Resolver looks up a label's address; returns ok=false when undefined.
type Resolver func(name string) (uint32, bool)

func putWord(buf []byte, w uint32, littleEndian bool) []byte {
	b := []byte{byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w)}
	if littleEndian {
		b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	}
	return append(buf, b...)
}

// Encode emits the native instruction word(s) for one already-shape-matched
// instruction. loc is the address this instruction is assembled at (needed
// for branch/jump target math). Pseudo-instructions are expanded by
// ExpandPseudo before reaching here; Encode only ever sees native
// mnemonics.
func Encode(name string, ops []Operand, loc uint32, resolve Resolver, littleEndian bool) ([]byte, error) {
	def, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("encoder: unknown instruction %q", name)
	}

	var word uint32
	var err error

	switch def.Class {
	case ClassR:
		word, err = encodeR(def, ops)
	case ClassI:
		word, err = encodeI(def, ops, loc, resolve)
	case ClassJ:
		word, err = encodeJ(def, ops, resolve)
	case ClassSyscall:
		word = 0x0000000C
	case ClassCP0:
		word, err = encodeCP0(def, ops)
	case ClassCP1Reg:
		word, err = encodeCP1Reg(def, ops)
	case ClassCP1Mov:
		word, err = encodeCP1Mov(def, ops)
	case ClassCP1Mem:
		word, err = encodeCP1Mem(def, ops)
	case ClassCP1Branch:
		word, err = encodeCP1Branch(def, ops, loc, resolve)
	default:
		return nil, fmt.Errorf("encoder: %q has no native emitter", name)
	}
	if err != nil {
		return nil, err
	}
	return putWord(nil, word, littleEndian), nil
}

func reqRegs(ops []Operand, n int, name string) ([]uint32, error) {
	if len(ops) != n {
		return nil, fmt.Errorf("encoder: %q expects %d operands, got %d", name, n, len(ops))
	}
	regs := make([]uint32, n)
	for i, o := range ops {
		if o.Kind != KindReg {
			return nil, fmt.Errorf("encoder: %q operand %d must be a register", name, i)
		}
		regs[i] = o.Reg
	}
	return regs, nil
}

func encodeR(def InstDef, ops []Operand) (uint32, error) {
	var rs, rt, rd, shamt uint32
	switch def.Shape {
	case ShapeRdRsRt:
		if def.Name == "jalr" {
			regs, err := reqRegs(ops, 2, def.Name)
			if err != nil {
				return 0, err
			}
			rd, rs = regs[0], regs[1]
		} else {
			regs, err := reqRegs(ops, 3, def.Name)
			if err != nil {
				return 0, err
			}
			rd, rs, rt = regs[0], regs[1], regs[2]
		}
	case ShapeRdRtShamt:
		if len(ops) != 3 || ops[2].Kind != KindImm {
			return 0, fmt.Errorf("encoder: %q expects rd, rt, shamt", def.Name)
		}
		rd, rt = ops[0].Reg, ops[1].Reg
		shamt = uint32(ops[2].Imm)
	case ShapeRdRtRs:
		regs, err := reqRegs(ops, 3, def.Name)
		if err != nil {
			return 0, err
		}
		rd, rt, rs = regs[0], regs[1], regs[2]
	case ShapeRdOnly:
		regs, err := reqRegs(ops, 1, def.Name)
		if err != nil {
			return 0, err
		}
		rd = regs[0]
	case ShapeRsOnly:
		regs, err := reqRegs(ops, 1, def.Name)
		if err != nil {
			return 0, err
		}
		rs = regs[0]
	case ShapeRsRt:
		regs, err := reqRegs(ops, 2, def.Name)
		if err != nil {
			return 0, err
		}
		rs, rt = regs[0], regs[1]
	default:
		return 0, fmt.Errorf("encoder: %q has an unsupported R-type shape", def.Name)
	}
	return rs<<21 | rt<<16 | rd<<11 | shamt<<6 | def.Code, nil
}

func encodeI(def InstDef, ops []Operand, loc uint32, resolve Resolver) (uint32, error) {
	var rs, rt, imm uint32
	switch def.Shape {
	case ShapeRtRsImm:
		if len(ops) != 3 || ops[0].Kind != KindReg || ops[1].Kind != KindReg {
			return 0, fmt.Errorf("encoder: %q expects rt, rs, imm", def.Name)
		}
		rt, rs = ops[0].Reg, ops[1].Reg
		v, err := immValue(ops[2], resolve)
		if err != nil {
			return 0, err
		}
		imm = v
	case ShapeRtImm:
		if len(ops) != 2 || ops[0].Kind != KindReg {
			return 0, fmt.Errorf("encoder: %q expects rt, imm", def.Name)
		}
		rt = ops[0].Reg
		v, err := immValue(ops[1], resolve)
		if err != nil {
			return 0, err
		}
		imm = v
	case ShapeRsRtLabel:
		var target string
		if len(ops) == 3 {
			rs, rt = ops[0].Reg, ops[1].Reg
			target = ops[2].Label
		} else if len(ops) == 2 {
			rs = ops[0].Reg
			target = ops[1].Label
		} else {
			return 0, fmt.Errorf("encoder: %q has the wrong operand count", def.Name)
		}
		addr, ok := resolve(target)
		if !ok {
			return 0, fmt.Errorf("encoder: undefined label %q", target)
		}
		offset := int32(addr) - int32(loc) - 4
		if offset%4 != 0 {
			return 0, fmt.Errorf("encoder: branch target not word aligned")
		}
		rel := offset >> 2
		if rel < -32768 || rel > 32767 {
			return 0, fmt.Errorf("encoder: branch target out of range")
		}
		imm = uint32(rel) & 0xFFFF
	default:
		return 0, fmt.Errorf("encoder: %q has an unsupported I-type shape", def.Name)
	}
	return def.Code<<26 | rs<<21 | rt<<16 | imm, nil
}

func immValue(o Operand, resolve Resolver) (uint32, error) {
	switch o.Kind {
	case KindImm:
		return uint32(o.Imm) & 0xFFFF, nil
	case KindLabel:
		addr, ok := resolve(o.Label)
		if !ok {
			return 0, fmt.Errorf("encoder: undefined label %q", o.Label)
		}
		return addr & 0xFFFF, nil
	case KindLabelHi:
		addr, ok := resolve(o.Label)
		if !ok {
			return 0, fmt.Errorf("encoder: undefined label %q", o.Label)
		}
		return addr >> 16, nil
	case KindLabelLo:
		addr, ok := resolve(o.Label)
		if !ok {
			return 0, fmt.Errorf("encoder: undefined label %q", o.Label)
		}
		return addr & 0xFFFF, nil
	default:
		return 0, fmt.Errorf("encoder: expected an immediate or label operand")
	}
}

func encodeJ(def InstDef, ops []Operand, resolve Resolver) (uint32, error) {
	if len(ops) != 1 || ops[0].Kind != KindLabel {
		return 0, fmt.Errorf("encoder: %q expects a single label operand", def.Name)
	}
	addr, ok := resolve(ops[0].Label)
	if !ok {
		return 0, fmt.Errorf("encoder: undefined label %q", ops[0].Label)
	}
	return def.Code<<26 | (addr>>2)&0x3FFFFFF, nil
}

func encodeCP0(def InstDef, ops []Operand) (uint32, error) {
	if def.Name == "eret" {
		return 0x42000018, nil
	}
	if len(ops) != 2 || ops[0].Kind != KindReg || ops[1].Kind != KindReg {
		return 0, fmt.Errorf("encoder: %q expects rt, rd", def.Name)
	}
	rt, rd := ops[0].Reg, ops[1].Reg
	return 0x10<<26 | def.Code<<21 | rt<<16 | rd<<11, nil
}

func encodeCP1Reg(def InstDef, ops []Operand) (uint32, error) {
	fmtBits, funct := unpackCP1(def.Code)
	switch def.Shape {
	case ShapeCP1FdFsFt:
		if len(ops) != 3 {
			return 0, fmt.Errorf("encoder: %q expects fd, fs, ft", def.Name)
		}
		fd, fs, ft := ops[0].Reg, ops[1].Reg, ops[2].Reg
		return 0x11<<26 | fmtBits<<21 | ft<<16 | fs<<11 | fd<<6 | funct, nil
	case ShapeCP1FdFs:
		if len(ops) != 2 {
			return 0, fmt.Errorf("encoder: %q expects fd, fs", def.Name)
		}
		fd, fs := ops[0].Reg, ops[1].Reg
		return 0x11<<26 | fmtBits<<21 | fs<<11 | fd<<6 | funct, nil
	case ShapeCP1FsFtCond:
		if len(ops) != 2 {
			return 0, fmt.Errorf("encoder: %q expects fs, ft", def.Name)
		}
		fs, ft := ops[0].Reg, ops[1].Reg
		return 0x11<<26 | fmtBits<<21 | ft<<16 | fs<<11 | funct, nil
	default:
		return 0, fmt.Errorf("encoder: %q has an unsupported CP1 shape", def.Name)
	}
}

func encodeCP1Mov(def InstDef, ops []Operand) (uint32, error) {
	if len(ops) != 2 || ops[0].Kind != KindReg || ops[1].Kind != KindReg {
		return 0, fmt.Errorf("encoder: %q expects rt, fs", def.Name)
	}
	rt, fs := ops[0].Reg, ops[1].Reg
	return 0x11<<26 | def.Code<<21 | rt<<16 | fs<<11, nil
}

func encodeCP1Mem(def InstDef, ops []Operand) (uint32, error) {
	if len(ops) != 3 || ops[0].Kind != KindReg || ops[1].Kind != KindReg || ops[2].Kind != KindImm {
		return 0, fmt.Errorf("encoder: %q expects ft, base, offset", def.Name)
	}
	ft, base, offset := ops[0].Reg, ops[1].Reg, uint32(ops[2].Imm)&0xFFFF
	return def.Code<<26 | base<<21 | ft<<16 | offset, nil
}

func encodeCP1Branch(def InstDef, ops []Operand, loc uint32, resolve Resolver) (uint32, error) {
	if len(ops) != 1 || ops[0].Kind != KindLabel {
		return 0, fmt.Errorf("encoder: %q expects a label", def.Name)
	}
	addr, ok := resolve(ops[0].Label)
	if !ok {
		return 0, fmt.Errorf("encoder: undefined label %q", ops[0].Label)
	}
	offset := (int32(addr) - int32(loc) - 4) >> 2
	if offset < -32768 || offset > 32767 {
		return 0, fmt.Errorf("encoder: branch target out of range")
	}
	return 0x11<<26 | 0x08<<21 | def.Code<<16 | uint32(offset)&0xFFFF, nil
}
