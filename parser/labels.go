package parser

import (
	"fmt"
	"strconv"

	"github.com/matthew-pisano/masm-sub000/encoder"
	"github.com/matthew-pisano/masm-sub000/vm"
)

// LabelMap is the result of the first assembly pass, spec.md 4.3: every
// label resolved to its final address, plus the linear reverse lookup
// used by disassembly/trace output. Grounded on the teacher's
// parser/labels.go two-pass sizing walk, re-targeted at MIPS's four
// addressable sections (text/data/ktext/kdata) and this assembler's
// directive/instruction size tables.
type LabelMap struct {
	Addresses map[string]uint32
}

// Lookup resolves name to an address.
func (lm *LabelMap) Lookup(name string) (uint32, bool) {
	addr, ok := lm.Addresses[name]
	return addr, ok
}

// Reverse finds the label whose address matches addr exactly, scanning
// linearly, per spec.md 4.3's closing note.
func (lm *LabelMap) Reverse(addr uint32) (string, bool) {
	for name, a := range lm.Addresses {
		if a == addr {
			return name, true
		}
	}
	return "", false
}

func sectionFor(word string) (vm.MemSection, bool) {
	switch word {
	case "text":
		return vm.Text, true
	case "data":
		return vm.Data, true
	case "ktext":
		return vm.KText, true
	case "kdata":
		return vm.KData, true
	default:
		return 0, false
	}
}

// BuildLabelMap runs spec.md 4.3's first pass over fully preprocessed
// lines: it never emits bytes, only sizes each allocating line to compute
// where every label ultimately lands.
func BuildLabelMap(lines []LineTokens) (*LabelMap, error) {
	loc := map[vm.MemSection]uint32{
		vm.Text:  vm.BaseOf(vm.Text),
		vm.Data:  vm.BaseOf(vm.Data),
		vm.KText: vm.BaseOf(vm.KText),
		vm.KData: vm.BaseOf(vm.KData),
	}
	section := vm.Text

	addresses := make(map[string]uint32)
	pending := make(map[string]bool)
	var pendingOrder []string

	commit := func(addr uint32) {
		for _, name := range pendingOrder {
			addresses[name] = addr
		}
		pendingOrder = pendingOrder[:0]
		for k := range pending {
			delete(pending, k)
		}
	}

	for _, l := range lines {
		first, ok := l.First()
		if !ok {
			continue
		}

		switch first.Category {
		case LabelDef:
			name := first.Text
			if _, exists := addresses[name]; exists || pending[name] {
				return nil, NewSyntaxError(l.Filename, l.Lineno, "duplicate label %q", name)
			}
			pending[name] = true
			pendingOrder = append(pendingOrder, name)

		case SectionDirective:
			sec, ok := sectionFor(first.Text)
			if !ok {
				return nil, NewSyntaxError(l.Filename, l.Lineno, "unknown section directive %q", first.Text)
			}
			section = sec

		case AllocDirective:
			bytes, leadingPad, err := sizeAllocLine(first.Text, l, loc[section])
			if err != nil {
				return nil, NewSyntaxError(l.Filename, l.Lineno, "%s", err.Error())
			}
			commit(loc[section] + uint32(leadingPad))
			loc[section] += uint32(bytes)

		case Instruction:
			size, err := instructionSize(first.Text)
			if err != nil {
				return nil, NewSyntaxError(l.Filename, l.Lineno, "%s", err.Error())
			}
			commit(loc[section])
			loc[section] += uint32(size)

		case MetaDirective:
			return nil, NewSyntaxError(l.Filename, l.Lineno, "unexpected %q directive after preprocessing", first.Text)

		default:
			return nil, NewSyntaxError(l.Filename, l.Lineno, "line does not start with a label, directive, or instruction")
		}
	}

	commit(loc[section])
	return &LabelMap{Addresses: addresses}, nil
}

// instructionSize reports the encoded byte size of a native or
// pseudo-instruction mnemonic.
func instructionSize(name string) (int, error) {
	if def, ok := encoder.Lookup(name); ok {
		return def.Size, nil
	}
	if n, ok := encoder.PseudoSize(name); ok {
		return n, nil
	}
	return 0, fmt.Errorf("unknown instruction mnemonic %q", name)
}

// sizeAllocLine dispatches an AllocDirective line to the matching
// encoder.Size* function, counting operands without interpreting their
// values, per spec.md 4.3/4.4.
func sizeAllocLine(name string, l LineTokens, loc uint32) (bytes int, leadingPad int, err error) {
	operands := splitOperandTokens(l.Tokens[1:])

	switch name {
	case "align":
		n, err := operandAsUint(operands, 0)
		if err != nil {
			return 0, 0, err
		}
		return encoder.SizeAlign(n, loc)
	case "ascii", "asciiz":
		if len(operands) != 1 || len(operands[0]) != 1 || operands[0][0].Category != String {
			return 0, 0, encErr("%q expects a single string operand", name)
		}
		return encoder.SizeAscii(operands[0][0].Text, name == "asciiz")
	case "space":
		n, err := operandAsUint(operands, 0)
		if err != nil {
			return 0, 0, err
		}
		return encoder.SizeSpace(n)
	default:
		return encoder.SizeDirective(name, len(operands), loc)
	}
}

func splitOperandTokens(tokens []Token) [][]Token {
	var groups [][]Token
	var cur []Token
	for _, t := range tokens {
		if t.Category == Separator {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 || len(groups) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

func operandAsUint(operands [][]Token, idx int) (uint32, error) {
	if idx >= len(operands) || len(operands[idx]) != 1 || operands[idx][0].Category != Immediate {
		return 0, encErr("expected an immediate operand")
	}
	v, err := strconv.ParseInt(operands[idx][0].Text, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func encErr(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
