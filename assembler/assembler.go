// Package assembler orchestrates the parser and encoder packages into the
// second assembly pass spec.md 4.3-4.5 describes: given fully
// preprocessed lines and their resolved LabelMap, it walks the lines once
// more, this time actually emitting bytes, and returns a vm.MemLayout
// ready for State.Load. Grounded on the teacher's loader/loader.go, which
// plays the same role of turning parsed instructions into an
// executable image.
package assembler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matthew-pisano/masm-sub000/encoder"
	"github.com/matthew-pisano/masm-sub000/parser"
	"github.com/matthew-pisano/masm-sub000/vm"
)

// Options configures the emission pass.
type Options struct {
	LittleEndian bool
}

// Assemble tokenizes, preprocesses, resolves labels, and emits a full
// program image from a set of named source files. files maps each
// filename to its raw text; order fixes concatenation order the way
// parser.Preprocess expects.
func Assemble(files map[string]string, order []string, opts Options) (*vm.MemLayout, *parser.LabelMap, error) {
	tokenized := make(map[string][]parser.LineTokens, len(files))
	for name, text := range files {
		lines, err := parser.Tokenize(name, text)
		if err != nil {
			return nil, nil, err
		}
		tokenized[name] = lines
	}

	lines, err := parser.Preprocess(tokenized, order)
	if err != nil {
		return nil, nil, err
	}

	labels, err := parser.BuildLabelMap(lines)
	if err != nil {
		return nil, nil, err
	}

	layout, err := emit(lines, labels, opts)
	if err != nil {
		return nil, nil, err
	}
	return layout, labels, nil
}

// emit is the second assembly pass: it re-walks the same preprocessed
// lines BuildLabelMap sized, this time calling the encoder to produce
// real bytes, now that every label has a final address.
func emit(lines []parser.LineTokens, labels *parser.LabelMap, opts Options) (*vm.MemLayout, error) {
	sections := map[vm.MemSection][]byte{
		vm.Text:  {},
		vm.Data:  {},
		vm.KText: {},
		vm.KData: {},
	}
	loc := map[vm.MemSection]uint32{
		vm.Text:  vm.BaseOf(vm.Text),
		vm.Data:  vm.BaseOf(vm.Data),
		vm.KText: vm.BaseOf(vm.KText),
		vm.KData: vm.BaseOf(vm.KData),
	}
	debugInfo := make(map[uint32]vm.DebugInfo)
	section := vm.Text
	resolve := labels.Lookup

	var pendingLabel string

	append4 := func(sec vm.MemSection, b []byte) {
		sections[sec] = append(sections[sec], b...)
		loc[sec] += uint32(len(b))
	}

	for _, l := range lines {
		first, ok := l.First()
		if !ok {
			continue
		}

		switch first.Category {
		case parser.LabelDef:
			pendingLabel = first.Text

		case parser.SectionDirective:
			sec, secOK := sectionForEmit(first.Text)
			if !secOK {
				return nil, parser.NewSyntaxError(l.Filename, l.Lineno, "unknown section directive %q", first.Text)
			}
			section = sec

		case parser.AllocDirective:
			b, err := encodeAllocLine(first.Text, l, loc[section], opts.LittleEndian, resolve)
			if err != nil {
				return nil, parser.NewSyntaxError(l.Filename, l.Lineno, "%s", err.Error())
			}
			if pendingLabel != "" {
				pad, err := allocLeadingPad(first.Text, l, loc[section])
				if err != nil {
					return nil, parser.NewSyntaxError(l.Filename, l.Lineno, "%s", err.Error())
				}
				debugInfo[loc[section]+uint32(pad)] = vm.DebugInfo{
					Loc:   vm.SourceLocator{File: l.Filename, Line: l.Lineno},
					Label: pendingLabel,
				}
				pendingLabel = ""
			}
			append4(section, b)

		case parser.Instruction:
			name := first.Text
			ops, err := parser.ParseOperands(l.Tokens[1:])
			if err != nil {
				return nil, parser.NewSyntaxError(l.Filename, l.Lineno, "%s", err.Error())
			}
			insts, err := nativeSequence(name, ops)
			if err != nil {
				return nil, parser.NewSyntaxError(l.Filename, l.Lineno, "%s", err.Error())
			}
			for idx, inst := range insts {
				word, err := encoder.Encode(inst.Name, inst.Ops, loc[section], resolve, opts.LittleEndian)
				if err != nil {
					return nil, parser.NewSyntaxError(l.Filename, l.Lineno, "%s", err.Error())
				}
				info := vm.DebugInfo{
					Loc:  vm.SourceLocator{File: l.Filename, Line: l.Lineno},
					Text: renderNativeInst(inst),
				}
				if idx == 0 {
					info.Label = pendingLabel
				}
				debugInfo[loc[section]] = info
				append4(section, word)
			}
			pendingLabel = ""

		default:
			return nil, parser.NewSyntaxError(l.Filename, l.Lineno, "line does not start with a label, directive, or instruction")
		}
	}

	return &vm.MemLayout{Sections: sections, DebugInfo: debugInfo}, nil
}

func sectionForEmit(word string) (vm.MemSection, bool) {
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

// nativeSequence expands a pseudo-instruction into its native form, or
// wraps a native mnemonic as a single-element sequence.
func nativeSequence(name string, ops []encoder.Operand) ([]encoder.NativeInst, error) {
	if encoder.IsNative(name) {
		return []encoder.NativeInst{{Name: name, Ops: ops}}, nil
	}
	return encoder.ExpandPseudo(name, ops)
}

// allocLeadingPad reports how many alignment-padding bytes precede an
// allocation directive's real datum at loc, so a label attached to the
// directive gets debug info pointing at the datum rather than the pad,
// mirroring BuildLabelMap's identical commit-point rule (spec.md 4.3).
func allocLeadingPad(name string, l parser.LineTokens, loc uint32) (int, error) {
	ops, err := parser.ParseOperands(l.Tokens[1:])
	if err != nil {
		return 0, err
	}
	switch name {
	case "half":
		return encoder.PadNeeded(loc, 2), nil
	case "word", "float":
		return encoder.PadNeeded(loc, 4), nil
	case "double":
		return encoder.PadNeeded(loc, 8), nil
	case "align":
		if len(ops) != 1 || ops[0].Kind != encoder.KindImm {
			return 0, errInvalidDirective(name)
		}
		return encoder.PadNeeded(loc, 1<<uint(ops[0].Imm)), nil
	default:
		return 0, nil
	}
}

func encodeAllocLine(name string, l parser.LineTokens, loc uint32, littleEndian bool, resolve encoder.Resolver) ([]byte, error) {
	ops, err := parser.ParseOperands(l.Tokens[1:])
	if err != nil {
		return nil, err
	}

	switch name {
	case "align":
		if len(ops) != 1 || ops[0].Kind != encoder.KindImm {
			return nil, errInvalidDirective(name)
		}
		return encoder.EncodeAlign(uint32(ops[0].Imm), loc)
	case "ascii", "asciiz":
		if len(ops) != 1 || ops[0].Kind != encoder.KindString {
			return nil, errInvalidDirective(name)
		}
		return encoder.EncodeAscii(ops[0].Str, name == "asciiz")
	case "byte":
		return encoder.EncodeBytes(ops)
	case "half":
		return encoder.EncodeHalves(ops, loc, littleEndian)
	case "word":
		return encoder.EncodeWords(ops, loc, littleEndian, resolve)
	case "float":
		return encoder.EncodeFloats(ops, loc, littleEndian)
	case "double":
		return encoder.EncodeDoubles(ops, loc, littleEndian)
	case "space":
		if len(ops) != 1 || ops[0].Kind != encoder.KindImm {
			return nil, errInvalidDirective(name)
		}
		return encoder.EncodeSpace(uint32(ops[0].Imm)), nil
	default:
		return nil, errUnknownDirective(name)
	}
}

func errInvalidDirective(name string) error {
	return fmt.Errorf("assembler: malformed %q directive operands", name)
}

func errUnknownDirective(name string) error {
	return fmt.Errorf("assembler: unknown directive %q", name)
}

// renderNativeInst reconstructs one native instruction's assembly text for
// the `.i` listing's executable-section lines (spec.md 6), since a pseudo
// may expand to several native words that never existed as their own
// source line.
func renderNativeInst(inst encoder.NativeInst) string {
	var sb strings.Builder
	sb.WriteString(inst.Name)
	for i, op := range inst.Ops {
		if i == 0 {
			sb.WriteString(" ")
		} else {
			sb.WriteString(", ")
		}
		switch op.Kind {
		case encoder.KindReg:
			sb.WriteString("$" + vm.Register(int(op.Reg)).String())
		case encoder.KindLabel, encoder.KindLabelHi, encoder.KindLabelLo:
			sb.WriteString(op.Label)
		default:
			sb.WriteString(strconv.FormatInt(op.Imm, 10))
		}
	}
	return sb.String()
}
