package parser

import (
	"fmt"
	"strconv"

	"github.com/matthew-pisano/masm-sub000/encoder"
	"github.com/matthew-pisano/masm-sub000/vm"
)

// ParseOperands converts one instruction or directive line's trailing
// tokens (everything after the mnemonic/directive word) into encoder
// operands, splitting on Separator tokens. Register tokens are resolved
// by name via vm.RegisterIndex so the encoder never has to know about
// MIPS register mnemonics.
func ParseOperands(tokens []Token) ([]encoder.Operand, error) {
	groups := splitOperandTokens(tokens)
	ops := make([]encoder.Operand, 0, len(groups))
	for _, g := range groups {
		if len(g) != 1 {
			return nil, fmt.Errorf("expected a single operand, got %d tokens", len(g))
		}
		op, err := tokenToOperand(g[0])
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func tokenToOperand(t Token) (encoder.Operand, error) {
	switch t.Category {
	case Register:
		if len(t.Text) > 1 && t.Text[0] == 'f' {
			if n, err := strconv.ParseUint(t.Text[1:], 10, 32); err == nil {
				return encoder.Reg(uint32(n)), nil
			}
		}
		r, err := vm.RegisterIndex(t.Text)
		if err != nil {
			return encoder.Operand{}, err
		}
		return encoder.Reg(uint32(r)), nil
	case Immediate:
		if iv, err := strconv.ParseInt(t.Text, 10, 64); err == nil {
			return encoder.Imm(iv), nil
		}
		fv, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return encoder.Operand{}, fmt.Errorf("invalid immediate %q", t.Text)
		}
		return encoder.FloatImm(fv), nil
	case LabelRef:
		return encoder.Label(t.Text), nil
	case String:
		return encoder.Operand{Kind: encoder.KindString, Str: t.Text}, nil
	default:
		return encoder.Operand{}, fmt.Errorf("unexpected token %s as operand", t)
	}
}
