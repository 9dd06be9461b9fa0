package parser

import "fmt"

// macro holds one `.macro NAME(%p1, %p2, ...)` ... `.end_macro` definition.
type macro struct {
	name   string
	params []string
	body   []LineTokens
}

// expandMacros implements spec.md 4.2 step 4: `.macro`/`.end_macro` blocks
// are captured and removed; calls to a previously-defined macro are
// replaced in place by its body, with every in-body LabelDef/LabelRef
// local to the macro mangled by `@<macroname>_<call-position>` and every
// MacroParam substituted positionally by the call's arguments. Expansion
// is grounded on the teacher's parser/macros.go table-and-substitution
// approach.
//
// Nested calls to already-defined macros are expanded as the scan reaches
// them, since an expansion's output is spliced back into the stream at the
// cursor's position rather than appended after it.
func expandMacros(lines []LineTokens) ([]LineTokens, error) {
	table := make(map[string]*macro)
	var out []LineTokens
	callSeq := 0

	i := 0
	for i < len(lines) {
		l := lines[i]
		first, ok := l.First()

		if ok && first.Category == MetaDirective && first.Text == "macro" {
			m, next, err := captureMacroDef(lines, i)
			if err != nil {
				return nil, err
			}
			table[m.name] = m
			i = next
			continue
		}

		if ok && first.Category == MetaDirective && first.Text == "end_macro" {
			return nil, NewSyntaxError(l.Filename, l.Lineno, ".end_macro without matching .macro")
		}

		if ok && first.Category == LabelRef {
			if m, found := table[first.Text]; found {
				args, err := parseCallArgs(l)
				if err != nil {
					return nil, err
				}
				if len(args) != len(m.params) {
					return nil, NewSyntaxError(l.Filename, l.Lineno,
						"macro %q expects %d arguments, got %d", m.name, len(m.params), len(args))
				}
				expansion := instantiateMacro(m, args, callSeq)
				callSeq++
				lines = append(lines[:i], append(expansion, lines[i+1:]...)...)
				continue
			}
		}

		out = append(out, l)
		i++
	}
	return out, nil
}

// captureMacroDef parses a `.macro NAME(%p1, %p2)` header starting at
// lines[start] and collects body lines up to its `.end_macro`, returning
// the index of the line following `.end_macro`.
func captureMacroDef(lines []LineTokens, start int) (*macro, int, error) {
	header := lines[start]
	if len(header.Tokens) < 2 || header.Tokens[1].Category != LabelRef {
		return nil, 0, NewSyntaxError(header.Filename, header.Lineno, "malformed .macro header")
	}
	m := &macro{name: header.Tokens[1].Text}
	for _, t := range header.Tokens[2:] {
		if t.Category == MacroParam {
			m.params = append(m.params, t.Text)
		}
	}

	i := start + 1
	for i < len(lines) {
		first, ok := lines[i].First()
		if ok && first.Category == MetaDirective && first.Text == "end_macro" {
			return m, i + 1, nil
		}
		m.body = append(m.body, lines[i])
		i++
	}
	return nil, 0, NewSyntaxError(header.Filename, header.Lineno, "unterminated .macro %q", m.name)
}

// parseCallArgs splits a macro call line's tokens (after the name) into
// comma-separated argument token groups.
func parseCallArgs(l LineTokens) ([][]Token, error) {
	var args [][]Token
	var cur []Token
	for _, t := range l.Tokens[1:] {
		switch t.Category {
		case OpenParen, CloseParen:
			continue
		case Separator:
			args = append(args, cur)
			cur = nil
		default:
			cur = append(cur, t)
		}
	}
	if len(cur) > 0 || len(args) > 0 || len(l.Tokens) > 1 {
		args = append(args, cur)
	}
	// A call with zero arguments and no parens produces one empty group
	// above; drop it so callers see a true zero-length arg list.
	if len(args) == 1 && len(args[0]) == 0 {
		return nil, nil
	}
	return args, nil
}

// instantiateMacro copies a macro body, mangling local labels with
// `@<name>_<callSeq>` and substituting MacroParam tokens positionally from
// args.
func instantiateMacro(m *macro, args [][]Token, callSeq int) []LineTokens {
	local := make(map[string]bool)
	for _, l := range m.body {
		for _, t := range l.Tokens {
			if t.Category == LabelDef {
				local[t.Text] = true
			}
		}
	}
	suffix := fmt.Sprintf("@%s_%d", m.name, callSeq)

	paramIndex := make(map[string]int, len(m.params))
	for idx, p := range m.params {
		paramIndex[p] = idx
	}

	out := make([]LineTokens, 0, len(m.body))
	for _, l := range m.body {
		var toks []Token
		for _, t := range l.Tokens {
			switch {
			case t.Category == LabelDef:
				toks = append(toks, Token{Category: LabelDef, Text: t.Text + suffix})
			case t.Category == LabelRef && local[t.Text]:
				toks = append(toks, Token{Category: LabelRef, Text: t.Text + suffix})
			case t.Category == MacroParam:
				if idx, ok := paramIndex[t.Text]; ok && idx < len(args) {
					toks = append(toks, args[idx]...)
				}
			default:
				toks = append(toks, t)
			}
		}
		out = append(out, LineTokens{Filename: l.Filename, Lineno: l.Lineno, Tokens: toks})
	}
	return out
}
