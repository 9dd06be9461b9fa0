package parser

import "fmt"

// Preprocess runs the five ordered passes spec.md 4.2 describes: base-
// addressing rewrite, include inlining, eqv substitution, macro expansion,
// then globl collection and file-scoped label mangling. Grounded on the
// teacher's parser/preprocessor.go (a multi-pass pipeline over
// []LineTokens) and parser/macros.go's macro table/substitution style.
//
// files holds every source file's already-tokenized lines, keyed by the
// name a `.include "name"` directive would reference them by. order fixes
// the file concatenation order (normally: the entry file first, in the
// order its own and transitively-included files were registered).
func Preprocess(files map[string][]LineTokens, order []string) ([]LineTokens, error) {
	rewritten := make(map[string][]LineTokens, len(files))
	for name, lines := range files {
		out := make([]LineTokens, 0, len(lines))
		for _, l := range lines {
			r, err := rewriteBaseAddressing(l)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		rewritten[name] = out
	}

	var combined []LineTokens
	for _, name := range order {
		combined = append(combined, rewritten[name]...)
	}

	combined, err := inlineIncludes(combined, rewritten)
	if err != nil {
		return nil, err
	}

	combined, err = substituteEqv(combined)
	if err != nil {
		return nil, err
	}

	combined, err = expandMacros(combined)
	if err != nil {
		return nil, err
	}

	return collectGlobals(combined)
}

// rewriteBaseAddressing replaces the MIPS base-addressing suffix
// `off($reg)` with `$reg, off`, per spec.md 4.2 step 1.
func rewriteBaseAddressing(l LineTokens) (LineTokens, error) {
	first, ok := l.First()
	if !ok || first.Category != Instruction {
		return l, nil
	}
	hasParen := false
	for _, t := range l.Tokens {
		if t.Category == OpenParen {
			hasParen = true
			break
		}
	}
	if !hasParen {
		return l, nil
	}

	n := len(l.Tokens)
	if n < 3 {
		return l, NewSyntaxError(l.Filename, l.Lineno, "malformed parenthesis expression")
	}
	if l.Tokens[n-1].Category != CloseParen || l.Tokens[n-2].Category != Register {
		return l, NewSyntaxError(l.Filename, l.Lineno, "malformed parenthesis expression")
	}

	reg := l.Tokens[n-2]
	var imm Token
	var head []Token
	switch {
	case n >= 4 && l.Tokens[n-3] == Token{Category: OpenParen, Text: "("} && l.Tokens[n-4].Category == Immediate:
		imm = l.Tokens[n-4]
		head = l.Tokens[:n-4]
	case l.Tokens[n-3].Category == OpenParen:
		imm = Token{Category: Immediate, Text: "0"}
		head = l.Tokens[:n-3]
	default:
		return l, NewSyntaxError(l.Filename, l.Lineno, "malformed parenthesis expression")
	}

	out := make([]Token, 0, len(head)+3)
	out = append(out, head...)
	out = append(out, reg, Token{Category: Separator, Text: ","}, imm)
	return LineTokens{Filename: l.Filename, Lineno: l.Lineno, Tokens: out}, nil
}

// inlineIncludes replaces `.include "name"` lines with the full token-line
// list registered under that name, per spec.md 4.2 step 2. Missing
// entries resolve to an empty list. Nested includes (an included file
// itself including another) are resolved by repeating the scan until no
// `.include` lines remain, bounded to guard against include cycles.
func inlineIncludes(lines []LineTokens, files map[string][]LineTokens) ([]LineTokens, error) {
	const maxPasses = 64
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		var out []LineTokens
		for _, l := range lines {
			name, isInclude, err := includeTarget(l)
			if err != nil {
				return nil, err
			}
			if !isInclude {
				out = append(out, l)
				continue
			}
			changed = true
			out = append(out, files[name]...)
		}
		lines = out
		if !changed {
			return lines, nil
		}
	}
	return nil, fmt.Errorf("parser: .include cycle detected (exceeded %d passes)", maxPasses)
}

func includeTarget(l LineTokens) (name string, ok bool, err error) {
	first, has := l.First()
	if !has || first.Category != MetaDirective || first.Text != "include" {
		return "", false, nil
	}
	if len(l.Tokens) != 2 || l.Tokens[1].Category != String {
		return "", false, NewSyntaxError(l.Filename, l.Lineno, "malformed .include directive")
	}
	return l.Tokens[1].Text, true, nil
}

// substituteEqv implements spec.md 4.2 step 3: an `.eqv NAME tok...`
// declaration is removed and recorded; every later LabelRef token matching
// NAME is replaced, in order, by the recorded token sequence. Substitution
// only ever sees the original tokens of a line once, so it is not
// recursive within a single pass; declarations only affect lines after
// their position.
func substituteEqv(lines []LineTokens) ([]LineTokens, error) {
	table := make(map[string][]Token)
	var out []LineTokens

	for _, l := range lines {
		first, ok := l.First()
		if ok && first.Category == MetaDirective && first.Text == "eqv" {
			if len(l.Tokens) < 3 {
				return nil, NewSyntaxError(l.Filename, l.Lineno, "malformed .eqv directive")
			}
			name := l.Tokens[1].Text
			table[name] = append([]Token(nil), l.Tokens[2:]...)
			continue
		}

		var toks []Token
		for _, t := range l.Tokens {
			if t.Category == LabelRef {
				if repl, found := table[t.Text]; found {
					toks = append(toks, repl...)
					continue
				}
			}
			toks = append(toks, t)
		}
		out = append(out, LineTokens{Filename: l.Filename, Lineno: l.Lineno, Tokens: toks})
	}
	return out, nil
}

// collectGlobals implements spec.md 4.2 step 5: collects every `.globl
// NAME` across all files, then appends `@<file-id>` to every LabelDef and
// LabelRef whose text was not declared global. Every globally declared
// name must end up with a matching (unmangled) definition somewhere.
func collectGlobals(lines []LineTokens) ([]LineTokens, error) {
	globals := make(map[string]bool)
	type globlDecl struct {
		name           string
		file           string
		line           int
	}
	var decls []globlDecl
	var kept []LineTokens

	for _, l := range lines {
		first, ok := l.First()
		if ok && first.Category == MetaDirective && first.Text == "globl" {
			if len(l.Tokens) != 2 {
				return nil, NewSyntaxError(l.Filename, l.Lineno, "malformed .globl directive")
			}
			name := l.Tokens[1].Text
			globals[name] = true
			decls = append(decls, globlDecl{name: name, file: l.Filename, line: l.Lineno})
			continue
		}
		kept = append(kept, l)
	}

	defined := make(map[string]bool)
	out := make([]LineTokens, 0, len(kept))
	for _, l := range kept {
		toks := make([]Token, len(l.Tokens))
		for i, t := range l.Tokens {
			toks[i] = t
			switch t.Category {
			case LabelDef:
				if globals[t.Text] {
					defined[t.Text] = true
				} else {
					toks[i].Text = t.Text + "@" + l.Filename
				}
			case LabelRef:
				if !globals[t.Text] {
					toks[i].Text = t.Text + "@" + l.Filename
				}
			}
		}
		out = append(out, LineTokens{Filename: l.Filename, Lineno: l.Lineno, Tokens: toks})
	}

	for _, d := range decls {
		if !defined[d.name] {
			return nil, NewSyntaxError(d.file, d.line, "undeclared global %q has no definition", d.name)
		}
	}
	return out, nil
}
