package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matthew-pisano/masm-sub000/encoder"
)

// Grounded on the teacher's parser/lexer.go (single-pass rune scanner with
// per-character classification and incremental token accumulation), but
// re-derived against spec.md 4.1's exact classification rules: MIPS
// register ($) and macro-param (%) sigils, directive sub-classification
// by keyword set, hex-to-decimal immediate normalization, and the
// label-def colon that splits one physical line into two LineTokens.

var sectionDirectiveWords = map[string]bool{"data": true, "text": true, "kdata": true, "ktext": true}
var metaDirectiveWords = map[string]bool{"globl": true, "eqv": true, "macro": true, "end_macro": true, "include": true}

func classifyDirective(word string) TokenCategory {
	switch {
	case sectionDirectiveWords[word]:
		return SectionDirective
	case metaDirectiveWords[word]:
		return MetaDirective
	default:
		return AllocDirective
	}
}

func isKnownInstructionName(name string) bool {
	return encoder.IsNative(name) || encoder.IsPseudo(name)
}

func isIdentChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

func isTerminator(ch byte) bool {
	switch ch {
	case ',', '(', ')', ':', '#', ' ', '\t', '\r':
		return true
	}
	return false
}

// Tokenize lexes one source file's full text into LineTokens, one entry
// per (possibly colon-split) physical line.
func Tokenize(filename, text string) ([]LineTokens, error) {
	var out []LineTokens
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	for i, raw := range lines {
		lineno := i + 1
		toks, err := lexLine(filename, lineno, raw, &out)
		if err != nil {
			return nil, err
		}
		if len(toks.Tokens) > 0 {
			out = append(out, toks)
		}
	}
	return out, nil
}

// lexLine tokenizes one physical line. Because a ':' can split a physical
// line into multiple LineTokens entries (all sharing lineno), completed
// entries are appended directly to out and the final (possibly empty)
// trailing entry is returned for the caller to append.
func lexLine(filename string, lineno int, line string, out *[]LineTokens) (LineTokens, error) {
	cur := LineTokens{Filename: filename, Lineno: lineno}

	i := 0
	n := len(line)
	sawAnyChar := false

	for i < n {
		ch := line[i]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			i++
			continue

		case ch == '#':
			i = n // comment: discard rest of line

		case ch == ',':
			if !sawAnyChar && len(cur.Tokens) == 0 {
				return cur, NewSyntaxError(filename, lineno, "unexpected ',' at start of line")
			}
			cur.Tokens = append(cur.Tokens, Token{Category: Separator, Text: ","})
			i++

		case ch == '(':
			if !sawAnyChar && len(cur.Tokens) == 0 {
				return cur, NewSyntaxError(filename, lineno, "unexpected '(' at start of line")
			}
			cur.Tokens = append(cur.Tokens, Token{Category: OpenParen, Text: "("})
			i++

		case ch == ')':
			if !sawAnyChar && len(cur.Tokens) == 0 {
				return cur, NewSyntaxError(filename, lineno, "unexpected ')' at start of line")
			}
			cur.Tokens = append(cur.Tokens, Token{Category: CloseParen, Text: ")"})
			i++

		case ch == ':':
			if len(cur.Tokens) == 0 {
				return cur, NewSyntaxError(filename, lineno, "unexpected ':' at start of line")
			}
			last := len(cur.Tokens) - 1
			cur.Tokens[last].Category = LabelDef
			*out = append(*out, cur)
			cur = LineTokens{Filename: filename, Lineno: lineno}
			i++

		case ch == '"':
			j := i + 1
			for j < n && line[j] != '"' {
				if line[j] == '\\' && j+1 < n {
					j += 2
					continue
				}
				j++
			}
			if j >= n {
				return cur, NewSyntaxError(filename, lineno, "unmatched quote")
			}
			cur.Tokens = append(cur.Tokens, Token{Category: String, Text: line[i+1 : j]})
			i = j + 1

		case ch == '$':
			j := i + 1
			for j < n && isIdentChar(line[j]) {
				j++
			}
			cur.Tokens = append(cur.Tokens, Token{Category: Register, Text: line[i+1 : j]})
			i = j

		case ch == '%':
			j := i + 1
			for j < n && isIdentChar(line[j]) {
				j++
			}
			cur.Tokens = append(cur.Tokens, Token{Category: MacroParam, Text: line[i+1 : j]})
			i = j

		case ch == '.':
			j := i + 1
			for j < n && isIdentChar(line[j]) {
				j++
			}
			word := line[i+1 : j]
			cur.Tokens = append(cur.Tokens, Token{Category: classifyDirective(word), Text: word})
			i = j

		case ch == '-' || (ch >= '0' && ch <= '9'):
			j := i + 1
			for j < n && !isTerminator(line[j]) && line[j] != '"' {
				j++
			}
			text, err := normalizeImmediate(line[i:j])
			if err != nil {
				return cur, NewSyntaxError(filename, lineno, "%s", err.Error())
			}
			cur.Tokens = append(cur.Tokens, Token{Category: Immediate, Text: text})
			i = j

		case (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_':
			j := i + 1
			for j < n && isIdentChar(line[j]) {
				j++
			}
			word := line[i:j]
			cat := classifyBareIdent(cur, word)
			cur.Tokens = append(cur.Tokens, Token{Category: cat, Text: word})
			i = j

		default:
			return cur, NewSyntaxError(filename, lineno, "unexpected character %q", ch)
		}
		sawAnyChar = true
	}

	return cur, nil
}

// classifyBareIdent decides whether a letter-led token is Instruction or
// LabelRef, per spec.md 4.1: the first token on a line is tentatively an
// Instruction, demoted to LabelRef if unrecognized; every later token is a
// LabelRef, except the forced-Instruction third token of an .eqv line.
func classifyBareIdent(cur LineTokens, word string) TokenCategory {
	idx := len(cur.Tokens)
	if idx == 0 {
		if isKnownInstructionName(word) {
			return Instruction
		}
		return LabelRef
	}
	if idx == 2 {
		if first, ok := cur.First(); ok && first.Category == MetaDirective && first.Text == "eqv" {
			return Instruction
		}
	}
	return LabelRef
}

// normalizeImmediate converts a "0x..."-prefixed hex literal to decimal
// text so downstream code always sees base-10 text, per spec.md 4.1.
func normalizeImmediate(text string) (string, error) {
	neg := strings.HasPrefix(text, "-")
	body := text
	if neg {
		body = text[1:]
	}
	if len(body) > 2 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		v, err := strconv.ParseUint(body[2:], 16, 64)
		if err != nil {
			return "", err
		}
		if neg {
			return "-" + strconv.FormatUint(v, 10), nil
		}
		return strconv.FormatUint(v, 10), nil
	}
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return text, nil
	}
	// Not a plain integer: accept it only if it is a valid floating-point
	// literal (used by .float/.double operands), per spec.md 4.4.
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return "", fmt.Errorf("invalid immediate %q", text)
	}
	return text, nil
}
