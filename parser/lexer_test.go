package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeInstructionLine(t *testing.T) {
	lines, err := Tokenize("a.asm", "addi $t0, $zero, 5\n")
	require.NoError(t, err)
	require.Len(t, lines, 1)

	toks := lines[0].Tokens
	require.Len(t, toks, 5)
	assert.Equal(t, Instruction, toks[0].Category)
	assert.Equal(t, "addi", toks[0].Text)
	assert.Equal(t, Register, toks[1].Category)
	assert.Equal(t, "t0", toks[1].Text)
	assert.Equal(t, Separator, toks[2].Category)
	assert.Equal(t, Register, toks[3].Category)
	assert.Equal(t, "zero", toks[3].Text)
	assert.Equal(t, Immediate, toks[4].Category)
	assert.Equal(t, "5", toks[4].Text)
}

func TestTokenizeHexImmediateNormalizesToDecimal(t *testing.T) {
	lines, err := Tokenize("a.asm", "li $t0, 0x10\n")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	imm := lines[0].Tokens[3]
	assert.Equal(t, Immediate, imm.Category)
	assert.Equal(t, "16", imm.Text)
}

func TestTokenizeLabelDefSplitsLine(t *testing.T) {
	lines, err := Tokenize("a.asm", "loop: addi $t0, $t0, 1\n")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, LabelDef, lines[0].Tokens[0].Category)
	assert.Equal(t, "loop", lines[0].Tokens[0].Text)
	assert.Equal(t, Instruction, lines[1].Tokens[0].Category)
}

func TestTokenizeCommentAndBlankLinesAreDropped(t *testing.T) {
	lines, err := Tokenize("a.asm", "# just a comment\n\nnop\n")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "nop", lines[0].Tokens[0].Text)
}

func TestTokenizeUnknownBareWordIsLabelRef(t *testing.T) {
	lines, err := Tokenize("a.asm", "j somewhere\n")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, Instruction, lines[0].Tokens[0].Category)
	assert.Equal(t, LabelRef, lines[0].Tokens[1].Category)
}

func TestTokenizeDirectiveClassification(t *testing.T) {
	lines, err := Tokenize("a.asm", ".text\n.word 1, 2\n.globl main\n")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, SectionDirective, lines[0].Tokens[0].Category)
	assert.Equal(t, AllocDirective, lines[1].Tokens[0].Category)
	assert.Equal(t, MetaDirective, lines[2].Tokens[0].Category)
}

func TestTokenizeUnmatchedQuoteErrors(t *testing.T) {
	_, err := Tokenize("a.asm", `.ascii "oops`+"\n")
	assert.Error(t, err)
}

func TestTokenizeLeadingSeparatorErrors(t *testing.T) {
	_, err := Tokenize("a.asm", ", addi\n")
	assert.Error(t, err)
}

func TestTokenizeFloatImmediateAccepted(t *testing.T) {
	lines, err := Tokenize("a.asm", ".float 3.14\n")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, Immediate, lines[0].Tokens[1].Category)
	assert.Equal(t, "3.14", lines[0].Tokens[1].Text)
}
