package parser

import (
	"testing"

	"github.com/matthew-pisano/masm-sub000/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenizeAll(t *testing.T, src string) []LineTokens {
	t.Helper()
	lines, err := Tokenize("a.asm", src)
	require.NoError(t, err)
	return lines
}

func TestBuildLabelMapAssignsSequentialInstructionAddresses(t *testing.T) {
	lines := tokenizeAll(t, ".text\nstart:\naddi $t0, $zero, 1\naddi $t1, $zero, 2\n")
	lm, err := BuildLabelMap(lines)
	require.NoError(t, err)

	start, ok := lm.Lookup("start")
	require.True(t, ok)
	assert.Equal(t, vm.TextBase, start)
}

func TestBuildLabelMapWordAlignsDataAfterByte(t *testing.T) {
	lines := tokenizeAll(t, ".data\nb: .byte 1\nw: .word 7\n")
	lm, err := BuildLabelMap(lines)
	require.NoError(t, err)

	b, ok := lm.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, vm.DataBase, b)

	w, ok := lm.Lookup("w")
	require.True(t, ok)
	assert.Equal(t, vm.DataBase+4, w, "word must land on its 4-byte-aligned address, past the 3 padding bytes after the single .byte")
}

func TestBuildLabelMapDuplicateLabelErrors(t *testing.T) {
	lines := tokenizeAll(t, ".text\nfoo:\nnop\nfoo:\nnop\n")
	_, err := BuildLabelMap(lines)
	assert.Error(t, err)
}

func TestBuildLabelMapPseudoSizing(t *testing.T) {
	lines := tokenizeAll(t, ".text\na:\nla $a0, msg\nb:\nnop\n")
	lm, err := BuildLabelMap(lines)
	require.NoError(t, err)

	a, _ := lm.Lookup("a")
	b, _ := lm.Lookup("b")
	assert.Equal(t, uint32(8), b-a, "la must occupy two native words")
}

func TestBuildLabelMapReverseLookup(t *testing.T) {
	lines := tokenizeAll(t, ".text\nstart:\nnop\n")
	lm, err := BuildLabelMap(lines)
	require.NoError(t, err)

	name, ok := lm.Reverse(vm.TextBase)
	require.True(t, ok)
	assert.Equal(t, "start", name)
}
