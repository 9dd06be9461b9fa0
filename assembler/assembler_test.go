package assembler

import (
	"testing"

	"github.com/matthew-pisano/masm-sub000/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleSimpleProgram(t *testing.T) {
	src := `.text
.globl main
main:
addi $t0, $zero, 5
addi $t1, $zero, 3
mul $t2, $t0, $t1
li $v0, 10
syscall
`
	layout, labels, err := Assemble(map[string]string{"main.asm": src}, []string{"main.asm"}, Options{LittleEndian: true})
	require.NoError(t, err)

	main, ok := labels.Lookup("main")
	require.True(t, ok)
	assert.Equal(t, vm.TextBase, main)

	text := layout.Sections[vm.Text]
	// addi, addi, mult, mflo, li->addiu, syscall == 6 native words.
	assert.Equal(t, 6*4, len(text))
}

func TestAssembleDataSection(t *testing.T) {
	src := `.globl msg
.data
msg: .asciiz "Hi\n"
.text
la $a0, msg
`
	layout, labels, err := Assemble(map[string]string{"main.asm": src}, []string{"main.asm"}, Options{LittleEndian: true})
	require.NoError(t, err)

	msg, ok := labels.Lookup("msg")
	require.True(t, ok)
	assert.Equal(t, vm.DataBase, msg)

	data := layout.Sections[vm.Data]
	assert.Equal(t, []byte("Hi\n\x00"), data)
}

func TestAssembleUndefinedLabelErrors(t *testing.T) {
	_, _, err := Assemble(map[string]string{"a.asm": ".text\nj nowhere\n"}, []string{"a.asm"}, Options{LittleEndian: true})
	assert.Error(t, err)
}
