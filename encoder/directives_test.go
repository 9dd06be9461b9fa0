package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeDirectiveWordAlignsAfterByte(t *testing.T) {
	bytes, pad, err := SizeDirective("word", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, pad)
	assert.Equal(t, 7, bytes)
}

func TestSizeAsciiCountsExpandedEscapes(t *testing.T) {
	n, _, err := SizeAscii(`Hi\n`, true)
	require.NoError(t, err)
	assert.Equal(t, 4, n) // "H", "i", "\n", NUL
}

func TestEncodeBytesRejectsOutOfRange(t *testing.T) {
	_, err := EncodeBytes([]Operand{Imm(256)})
	assert.Error(t, err)
}

func TestEncodeWordsResolvesLabels(t *testing.T) {
	resolve := func(name string) (uint32, bool) {
		if name == "x" {
			return 0x10010000, true
		}
		return 0, false
	}
	b, err := EncodeWords([]Operand{Label("x")}, 0, true, resolve)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x10}, b)
}

func TestEncodeFloatsRoundTripsThroughBits(t *testing.T) {
	b, err := EncodeFloats([]Operand{FloatImm(1.5)}, 0, true)
	require.NoError(t, err)
	require.Len(t, b, 4)
	assert.Equal(t, []byte{0x00, 0x00, 0xC0, 0x3F}, b) // 1.5 is 0x3FC00000, little-endian
}

func TestEncodeAsciiExpandsEscapes(t *testing.T) {
	b, err := EncodeAscii(`a\tb`, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("a\tb"), b)
}
