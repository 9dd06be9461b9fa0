package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordAlignment(t *testing.T) {
	m := NewMemory(false)

	m.SysWordTo(0x10010000, 0xDEADBEEF)
	got, err := m.WordAt(0x10010000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), got)

	err = m.WordTo(0x10010001, 0x1)
	assert.Error(t, err)
}

func TestMMIOSideEffects(t *testing.T) {
	m := NewMemory(false)

	assert.Error(t, m.ByteTo(MMIOBase+MMIOInputReady+3, 1))
	assert.Error(t, m.ByteTo(MMIOBase+MMIOInputData+3, 1))

	ok := m.PollInput('x')
	require.True(t, ok)
	assert.Equal(t, byte(1), m.ByteAt(MMIOBase+MMIOInputReady+3))
	got := m.ReadMMIOByte(MMIOBase + MMIOInputData + 3)
	assert.Equal(t, byte('x'), got)
	assert.Equal(t, byte(0), m.ByteAt(MMIOBase+MMIOInputReady+3))

	m.SetDisplayIdle()
	require.NoError(t, m.ByteTo(MMIOBase+MMIOOutputData+3, 'y'))
	assert.Equal(t, byte(0), m.ByteAt(MMIOBase+MMIOOutputReady+3))
	b, pending := m.OutputPending()
	require.True(t, pending)
	assert.Equal(t, byte('y'), b)
}

func TestMMIOSideEffectsWordAndHalf(t *testing.T) {
	m := NewMemory(false)

	// sw/sh into the read-only registers must be rejected, not silently
	// accepted.
	assert.Error(t, m.WordTo(MMIOBase+MMIOInputReady, 1))
	assert.Error(t, m.WordTo(MMIOBase+MMIOInputData, 1))
	assert.Error(t, m.WordTo(MMIOBase+MMIOOutputReady, 1))
	assert.Error(t, m.HalfTo(MMIOBase+MMIOInputReady+2, 1))
	assert.Error(t, m.HalfTo(MMIOBase+MMIOInputData+2, 1))
	assert.Error(t, m.HalfTo(MMIOBase+MMIOOutputReady+2, 1))

	// lw from input_data clears input_ready, same as a byte load does.
	ok := m.PollInput('z')
	require.True(t, ok)
	assert.Equal(t, byte(1), m.ByteAt(MMIOBase+MMIOInputReady+3))
	_, err := m.WordAt(MMIOBase + MMIOInputData)
	require.NoError(t, err)
	assert.Equal(t, byte(0), m.ByteAt(MMIOBase+MMIOInputReady+3))

	// lh from input_data clears input_ready too.
	ok = m.PollInput('q')
	require.True(t, ok)
	assert.Equal(t, byte(1), m.ByteAt(MMIOBase+MMIOInputReady+3))
	_, err = m.HalfAt(MMIOBase + MMIOInputData + 2)
	require.NoError(t, err)
	assert.Equal(t, byte(0), m.ByteAt(MMIOBase+MMIOInputReady+3))

	// sw into output_data clears output_ready and performs the store; the
	// byte-addressed output register is the word's last byte (+3), which
	// holds the word's low-order byte in big-endian order.
	m.SetDisplayIdle()
	require.NoError(t, m.WordTo(MMIOBase+MMIOOutputData, uint32('w')))
	assert.Equal(t, byte(0), m.ByteAt(MMIOBase+MMIOOutputReady+3))
	b, pending := m.OutputPending()
	require.True(t, pending)
	assert.Equal(t, byte('w'), b)
}
