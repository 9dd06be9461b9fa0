package loader

import (
	"testing"

	"github.com/matthew-pisano/masm-sub000/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerRoundTrip(t *testing.T) {
	layout := &vm.MemLayout{
		Sections: map[vm.MemSection][]byte{
			vm.Text: {0x01, 0x02, 0x03, 0x04},
			vm.Data: {0xAA, 0xBB, 0xCC},
		},
	}

	encoded := Save(layout)
	require.Equal(t, "MASM", string(encoded[:4]))

	decoded, err := Load(encoded)
	require.NoError(t, err)
	assert.Equal(t, layout.Sections[vm.Text], decoded.Sections[vm.Text])
	assert.Equal(t, layout.Sections[vm.Data], decoded.Sections[vm.Data])
	assert.Empty(t, decoded.Sections[vm.KText])
	assert.Empty(t, decoded.Sections[vm.KData])
}

func TestContainerRejectsBadMagic(t *testing.T) {
	_, err := Load([]byte("XXXX0000000000000000"))
	assert.Error(t, err)
}

func TestContainerMissingSectionsOmitted(t *testing.T) {
	layout := &vm.MemLayout{Sections: map[vm.MemSection][]byte{vm.Data: {0x01}}}
	encoded := Save(layout)
	decoded, err := Load(encoded)
	require.NoError(t, err)
	assert.Empty(t, decoded.Sections[vm.Text])
	assert.Equal(t, []byte{0x01}, decoded.Sections[vm.Data])
}
