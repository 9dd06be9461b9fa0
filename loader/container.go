// Package loader serializes an assembled vm.MemLayout to and from the
// on-disk object container format (spec.md 4.9), and pretty-prints the
// `.i` preprocessed-listing save-temps format (spec.md 6). Neither format
// has a teacher or example-repo analogue to ground against, so this file
// reaches for the standard library's encoding/binary directly rather than
// adopting a third-party serialization dependency nothing else in the
// pack exercises.
package loader

import (
	"encoding/binary"
	"fmt"

	"github.com/matthew-pisano/masm-sub000/vm"
)

var magic = [4]byte{'M', 'A', 'S', 'M'}

// containerSections fixes the header order and the section each offset
// slot names, per spec.md 4.9.
var containerSections = []vm.MemSection{vm.Text, vm.Data, vm.KText, vm.KData}

// Save serializes a MemLayout to the object container's binary layout:
// a 4-byte magic, four little-endian u32 header offsets (0 for an absent
// section), and at each offset a length-prefixed, 4-byte-padded section.
func Save(layout *vm.MemLayout) []byte {
	const headerLen = 4 + 4*4
	offsets := make([]uint32, len(containerSections))
	var body []byte
	cursor := uint32(headerLen)

	for i, sec := range containerSections {
		data := layout.Sections[sec]
		if len(data) == 0 {
			offsets[i] = 0
			continue
		}
		offsets[i] = cursor

		var hdr [4]byte
		binary.LittleEndian.PutUint32(hdr[:], uint32(len(data)))
		body = append(body, hdr[:]...)
		body = append(body, data...)
		pad := (4 - len(data)%4) % 4
		body = append(body, make([]byte, pad)...)
		cursor += 4 + uint32(len(data)) + uint32(pad)
	}

	out := make([]byte, 0, headerLen+len(body))
	out = append(out, magic[:]...)
	for _, off := range offsets {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], off)
		out = append(out, b[:]...)
	}
	out = append(out, body...)
	return out
}

// Load deserializes the object container format back into a MemLayout.
// Debug info is not preserved by the container format (spec.md 4.9 only
// describes section bytes), so a loaded layout always has an empty
// DebugInfo map.
func Load(data []byte) (*vm.MemLayout, error) {
	if len(data) < 4 || [4]byte{data[0], data[1], data[2], data[3]} != magic {
		return nil, fmt.Errorf("loader: bad magic, not a MASM object container")
	}
	const headerLen = 4 + 4*4
	if len(data) < headerLen {
		return nil, fmt.Errorf("loader: truncated container header")
	}

	sections := make(map[vm.MemSection][]byte)
	for i, sec := range containerSections {
		off := binary.LittleEndian.Uint32(data[4+4*i : 8+4*i])
		if off == 0 {
			continue
		}
		if int(off)+4 > len(data) {
			return nil, fmt.Errorf("loader: section header at offset %d past end of file", off)
		}
		length := binary.LittleEndian.Uint32(data[off : off+4])
		start := off + 4
		end := uint64(start) + uint64(length)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("loader: section %s body past end of file", sec)
		}
		sections[sec] = append([]byte(nil), data[start:end]...)
	}

	return &vm.MemLayout{Sections: sections, DebugInfo: make(map[uint32]vm.DebugInfo)}, nil
}
