package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matthew-pisano/masm-sub000/vm"
)

// listingSections fixes the pretty-printed section order, per spec.md 6.
var listingSections = []struct {
	sec    vm.MemSection
	header string
}{
	{vm.Text, ".text"},
	{vm.Data, ".data"},
	{vm.KText, ".ktext"},
	{vm.KData, ".kdata"},
}

// Listing renders the `.i` save-temps pretty-print of an assembled
// MemLayout: a header per non-empty section, then either the
// reconstructed instruction text (executable sections, one line per
// 4-byte aligned word, with a label preceding it on its own line) or
// `.byte 0xNN` lines (data sections), per spec.md 6.
func Listing(layout *vm.MemLayout) string {
	var sb strings.Builder
	for _, s := range listingSections {
		data := layout.Sections[s.sec]
		if len(data) == 0 {
			continue
		}
		sb.WriteString(s.header)
		sb.WriteString("\n")
		if isExecutable(s.sec) {
			writeExecutable(&sb, s.sec, data, layout.DebugInfo)
		} else {
			writeData(&sb, s.sec, data)
		}
	}
	return sb.String()
}

func isExecutable(sec vm.MemSection) bool {
	return sec == vm.Text || sec == vm.KText
}

func writeExecutable(sb *strings.Builder, sec vm.MemSection, data []byte, debug map[uint32]vm.DebugInfo) {
	base := vm.BaseOf(sec)
	for off := 0; off+4 <= len(data); off += 4 {
		addr := base + uint32(off)
		info, ok := debug[addr]
		if ok && info.Label != "" {
			fmt.Fprintf(sb, "%s:\n", info.Label)
		}
		if ok && info.Text != "" {
			fmt.Fprintf(sb, "\t%s\n", info.Text)
		} else {
			fmt.Fprintf(sb, "\t.word 0x%08X\n", wordAt(data, off))
		}
	}
}

func wordAt(data []byte, off int) uint32 {
	return uint32(data[off])<<24 | uint32(data[off+1])<<16 | uint32(data[off+2])<<8 | uint32(data[off+3])
}

func writeData(sb *strings.Builder, sec vm.MemSection, data []byte) {
	for _, b := range data {
		fmt.Fprintf(sb, "\t.byte 0x%02X\n", b)
	}
}

// sortedAddrs returns the debug-info addresses in ascending order rather
// than map iteration order. Nothing in the repository calls it.
func sortedAddrs(debug map[uint32]vm.DebugInfo) []uint32 {
	addrs := make([]uint32, 0, len(debug))
	for a := range debug {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
