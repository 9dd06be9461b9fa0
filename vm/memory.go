package vm

import "fmt"

// Memory is a sparse 32-bit addressable byte store. Unallocated addresses
// read as zero. A single endianness flag governs how multi-byte values are
// assembled from and split into individual bytes; it has no bearing on the
// object container's own fixed wire format.
type Memory struct {
	bytes        map[uint32]byte
	littleEndian bool

	inputReady  bool
	inputData   byte
	outputReady bool
	outputData  byte
}

// NewMemory constructs an empty memory with the given endianness. The
// display's output_ready bit reads as 0 (data pending) until
// SetDisplayIdle is called, which State.Init does during initialization.
func NewMemory(littleEndian bool) *Memory {
	return &Memory{bytes: make(map[uint32]byte), littleEndian: littleEndian}
}

func (m *Memory) LittleEndian() bool { return m.littleEndian }

// ByteAt reads a single byte, applying no alignment or MMIO semantics.
func (m *Memory) ByteAt(addr uint32) byte { return m.bytes[addr] }

// Allocated reports whether any byte has ever been stored at addr; used by
// the interpreter's "fell off the end" / KText-handler-installed checks.
func (m *Memory) Allocated(addr uint32) bool {
	_, ok := m.bytes[addr]
	return ok
}

// SysByteTo is the privileged variant used by the loader/interpreter to
// populate memory without tripping MMIO write protections.
func (m *Memory) SysByteTo(addr uint32, v byte) { m.bytes[addr] = v }

// ByteTo writes a single user-visible byte, honoring MMIO write
// protections where the address falls in the MMIO region.
func (m *Memory) ByteTo(addr uint32, v byte) error {
	if ok, err := m.handleMMIOWrite(addr); ok {
		return err
	}
	m.bytes[addr] = v
	return nil
}

func (m *Memory) order(buf []byte) []byte {
	if !m.littleEndian {
		return buf
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[len(buf)-1-i] = b
	}
	return out
}

func (m *Memory) readN(addr uint32, n int) []byte {
	raw := make([]byte, n)
	for i := 0; i < n; i++ {
		raw[i] = m.bytes[addr+uint32(i)]
	}
	return m.order(raw)
}

func (m *Memory) writeN(addr uint32, v []byte) {
	ordered := m.order(v)
	for i, b := range ordered {
		m.bytes[addr+uint32(i)] = b
	}
}

// HalfAt reads a 2-byte value; addr must be 2-aligned. Reading the
// MMIO input_data half clears input_ready the same way ReadMMIOByte does.
func (m *Memory) HalfAt(addr uint32) (uint16, error) {
	if addr%2 != 0 {
		return 0, newAddressException(CauseAddressLoad, addr)
	}
	m.readMMIOSideEffect(addr)
	raw := m.readN(addr, 2)
	return uint16(raw[0])<<8 | uint16(raw[1]), nil
}

// HalfTo writes a 2-byte value; addr must be 2-aligned, honoring the same
// MMIO write protections as ByteTo.
func (m *Memory) HalfTo(addr uint32, v uint16) error {
	if addr%2 != 0 {
		return newAddressException(CauseAddressStore, addr)
	}
	if ok, err := m.handleMMIOWrite(addr); ok {
		return err
	}
	m.writeN(addr, []byte{byte(v >> 8), byte(v)})
	return nil
}

// WordAt reads a 4-byte value; addr must be 4-aligned. Reading the MMIO
// input_data word clears input_ready the same way ReadMMIOByte does.
func (m *Memory) WordAt(addr uint32) (uint32, error) {
	if addr%4 != 0 {
		return 0, newAddressException(CauseAddressLoad, addr)
	}
	m.readMMIOSideEffect(addr)
	return m.sysWordAt(addr), nil
}

// WordTo writes a 4-byte value; addr must be 4-aligned, honoring the same
// MMIO write protections as ByteTo.
func (m *Memory) WordTo(addr uint32, v uint32) error {
	if addr%4 != 0 {
		return newAddressException(CauseAddressStore, addr)
	}
	if ok, err := m.handleMMIOWrite(addr); ok {
		return err
	}
	m.SysWordTo(addr, v)
	return nil
}

// SysWordAt/SysWordTo are unchecked, unprivileged-free accessors for the
// loader, interpreter bootstrap, and debugger use.
func (m *Memory) sysWordAt(addr uint32) uint32 {
	raw := m.readN(addr, 4)
	return uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
}

func (m *Memory) SysWordAt(addr uint32) uint32 { return m.sysWordAt(addr) }

func (m *Memory) SysWordTo(addr uint32, v uint32) {
	m.writeN(addr, []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func newAddressException(cause uint32, addr uint32) error {
	return &ExecExcept{Cause: cause, Msg: fmt.Sprintf("misaligned access at 0x%08X", addr)}
}

// handleMMIOWrite rejects program writes to the read-only MMIO status/input
// registers and tracks the output ready-bit toggling described in spec.md
// 4.6, for any write (byte, half, or word) that starts at addr. It returns
// ok=true when the write must not fall through to a raw store (the reject
// cases); for an accepted write into output_data it still returns ok=false
// so the caller performs the actual store, after the ready bit is cleared.
func (m *Memory) handleMMIOWrite(addr uint32) (ok bool, err error) {
	if addr < MMIOBase {
		return false, nil
	}
	offset := addr - MMIOBase
	switch {
	case offset >= MMIOInputReady && offset < MMIOInputReady+4:
		return true, fmt.Errorf("vm: program may not write input_ready")
	case offset >= MMIOInputData && offset < MMIOInputData+4:
		return true, fmt.Errorf("vm: program may not write input_data")
	case offset >= MMIOOutputReady && offset < MMIOOutputReady+4:
		return true, fmt.Errorf("vm: program may not write output_ready")
	case offset >= MMIOOutputData && offset < MMIOOutputData+4:
		m.setOutputReady(false)
		return false, nil
	}
	return false, nil
}

// readMMIOSideEffect clears input_ready when a read (byte, half, or word)
// starts within the input_data register, per spec.md 4.6.
func (m *Memory) readMMIOSideEffect(addr uint32) {
	if addr < MMIOBase {
		return
	}
	offset := addr - MMIOBase
	if offset >= MMIOInputData && offset < MMIOInputData+4 {
		m.setInputReady(false)
	}
}

// ReadMMIOByte is the program-visible read path: reading any byte of
// input_data clears input_ready, per spec.md 4.6.
func (m *Memory) ReadMMIOByte(addr uint32) byte {
	m.readMMIOSideEffect(addr)
	return m.bytes[addr]
}

func (m *Memory) setInputReadyByte(b byte)  { m.bytes[MMIOBase+MMIOInputReady+3] = b }
func (m *Memory) setOutputReadyByte(b byte) { m.bytes[MMIOBase+MMIOOutputReady+3] = b }

func (m *Memory) setInputReady(ready bool) {
	m.inputReady = ready
	if ready {
		m.setInputReadyByte(1)
	} else {
		m.setInputReadyByte(0)
	}
}

func (m *Memory) setOutputReady(ready bool) {
	m.outputReady = ready
	if ready {
		m.setOutputReadyByte(1)
	} else {
		m.setOutputReadyByte(0)
	}
}

// PollInput stages one byte of external input for the program to observe,
// if none is already pending.
func (m *Memory) PollInput(b byte) (delivered bool) {
	if m.bytes[MMIOBase+MMIOInputReady+3] != 0 {
		return false
	}
	m.bytes[MMIOBase+MMIOInputData+3] = b
	m.setInputReady(true)
	return true
}

// OutputPending reports whether the program has staged a byte of output
// (output_ready == 0 means data pending, per spec.md 4.6) and, if so,
// returns it and clears the pending state from the polling side.
func (m *Memory) OutputPending() (b byte, pending bool) {
	if m.bytes[MMIOBase+MMIOOutputReady+3] != 0 {
		return 0, false
	}
	b = m.bytes[MMIOBase+MMIOOutputData+3]
	m.setOutputReady(true)
	return b, true
}

// SetDisplayIdle marks the MMIO display as idle (ready to accept output),
// used during interpreter initialization.
func (m *Memory) SetDisplayIdle() { m.setOutputReady(true) }
