package main

import (
	"io"
	"os"

	"golang.org/x/term"
)

// mmioInput is a non-blocking vm.InputSource backed by a background reader
// goroutine draining r into a buffered channel, so HasByte/NextByte never
// block the interpreter's per-step MMIO poll, per spec.md 6's "same stream
// pair, but one byte per MMIO poll" note.
type mmioInput struct {
	bytes chan byte
}

func newMMIOInput(r io.Reader) *mmioInput {
	in := &mmioInput{bytes: make(chan byte, 256)}
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				in.bytes <- buf[0]
			}
			if err != nil {
				close(in.bytes)
				return
			}
		}
	}()
	return in
}

// HasByte reports whether a byte is ready without consuming it.
func (in *mmioInput) HasByte() bool {
	return len(in.bytes) > 0
}

// NextByte consumes and returns the next byte; only called after HasByte
// returns true.
func (in *mmioInput) NextByte() byte {
	return <-in.bytes
}

// mmioOutput is a vm.OutputSink that writes each MMIO output byte straight
// to w as it is produced.
type mmioOutput struct {
	w io.Writer
}

func (out *mmioOutput) WriteByte(b byte) error {
	_, err := out.w.Write([]byte{b})
	return err
}

// enableRawStdin disables line discipline on stdin so individual keystrokes
// become visible to MMIO polling one at a time, rather than only after a
// newline, per spec.md 6: "line-discipline must be disabled by the caller
// so single keystrokes are observable." It is a no-op when stdin is not a
// terminal (e.g. piped input), returning a no-op restore func.
func enableRawStdin() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, err
	}
	return func() { _ = term.Restore(fd, state) }, nil
}
