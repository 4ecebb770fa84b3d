package memory

import (
	"errors"
	"fmt"
)

const (
	// ROMStart is the first address of the program region.
	ROMStart uint16 = 0x8000

	// ResetVector holds the little-endian entry point read on reset.
	ResetVector uint16 = 0xFFFC

	// MaxProgramSize is the number of bytes between ROMStart and the top of memory.
	MaxProgramSize = 0x10000 - int(ROMStart)
)

// ErrProgramTooLarge is returned when a program does not fit in the ROM region.
var ErrProgramTooLarge = errors.New("program too large for ROM region")

// RAM is the flat 64 KiB address space seen by the CPU.
type RAM struct {
	data [0x10000]byte
}

// New creates a zeroed RAM.
func New() *RAM {
	return &RAM{}
}

// Read reads a byte from memory.
func (r *RAM) Read(addr uint16) byte {
	return r.data[addr]
}

// Write writes a byte to memory.
func (r *RAM) Write(addr uint16, data byte) {
	r.data[addr] = data
}

// Read16 reads a little-endian word. The high byte address wraps past 0xFFFF.
func (r *RAM) Read16(addr uint16) uint16 {
	lo := uint16(r.data[addr])
	hi := uint16(r.data[addr+1])
	return (hi << 8) | lo
}

// Write16 writes a little-endian word.
func (r *RAM) Write16(addr uint16, data uint16) {
	r.data[addr] = byte(data & 0xFF)
	r.data[addr+1] = byte(data >> 8)
}

// Block returns a copy of size bytes starting at addr, clipped at the top of memory.
func (r *RAM) Block(addr uint16, size uint16) []byte {
	end := int(addr) + int(size)
	if end > len(r.data) {
		end = len(r.data)
	}
	out := make([]byte, end-int(addr))
	copy(out, r.data[addr:end])
	return out
}

// LoadProgram copies program into the ROM region and points the reset
// vector at ROMStart.
func (r *RAM) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrProgramTooLarge, len(program), MaxProgramSize)
	}
	copy(r.data[ROMStart:], program)
	r.Write16(ResetVector, ROMStart)
	return nil
}
