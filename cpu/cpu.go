package cpu

import (
	"errors"
	"fmt"

	"github.com/meadori/vibe6502/memory"
)

// Bus defines the interface for the CPU to interact with the bus.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, data byte)
}

// programLoader is implemented by buses that know how to install a program
// into their ROM region themselves.
type programLoader interface {
	LoadProgram(program []byte) error
}

// Flag is a bit of the processor status register.
type Flag byte

// Processor status flags.
const (
	C Flag = 1 << 0 // Carry
	Z Flag = 1 << 1 // Zero
	I Flag = 1 << 2 // Interrupt Disable
	D Flag = 1 << 3 // Decimal Mode
	B Flag = 1 << 4 // Break
	U Flag = 1 << 5 // Unused
	V Flag = 1 << 6 // Overflow
	N Flag = 1 << 7 // Negative
)

var (
	// ErrUnknownOpcode is wrapped by every OpcodeError.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrHalted is returned by Step once BRK has stopped the CPU.
	ErrHalted = errors.New("cpu halted")
)

// OpcodeError reports an opcode byte with no table entry.
type OpcodeError struct {
	Opcode byte
	Addr   uint16
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode $%02X at $%04X", e.Opcode, e.Addr)
}

func (e *OpcodeError) Unwrap() error {
	return ErrUnknownOpcode
}

// CPU represents the 6502 CPU.
type CPU struct {
	// Program Counter
	PC uint16

	// Accumulator
	A byte

	// Index Register X
	X byte

	// Index Register Y
	Y byte

	// Processor Status
	P byte

	// Nominal cycles of every instruction executed since reset.
	Cycles int

	bus Bus

	opcode byte
	halted bool

	// set by handlers that write PC themselves
	jumped bool
}

// New creates a CPU connected to its own 64 KiB of RAM.
func New() *CPU {
	return NewWithBus(memory.New())
}

// NewWithBus creates a CPU connected to bus.
func NewWithBus(bus Bus) *CPU {
	c := &CPU{}
	c.ConnectBus(bus)
	return c
}

// ConnectBus connects the CPU to the bus.
func (c *CPU) ConnectBus(bus Bus) {
	c.bus = bus
}

// Load installs program at $8000 and points the reset vector at it.
func (c *CPU) Load(program []byte) error {
	if l, ok := c.bus.(programLoader); ok {
		return l.LoadProgram(program)
	}
	if len(program) > memory.MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, limit %d", memory.ErrProgramTooLarge, len(program), memory.MaxProgramSize)
	}
	for i, b := range program {
		c.bus.Write(memory.ROMStart+uint16(i), b)
	}
	c.MemWrite16(memory.ResetVector, memory.ROMStart)
	return nil
}

// Reset resets the CPU to its initial state.
func (c *CPU) Reset() {
	c.A = 0
	c.X = 0
	c.P = 0
	c.PC = c.MemRead16(memory.ResetVector)

	c.Cycles = 0
	c.halted = false
}

// LoadAndRun loads program, resets and runs until BRK.
func (c *CPU) LoadAndRun(program []byte) error {
	if err := c.Load(program); err != nil {
		return err
	}
	c.Reset()
	return c.Run()
}

// Run executes instructions until the CPU halts or faults.
func (c *CPU) Run() error {
	for !c.halted {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes a single instruction.
func (c *CPU) Step() error {
	if c.halted {
		return ErrHalted
	}

	addr := c.PC
	c.opcode = c.bus.Read(c.PC)
	c.PC++

	op := &lookup[c.opcode]
	if op.execute == nil {
		c.PC = addr
		return &OpcodeError{Opcode: c.opcode, Addr: addr}
	}
	c.Cycles += op.Cycles

	c.jumped = false
	op.execute(c, op.Mode)
	if !c.jumped && !c.halted {
		c.PC += uint16(op.Length - 1)
	}
	return nil
}

// Halted reports whether BRK has stopped the CPU.
func (c *CPU) Halted() bool {
	return c.halted
}

// Flag reports whether f is set.
func (c *CPU) Flag(f Flag) bool {
	return c.P&byte(f) != 0
}

// MemRead reads a byte from the bus.
func (c *CPU) MemRead(addr uint16) byte {
	return c.bus.Read(addr)
}

// MemWrite writes a byte to the bus.
func (c *CPU) MemWrite(addr uint16, data byte) {
	c.bus.Write(addr, data)
}

// MemRead16 reads a little-endian word from the bus.
func (c *CPU) MemRead16(addr uint16) uint16 {
	lo := uint16(c.bus.Read(addr))
	hi := uint16(c.bus.Read(addr + 1))
	return (hi << 8) | lo
}

// MemWrite16 writes a little-endian word to the bus.
func (c *CPU) MemWrite16(addr uint16, data uint16) {
	c.bus.Write(addr, byte(data&0xFF))
	c.bus.Write(addr+1, byte(data>>8))
}

func (c *CPU) getFlag(f Flag) byte {
	if c.P&byte(f) != 0 {
		return 1
	}
	return 0
}

func (c *CPU) setFlag(f Flag, v bool) {
	if v {
		c.P |= byte(f)
	} else {
		c.P &^= byte(f)
	}
}

// setZN is the single rule for the Zero and Negative flags.
func (c *CPU) setZN(result byte) {
	c.setFlag(Z, result == 0)
	c.setFlag(N, result&0x80 != 0)
}
