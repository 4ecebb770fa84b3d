package machine

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/meadori/vibe6502/cpu"
	"github.com/meadori/vibe6502/memory"
)

// Machine owns one CPU and its memory. All access goes through the mutex so
// a debugger can inspect the CPU while Run drives it from another goroutine.
type Machine struct {
	mu     sync.Mutex
	cpu    *cpu.CPU
	ram    *memory.RAM
	paused bool
	fault  error

	logger *log.Logger
	trace  func(string)

	wake chan struct{}
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for halt and fault events.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithTrace installs a sink that receives one trace line per executed
// instruction. It is called with the machine locked and must not block.
func WithTrace(fn func(string)) Option {
	return func(m *Machine) {
		m.trace = fn
	}
}

// New creates a paused machine with zeroed memory.
func New(opts ...Option) *Machine {
	ram := memory.New()
	m := &Machine{
		cpu:    cpu.NewWithBus(ram),
		ram:    ram,
		paused: true,
		logger: log.Default(),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadProgram installs program in ROM and resets the CPU.
func (m *Machine) LoadProgram(program []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.cpu.Load(program); err != nil {
		return err
	}
	m.resetLocked()
	return nil
}

// Reset pulls the reset line.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Machine) resetLocked() {
	m.cpu.Reset()
	m.fault = nil
	m.notify()
}

// SetPaused stops or resumes the Run loop.
func (m *Machine) SetPaused(paused bool) {
	m.mu.Lock()
	m.paused = paused
	m.mu.Unlock()
	m.notify()
}

// Paused reports whether the Run loop is idle.
func (m *Machine) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Step executes one instruction regardless of the paused state.
func (m *Machine) Step() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fault != nil {
		return m.fault
	}
	return m.stepLocked()
}

// Fault returns the error that stopped the CPU, if any.
func (m *Machine) Fault() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fault
}

// Read reads a byte of memory.
func (m *Machine) Read(addr uint16) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ram.Read(addr)
}

// Write writes a byte of memory.
func (m *Machine) Write(addr uint16, data byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ram.Write(addr, data)
}

// GetMemoryBlock returns a copy of size bytes starting at addr.
func (m *Machine) GetMemoryBlock(addr uint16, size uint16) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ram.Block(addr, size)
}

// GetCPUState returns a snapshot of the registers.
func (m *Machine) GetCPUState() cpu.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.SaveState()
}

// Run drives the CPU until ctx is cancelled. It idles while paused, halted
// or faulted and wakes on SetPaused, Reset and LoadProgram.
func (m *Machine) Run(ctx context.Context) error {
	for {
		if !m.tick() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-m.wake:
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// RunUntilHalted resumes the machine and runs it on the calling goroutine
// until BRK, a fault, or ctx is cancelled.
func (m *Machine) RunUntilHalted(ctx context.Context) error {
	m.SetPaused(false)
	for m.tick() {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return m.Fault()
}

// tick executes one instruction if the machine is running.
func (m *Machine) tick() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused || m.fault != nil || m.cpu.Halted() {
		return false
	}
	return m.stepLocked() == nil
}

func (m *Machine) stepLocked() error {
	if m.trace != nil && !m.cpu.Halted() {
		m.trace(m.cpu.TraceLine())
	}

	if err := m.cpu.Step(); err != nil {
		if !errors.Is(err, cpu.ErrHalted) {
			m.fault = err
			m.paused = true
			m.logger.Printf("cpu fault: %v", err)
		}
		return err
	}

	if m.cpu.Halted() {
		m.paused = true
		m.logger.Printf("cpu halted at $%04X after %d cycles", m.cpu.PC, m.cpu.Cycles)
	}
	return nil
}

func (m *Machine) notify() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
