package cpu

import (
	"errors"
	"testing"

	"github.com/meadori/vibe6502/memory"
)

type mockBus struct {
	ram [65536]byte
}

func (b *mockBus) Read(addr uint16) byte {
	return b.ram[addr]
}

func (b *mockBus) Write(addr uint16, data byte) {
	b.ram[addr] = data
}

func executeOneInstruction(t *testing.T, c *CPU) {
	t.Helper()
	if err := c.Step(); err != nil {
		t.Fatalf("Step at $%04X: %v", c.PC, err)
	}
}

func setupCPU(t *testing.T) (*CPU, *mockBus) {
	t.Helper()
	bus := &mockBus{}
	c := NewWithBus(bus)
	c.MemWrite16(0xFFFC, 0x8000)
	c.Reset()
	if c.PC != 0x8000 {
		t.Fatalf("Expected PC 0x8000 after reset, got 0x%04X", c.PC)
	}
	return c, bus
}

func TestLoadStore(t *testing.T) {
	c, bus := setupCPU(t)

	// LDA IMM
	bus.Write(0x8000, 0xA9)
	bus.Write(0x8001, 0x42)
	executeOneInstruction(t, c)
	if c.A != 0x42 {
		t.Error("LDA IMM failed")
	}

	// STA ABS
	bus.Write(0x8002, 0x8D)
	bus.Write(0x8003, 0x10)
	bus.Write(0x8004, 0x01)
	executeOneInstruction(t, c)
	if bus.ram[0x0110] != 0x42 {
		t.Error("STA ABS failed")
	}
	if c.PC != 0x8005 {
		t.Errorf("Expected PC 0x8005 after STA ABS, got 0x%04X", c.PC)
	}
}

func TestArithmetic(t *testing.T) {
	c, bus := setupCPU(t)

	// ADC
	c.A = 10
	bus.Write(0x8000, 0x69) // ADC #$05
	bus.Write(0x8001, 5)
	executeOneInstruction(t, c)
	if c.A != 15 {
		t.Error("ADC failed")
	}

	// ADC with carry in
	c.setFlag(C, true)
	bus.Write(0x8002, 0x69) // ADC #$05
	bus.Write(0x8003, 5)
	executeOneInstruction(t, c)
	if c.A != 21 {
		t.Errorf("ADC with carry failed, got %d", c.A)
	}
	if c.Flag(C) {
		t.Error("ADC left carry set without unsigned overflow")
	}
}

func TestIncDec(t *testing.T) {
	c, bus := setupCPU(t)

	// INX
	c.X = 0x10
	bus.Write(0x8000, 0xE8)
	executeOneInstruction(t, c)
	if c.X != 0x11 {
		t.Error("INX failed")
	}
}

func TestLogical(t *testing.T) {
	c, bus := setupCPU(t)

	// AND
	c.A = 0b10101010
	bus.Write(0x8000, 0x29) // AND #$0F
	bus.Write(0x8001, 0b00001111)
	executeOneInstruction(t, c)
	if c.A != 0b00001010 {
		t.Error("AND failed")
	}
}

func TestShiftRotate(t *testing.T) {
	c, bus := setupCPU(t)

	// ASL
	c.A = 0b01010101
	bus.Write(0x8000, 0x0A) // ASL
	executeOneInstruction(t, c)
	if c.A != 0b10101010 {
		t.Error("ASL failed")
	}
	if c.getFlag(C) != 0 {
		t.Error("ASL carry failed")
	}

	// ASL again shifts bit 7 into carry
	bus.Write(0x8001, 0x0A)
	executeOneInstruction(t, c)
	if c.A != 0b01010100 {
		t.Error("ASL failed")
	}
	if c.getFlag(C) != 1 {
		t.Error("ASL carry failed")
	}
}

func TestBranch(t *testing.T) {
	c, bus := setupCPU(t)

	// BEQ (not taken)
	bus.Write(0x8000, 0xF0) // BEQ $10
	bus.Write(0x8001, 0x10)
	executeOneInstruction(t, c)
	if c.PC != 0x8002 {
		t.Error("BEQ (not taken) failed")
	}

	// BEQ (taken)
	c.setFlag(Z, true)
	bus.Write(0x8002, 0xF0) // BEQ $10
	bus.Write(0x8003, 0x10)
	executeOneInstruction(t, c)
	if c.PC != 0x8014 {
		t.Error("BEQ (taken) failed")
	}

	// BNE backwards
	c.setFlag(Z, false)
	bus.Write(0x8014, 0xD0) // BNE -4
	bus.Write(0x8015, 0xFC)
	executeOneInstruction(t, c)
	if c.PC != 0x8012 {
		t.Errorf("BNE (backwards) failed, PC 0x%04X", c.PC)
	}
}

func TestBranchOntoOffsetByte(t *testing.T) {
	c, bus := setupCPU(t)

	// A taken branch of -1 lands on its own offset byte, which is also where
	// PC sits while the handler runs. The engine must not skip past it.
	bus.Write(0x8000, 0xB0) // BCS -1
	bus.Write(0x8001, 0xFF)
	c.setFlag(C, true)
	executeOneInstruction(t, c)
	if c.PC != 0x8001 {
		t.Errorf("Expected PC 0x8001, got 0x%04X", c.PC)
	}
}

func TestBranchWraps(t *testing.T) {
	c, bus := setupCPU(t)

	c.PC = 0xFFF0
	bus.Write(0xFFF0, 0x10) // BPL +0x20
	bus.Write(0xFFF1, 0x20)
	executeOneInstruction(t, c)
	if c.PC != 0x0012 {
		t.Errorf("Expected PC to wrap to 0x0012, got 0x%04X", c.PC)
	}
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		check   func(t *testing.T, c *CPU)
	}{
		{
			name:    "LDA immediate",
			program: []byte{0xA9, 0x05, 0x00},
			check: func(t *testing.T, c *CPU) {
				if c.A != 0x05 || c.Flag(Z) || c.Flag(N) {
					t.Errorf("A=0x%02X P=%08b", c.A, c.P)
				}
			},
		},
		{
			name:    "LDA zero flag",
			program: []byte{0xA9, 0x00, 0x00},
			check: func(t *testing.T, c *CPU) {
				if c.A != 0 || !c.Flag(Z) || c.Flag(N) {
					t.Errorf("A=0x%02X P=%08b", c.A, c.P)
				}
			},
		},
		{
			name:    "TAX moves A to X",
			program: []byte{0xA9, 0x0A, 0xAA, 0x00},
			check: func(t *testing.T, c *CPU) {
				if c.X != 10 {
					t.Errorf("X=%d", c.X)
				}
			},
		},
		{
			name:    "transfer and increment",
			program: []byte{0xA9, 0xC0, 0xAA, 0xE8, 0x00},
			check: func(t *testing.T, c *CPU) {
				if c.X != 0xC1 {
					t.Errorf("X=0x%02X", c.X)
				}
			},
		},
		{
			name:    "INX wraps",
			program: []byte{0xA9, 0xFF, 0xAA, 0xE8, 0xE8, 0x00},
			check: func(t *testing.T, c *CPU) {
				if c.X != 0x01 {
					t.Errorf("X=0x%02X", c.X)
				}
			},
		},
		{
			name:    "signed overflow on add",
			program: []byte{0xA9, 0x40, 0x69, 0x40, 0x00},
			check: func(t *testing.T, c *CPU) {
				if c.A != 0x80 || !c.Flag(V) || c.Flag(C) {
					t.Errorf("A=0x%02X P=%08b", c.A, c.P)
				}
			},
		},
		{
			name:    "shift then add carries without overflow",
			program: []byte{0xA9, 0x60, 0x0A, 0x69, 0xC0, 0x00},
			check: func(t *testing.T, c *CPU) {
				if c.A != 0x80 || !c.Flag(C) || c.Flag(V) || !c.Flag(N) {
					t.Errorf("A=0x%02X P=%08b", c.A, c.P)
				}
			},
		},
		{
			name: "store through indirect indexed",
			// LDA #$00; STA $20; LDA #$02; STA $21; LDY #$05; LDA #$99; STA ($20),Y; BRK
			program: []byte{0xA9, 0x00, 0x85, 0x20, 0xA9, 0x02, 0x85, 0x21, 0xA0, 0x05, 0xA9, 0x99, 0x91, 0x20, 0x00},
			check: func(t *testing.T, c *CPU) {
				if c.MemRead(0x0205) != 0x99 {
					t.Errorf("$0205=0x%02X", c.MemRead(0x0205))
				}
			},
		},
		{
			name: "count down loop",
			// LDX #$FD; loop: INX; BNE loop; BRK
			program: []byte{0xA2, 0xFD, 0xE8, 0xD0, 0xFD, 0x00},
			check: func(t *testing.T, c *CPU) {
				if c.X != 0 || !c.Flag(Z) {
					t.Errorf("X=0x%02X P=%08b", c.X, c.P)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			if err := c.LoadAndRun(tc.program); err != nil {
				t.Fatal(err)
			}
			if !c.Halted() {
				t.Fatal("CPU did not halt")
			}
			tc.check(t, c)
		})
	}
}

func TestLoadAndRunExternalBus(t *testing.T) {
	bus := &mockBus{}
	c := NewWithBus(bus)
	if err := c.LoadAndRun([]byte{0xA9, 0xC0, 0xAA, 0xE8, 0x00}); err != nil {
		t.Fatal(err)
	}
	if c.X != 0xC1 {
		t.Errorf("X=0x%02X", c.X)
	}
	if bus.ram[0xFFFC] != 0x00 || bus.ram[0xFFFD] != 0x80 {
		t.Error("reset vector not written through the bus")
	}
}

func TestUnknownOpcode(t *testing.T) {
	c := New()
	err := c.LoadAndRun([]byte{0xA9, 0x01, 0x02, 0xA9, 0x05, 0x00})
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("Expected ErrUnknownOpcode, got %v", err)
	}

	var opErr *OpcodeError
	if !errors.As(err, &opErr) {
		t.Fatalf("Expected *OpcodeError, got %T", err)
	}
	if opErr.Opcode != 0x02 || opErr.Addr != 0x8002 {
		t.Errorf("Expected $02 at $8002, got $%02X at $%04X", opErr.Opcode, opErr.Addr)
	}
	if err.Error() != "unknown opcode $02 at $8002" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if c.A != 0x01 {
		t.Error("execution continued past the unknown opcode")
	}
	if c.PC != 0x8002 {
		t.Errorf("Expected PC left at the offending byte, got 0x%04X", c.PC)
	}
}

func TestUnsupportedInstructionsAreUnknown(t *testing.T) {
	// PHA, JSR, SBC, CMP, JMP, RTS
	for _, code := range []byte{0x48, 0x20, 0xE9, 0xC9, 0x4C, 0x60} {
		if _, ok := Lookup(code); ok {
			t.Errorf("opcode $%02X should not be implemented", code)
		}
	}
}

func TestLoadTooLarge(t *testing.T) {
	for _, c := range []*CPU{New(), NewWithBus(&mockBus{})} {
		err := c.Load(make([]byte, 0x8001))
		if !errors.Is(err, memory.ErrProgramTooLarge) {
			t.Errorf("Expected ErrProgramTooLarge, got %v", err)
		}
		if err := c.LoadAndRun(make([]byte, 0x8001)); !errors.Is(err, memory.ErrProgramTooLarge) {
			t.Errorf("Expected LoadAndRun to fail before running, got %v", err)
		}
	}
}

func TestBreakSetsBreakFlag(t *testing.T) {
	c := New()
	if err := c.LoadAndRun([]byte{0x00}); err != nil {
		t.Fatal(err)
	}
	if !c.Flag(B) {
		t.Error("BRK did not set the break flag")
	}
	if c.PC != 0x8001 {
		t.Errorf("Expected PC 0x8001 after BRK, got 0x%04X", c.PC)
	}
	if err := c.Step(); !errors.Is(err, ErrHalted) {
		t.Errorf("Expected ErrHalted stepping a halted CPU, got %v", err)
	}
}

func TestReset(t *testing.T) {
	c := New()
	if err := c.Load([]byte{0x00}); err != nil {
		t.Fatal(err)
	}
	c.A, c.X, c.Y, c.P, c.PC = 1, 2, 3, 0xFF, 0x1234

	c.Reset()
	c.Reset()
	if c.A != 0 || c.X != 0 || c.P != 0 || c.PC != 0x8000 {
		t.Errorf("reset left A=%d X=%d P=0x%02X PC=0x%04X", c.A, c.X, c.P, c.PC)
	}
	if c.Y != 3 {
		t.Error("reset is not expected to clear Y")
	}
	if c.Halted() {
		t.Error("reset did not clear halted state")
	}
}

func TestNewIsZeroed(t *testing.T) {
	c := New()
	if c.A != 0 || c.X != 0 || c.Y != 0 || c.P != 0 || c.PC != 0 || c.Cycles != 0 {
		t.Errorf("New returned non-zero registers: %+v", c.SaveState())
	}
}

func TestCycles(t *testing.T) {
	c := New()
	// LDA #; TAX; STA abs; BRK
	if err := c.LoadAndRun([]byte{0xA9, 0x01, 0xAA, 0x8D, 0x00, 0x02, 0x00}); err != nil {
		t.Fatal(err)
	}
	if c.Cycles != 2+2+4+7 {
		t.Errorf("Expected 15 cycles, got %d", c.Cycles)
	}
}

func TestMemAccess(t *testing.T) {
	c := New()
	c.MemWrite16(0x0300, 0xCAFE)
	if c.MemRead(0x0300) != 0xFE || c.MemRead(0x0301) != 0xCA {
		t.Error("MemWrite16 is not little-endian")
	}
	if c.MemRead16(0x0300) != 0xCAFE {
		t.Error("MemRead16 round trip failed")
	}
	c.MemWrite(0xFFFF, 0x7E)
	if c.MemRead(0xFFFF) != 0x7E {
		t.Error("$FFFF is not backed")
	}
}

func TestState(t *testing.T) {
	c := New()
	if err := c.LoadAndRun([]byte{0xA9, 0x80, 0x00}); err != nil {
		t.Fatal(err)
	}
	s := c.SaveState()
	if s.A != 0x80 || !s.Halted || s.Opcode != 0x00 || s.PC != 0x8003 {
		t.Errorf("unexpected state %+v", s)
	}

	d := New()
	d.LoadState(s)
	if d.SaveState() != s {
		t.Errorf("LoadState/SaveState mismatch: %+v vs %+v", d.SaveState(), s)
	}
}
