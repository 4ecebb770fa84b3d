package cpu

import "fmt"

// AddrMode selects how an instruction finds its operand.
type AddrMode byte

// Addressing modes.
const (
	Implied AddrMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Absolute
	AbsoluteX
	AbsoluteY
	IndirectX
	IndirectY
	Relative
)

var addrModeNames = [...]string{
	Implied:     "imp",
	Accumulator: "acc",
	Immediate:   "imm",
	ZeroPage:    "zp0",
	ZeroPageX:   "zpx",
	ZeroPageY:   "zpy",
	Absolute:    "abs",
	AbsoluteX:   "abx",
	AbsoluteY:   "aby",
	IndirectX:   "izx",
	IndirectY:   "izy",
	Relative:    "rel",
}

func (m AddrMode) String() string {
	if int(m) < len(addrModeNames) {
		return addrModeNames[m]
	}
	return fmt.Sprintf("AddrMode(%d)", byte(m))
}

// resolve returns the effective address of the operand at PC. Zero page
// arithmetic wraps at 256, absolute arithmetic at 65536.
//
// Implied and Accumulator have no address; callers must branch on the mode
// before resolving.
func (c *CPU) resolve(mode AddrMode) uint16 {
	switch mode {
	case Immediate, Relative:
		return c.PC

	case ZeroPage:
		return uint16(c.bus.Read(c.PC))

	case ZeroPageX:
		return uint16(c.bus.Read(c.PC) + c.X)

	case ZeroPageY:
		return uint16(c.bus.Read(c.PC) + c.Y)

	case Absolute:
		return c.MemRead16(c.PC)

	case AbsoluteX:
		return c.MemRead16(c.PC) + uint16(c.X)

	case AbsoluteY:
		return c.MemRead16(c.PC) + uint16(c.Y)

	case IndirectX:
		ptr := c.bus.Read(c.PC) + c.X
		return c.zeroPagePointer(ptr)

	case IndirectY:
		ptr := c.bus.Read(c.PC)
		return c.zeroPagePointer(ptr) + uint16(c.Y)
	}

	panic(fmt.Sprintf("cpu: addressing mode %s has no operand address", mode))
}

// zeroPagePointer reads a word from page zero; the high byte wraps to $00.
func (c *CPU) zeroPagePointer(ptr byte) uint16 {
	lo := uint16(c.bus.Read(uint16(ptr)))
	hi := uint16(c.bus.Read(uint16(ptr + 1)))
	return (hi << 8) | lo
}
