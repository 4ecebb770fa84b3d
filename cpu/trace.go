package cpu

import (
	"fmt"
	"strings"
)

// Disassemble formats the instruction at pc and returns its encoded length.
// Unknown opcodes disassemble as "???" with length 1.
func Disassemble(bus Bus, pc uint16) (string, int) {
	code := bus.Read(pc)
	op, ok := Lookup(code)
	if !ok {
		return "???", 1
	}

	operand1 := bus.Read(pc + 1)
	operand2 := bus.Read(pc + 2)
	word := (uint16(operand2) << 8) | uint16(operand1)

	var text string
	switch op.Mode {
	case Implied:
		text = op.Name
	case Accumulator:
		text = fmt.Sprintf("%s A", op.Name)
	case Immediate:
		text = fmt.Sprintf("%s #$%02X", op.Name, operand1)
	case ZeroPage:
		text = fmt.Sprintf("%s $%02X", op.Name, operand1)
	case ZeroPageX:
		text = fmt.Sprintf("%s $%02X,X", op.Name, operand1)
	case ZeroPageY:
		text = fmt.Sprintf("%s $%02X,Y", op.Name, operand1)
	case Relative:
		target := pc + 2 + uint16(int8(operand1))
		text = fmt.Sprintf("%s $%04X", op.Name, target)
	case Absolute:
		text = fmt.Sprintf("%s $%04X", op.Name, word)
	case AbsoluteX:
		text = fmt.Sprintf("%s $%04X,X", op.Name, word)
	case AbsoluteY:
		text = fmt.Sprintf("%s $%04X,Y", op.Name, word)
	case IndirectX:
		text = fmt.Sprintf("%s ($%02X,X)", op.Name, operand1)
	case IndirectY:
		text = fmt.Sprintf("%s ($%02X),Y", op.Name, operand1)
	default:
		text = fmt.Sprintf("%s ???", op.Name)
	}
	return text, int(op.Length)
}

// TraceLine formats the instruction at PC together with the registers as
// they are before it executes, e.g.
//
//	8000  A9 05     LDA #$05                         A:00 X:00 Y:00 P:00 CYC:0
func (c *CPU) TraceLine() string {
	text, length := Disassemble(c.bus, c.PC)

	raw := make([]string, length)
	for i := range raw {
		raw[i] = fmt.Sprintf("%02X", c.bus.Read(c.PC+uint16(i)))
	}

	return fmt.Sprintf("%04X  %-8s  %-32s A:%02X X:%02X Y:%02X P:%02X CYC:%d",
		c.PC,
		strings.Join(raw, " "),
		text,
		c.A, c.X, c.Y, c.P,
		c.Cycles,
	)
}
