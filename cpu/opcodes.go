package cpu

import "fmt"

// Opcode describes one entry of the instruction table.
type Opcode struct {
	Code   byte
	Name   string
	Mode   AddrMode
	Length byte
	Cycles int

	execute func(c *CPU, mode AddrMode)
}

// lookup is built once and never written afterwards.
var lookup = createLookupTable()

// Lookup returns the descriptor for code. The second result is false for
// opcodes this CPU does not implement.
func Lookup(code byte) (Opcode, bool) {
	op := lookup[code]
	return op, op.execute != nil
}

func createLookupTable() [256]Opcode {
	var table [256]Opcode

	add := func(code byte, name string, mode AddrMode, length byte, cycles int, execute func(*CPU, AddrMode)) {
		if table[code].execute != nil {
			panic(fmt.Sprintf("cpu: opcode $%02X defined twice (%s, %s)", code, table[code].Name, name))
		}
		table[code] = Opcode{code, name, mode, length, cycles, execute}
	}

	add(0x00, "BRK", Implied, 1, 7, (*CPU).brk)

	add(0xA9, "LDA", Immediate, 2, 2, (*CPU).lda)
	add(0xA5, "LDA", ZeroPage, 2, 3, (*CPU).lda)
	add(0xB5, "LDA", ZeroPageX, 2, 4, (*CPU).lda)
	add(0xAD, "LDA", Absolute, 3, 4, (*CPU).lda)
	add(0xBD, "LDA", AbsoluteX, 3, 4, (*CPU).lda)
	add(0xB9, "LDA", AbsoluteY, 3, 4, (*CPU).lda)
	add(0xA1, "LDA", IndirectX, 2, 6, (*CPU).lda)
	add(0xB1, "LDA", IndirectY, 2, 5, (*CPU).lda)

	add(0xA2, "LDX", Immediate, 2, 2, (*CPU).ldx)
	add(0xA6, "LDX", ZeroPage, 2, 3, (*CPU).ldx)
	add(0xB6, "LDX", ZeroPageY, 2, 4, (*CPU).ldx)
	add(0xAE, "LDX", Absolute, 3, 4, (*CPU).ldx)
	add(0xBE, "LDX", AbsoluteY, 3, 4, (*CPU).ldx)

	add(0xA0, "LDY", Immediate, 2, 2, (*CPU).ldy)
	add(0xA4, "LDY", ZeroPage, 2, 3, (*CPU).ldy)
	add(0xB4, "LDY", ZeroPageX, 2, 4, (*CPU).ldy)
	add(0xAC, "LDY", Absolute, 3, 4, (*CPU).ldy)
	add(0xBC, "LDY", AbsoluteX, 3, 4, (*CPU).ldy)

	add(0x85, "STA", ZeroPage, 2, 3, (*CPU).sta)
	add(0x95, "STA", ZeroPageX, 2, 4, (*CPU).sta)
	add(0x8D, "STA", Absolute, 3, 4, (*CPU).sta)
	add(0x9D, "STA", AbsoluteX, 3, 5, (*CPU).sta)
	add(0x99, "STA", AbsoluteY, 3, 5, (*CPU).sta)
	add(0x81, "STA", IndirectX, 2, 6, (*CPU).sta)
	add(0x91, "STA", IndirectY, 2, 6, (*CPU).sta)

	add(0x86, "STX", ZeroPage, 2, 3, (*CPU).stx)
	add(0x96, "STX", ZeroPageY, 2, 4, (*CPU).stx)
	add(0x8E, "STX", Absolute, 3, 4, (*CPU).stx)

	add(0x84, "STY", ZeroPage, 2, 3, (*CPU).sty)
	add(0x94, "STY", ZeroPageX, 2, 4, (*CPU).sty)
	add(0x8C, "STY", Absolute, 3, 4, (*CPU).sty)

	add(0xAA, "TAX", Implied, 1, 2, (*CPU).tax)
	add(0xE8, "INX", Implied, 1, 2, (*CPU).inx)

	add(0x69, "ADC", Immediate, 2, 2, (*CPU).adc)
	add(0x65, "ADC", ZeroPage, 2, 3, (*CPU).adc)
	add(0x75, "ADC", ZeroPageX, 2, 4, (*CPU).adc)
	add(0x6D, "ADC", Absolute, 3, 4, (*CPU).adc)
	add(0x7D, "ADC", AbsoluteX, 3, 4, (*CPU).adc)
	add(0x79, "ADC", AbsoluteY, 3, 4, (*CPU).adc)
	add(0x61, "ADC", IndirectX, 2, 6, (*CPU).adc)
	add(0x71, "ADC", IndirectY, 2, 5, (*CPU).adc)

	add(0x29, "AND", Immediate, 2, 2, (*CPU).and)
	add(0x25, "AND", ZeroPage, 2, 3, (*CPU).and)
	add(0x35, "AND", ZeroPageX, 2, 4, (*CPU).and)
	add(0x2D, "AND", Absolute, 3, 4, (*CPU).and)
	add(0x3D, "AND", AbsoluteX, 3, 4, (*CPU).and)
	add(0x39, "AND", AbsoluteY, 3, 4, (*CPU).and)
	add(0x21, "AND", IndirectX, 2, 6, (*CPU).and)
	add(0x31, "AND", IndirectY, 2, 5, (*CPU).and)

	add(0x0A, "ASL", Accumulator, 1, 2, (*CPU).asl)
	add(0x06, "ASL", ZeroPage, 2, 5, (*CPU).asl)
	add(0x16, "ASL", ZeroPageX, 2, 6, (*CPU).asl)
	add(0x0E, "ASL", Absolute, 3, 6, (*CPU).asl)
	add(0x1E, "ASL", AbsoluteX, 3, 7, (*CPU).asl)

	add(0x24, "BIT", ZeroPage, 2, 3, (*CPU).bit)
	add(0x2C, "BIT", Absolute, 3, 4, (*CPU).bit)

	add(0x90, "BCC", Relative, 2, 2, (*CPU).bcc)
	add(0xB0, "BCS", Relative, 2, 2, (*CPU).bcs)
	add(0xF0, "BEQ", Relative, 2, 2, (*CPU).beq)
	add(0x30, "BMI", Relative, 2, 2, (*CPU).bmi)
	add(0xD0, "BNE", Relative, 2, 2, (*CPU).bne)
	add(0x10, "BPL", Relative, 2, 2, (*CPU).bpl)
	add(0x50, "BVC", Relative, 2, 2, (*CPU).bvc)
	add(0x70, "BVS", Relative, 2, 2, (*CPU).bvs)

	add(0x18, "CLC", Implied, 1, 2, (*CPU).clc)
	add(0xD8, "CLD", Implied, 1, 2, (*CPU).cld)
	add(0x58, "CLI", Implied, 1, 2, (*CPU).cli)
	add(0xB8, "CLV", Implied, 1, 2, (*CPU).clv)
	add(0x38, "SEC", Implied, 1, 2, (*CPU).sec)
	add(0xF8, "SED", Implied, 1, 2, (*CPU).sed)
	add(0x78, "SEI", Implied, 1, 2, (*CPU).sei)

	add(0xEA, "NOP", Implied, 1, 2, (*CPU).nop)

	return table
}
