package cpu

// Handlers run with PC at the first operand byte.

func (c *CPU) fetch(mode AddrMode) byte {
	return c.bus.Read(c.resolve(mode))
}

// BRK stops execution. Interrupt vectoring is not emulated.
func (c *CPU) brk(mode AddrMode) {
	c.setFlag(B, true)
	c.halted = true
}

func (c *CPU) lda(mode AddrMode) {
	c.A = c.fetch(mode)
	c.setZN(c.A)
}

func (c *CPU) ldx(mode AddrMode) {
	c.X = c.fetch(mode)
	c.setZN(c.X)
}

func (c *CPU) ldy(mode AddrMode) {
	c.Y = c.fetch(mode)
	c.setZN(c.Y)
}

func (c *CPU) sta(mode AddrMode) {
	c.bus.Write(c.resolve(mode), c.A)
}

func (c *CPU) stx(mode AddrMode) {
	c.bus.Write(c.resolve(mode), c.X)
}

func (c *CPU) sty(mode AddrMode) {
	c.bus.Write(c.resolve(mode), c.Y)
}

func (c *CPU) tax(mode AddrMode) {
	c.X = c.A
	c.setZN(c.X)
}

func (c *CPU) inx(mode AddrMode) {
	c.X++
	c.setZN(c.X)
}

// ADC adds memory and carry to the accumulator. Decimal mode is ignored.
func (c *CPU) adc(mode AddrMode) {
	m := c.fetch(mode)
	sum := uint16(c.A) + uint16(m) + uint16(c.getFlag(C))
	r := byte(sum)

	c.setFlag(C, sum > 0xFF)
	c.setFlag(V, (c.A^r)&(m^r)&0x80 != 0)
	c.A = r
	c.setZN(c.A)
}

func (c *CPU) and(mode AddrMode) {
	c.A &= c.fetch(mode)
	c.setZN(c.A)
}

func (c *CPU) asl(mode AddrMode) {
	if mode == Accumulator {
		c.setFlag(C, c.A&0x80 != 0)
		c.A <<= 1
		c.setZN(c.A)
		return
	}

	addr := c.resolve(mode)
	m := c.bus.Read(addr)
	c.setFlag(C, m&0x80 != 0)
	m <<= 1
	c.bus.Write(addr, m)
	c.setZN(m)
}

func (c *CPU) bit(mode AddrMode) {
	m := c.fetch(mode)
	c.setFlag(Z, c.A&m == 0)
	c.setFlag(V, m&0x40 != 0)
	c.setFlag(N, m&0x80 != 0)
}

// branch consumes the offset byte and takes the branch when cond holds.
func (c *CPU) branch(cond bool) {
	offset := int8(c.fetch(Relative))
	next := c.PC + 1
	if cond {
		next += uint16(offset)
	}
	c.PC = next
	c.jumped = true
}

func (c *CPU) bcc(mode AddrMode) { c.branch(!c.Flag(C)) }
func (c *CPU) bcs(mode AddrMode) { c.branch(c.Flag(C)) }
func (c *CPU) beq(mode AddrMode) { c.branch(c.Flag(Z)) }
func (c *CPU) bmi(mode AddrMode) { c.branch(c.Flag(N)) }
func (c *CPU) bne(mode AddrMode) { c.branch(!c.Flag(Z)) }
func (c *CPU) bpl(mode AddrMode) { c.branch(!c.Flag(N)) }
func (c *CPU) bvc(mode AddrMode) { c.branch(!c.Flag(V)) }
func (c *CPU) bvs(mode AddrMode) { c.branch(c.Flag(V)) }

func (c *CPU) clc(mode AddrMode) { c.setFlag(C, false) }
func (c *CPU) cld(mode AddrMode) { c.setFlag(D, false) }
func (c *CPU) cli(mode AddrMode) { c.setFlag(I, false) }
func (c *CPU) clv(mode AddrMode) { c.setFlag(V, false) }
func (c *CPU) sec(mode AddrMode) { c.setFlag(C, true) }
func (c *CPU) sed(mode AddrMode) { c.setFlag(D, true) }
func (c *CPU) sei(mode AddrMode) { c.setFlag(I, true) }

func (c *CPU) nop(mode AddrMode) {}
