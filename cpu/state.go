package cpu

// State is a copy of the CPU registers for inspectors and debuggers.
type State struct {
	PC        uint16
	A, X, Y   byte
	P, Opcode byte
	Cycles    int
	Halted    bool
}

func (c *CPU) SaveState() State {
	return State{c.PC, c.A, c.X, c.Y, c.P, c.opcode, c.Cycles, c.halted}
}

func (c *CPU) LoadState(s State) {
	c.PC, c.A, c.X, c.Y, c.P, c.opcode, c.Cycles, c.halted = s.PC, s.A, s.X, s.Y, s.P, s.Opcode, s.Cycles, s.Halted
}
