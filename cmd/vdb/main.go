package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/meadori/vibe6502/server"
	"golang.org/x/term"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "Address of the emulator's debugger")
	flag.Parse()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		fmt.Println("VDB - Vibemulator DeBugger")
		fmt.Printf("Connecting to emulator on %s...\n", *addr)
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	defer conn.Close()

	client := server.NewClient(conn)
	if interactive {
		fmt.Println("Connected. Type 'help' for commands.")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("(vdb) ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if quit := runCommand(client, strings.Fields(line)); quit {
			return
		}
	}
}

func runCommand(client *server.Client, parts []string) bool {
	ctx := context.Background()
	cmd := parts[0]

	switch cmd {
	case "help", "h":
		fmt.Println("Commands:")
		fmt.Println("  run, c          - Resume execution")
		fmt.Println("  pause, p        - Pause execution")
		fmt.Println("  step, s         - Step one instruction")
		fmt.Println("  regs, i r       - Print CPU registers")
		fmt.Println("  x <addr>        - Examine memory (e.g. x 0000 or x/16 0000)")
		fmt.Println("  w <addr> <byte> - Write a byte to memory")
		fmt.Println("  load <file>     - Load a raw program at $8000 and reset")
		fmt.Println("  reset           - Reset the CPU")
		fmt.Println("  quit, q         - Exit debugger")
	case "quit", "q", "exit":
		return true
	case "pause", "p":
		if err := client.Pause(ctx); err != nil {
			fmt.Printf("Error: %v\n", err)
		} else {
			fmt.Println("Emulator paused.")
			printRegs(client)
		}
	case "run", "c", "continue":
		if err := client.Resume(ctx); err != nil {
			fmt.Printf("Error: %v\n", err)
		} else {
			fmt.Println("Emulator running...")
		}
	case "step", "s":
		state, err := client.Step(ctx)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		} else {
			printState(state)
		}
	case "regs", "i":
		if len(parts) > 1 && parts[1] == "r" || cmd == "regs" {
			printRegs(client)
		} else {
			fmt.Println("Unknown command. Did you mean 'i r'?")
		}
	case "reset":
		if err := client.Reset(ctx); err != nil {
			fmt.Printf("Error: %v\n", err)
		} else {
			printRegs(client)
		}
	case "load":
		if len(parts) != 2 {
			fmt.Println("Usage: load <file>")
			break
		}
		program, err := os.ReadFile(parts[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
		if err := client.LoadProgram(ctx, program); err != nil {
			fmt.Printf("Error: %v\n", err)
		} else {
			fmt.Printf("Loaded %d bytes.\n", len(program))
			printRegs(client)
		}
	case "w":
		if len(parts) != 3 {
			fmt.Println("Usage: w <addr> <byte>")
			break
		}
		addr, err := parseAddr(parts[1])
		if err != nil {
			fmt.Printf("Invalid address: %s\n", parts[1])
			break
		}
		data, err := strconv.ParseUint(strings.TrimPrefix(parts[2], "0x"), 16, 8)
		if err != nil {
			fmt.Printf("Invalid byte: %s\n", parts[2])
			break
		}
		if err := client.WriteMemory(ctx, addr, byte(data)); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	default:
		if cmd == "x" || strings.HasPrefix(cmd, "x/") {
			examine(client, parts)
		} else {
			fmt.Printf("Unknown command: %s\n", cmd)
		}
	}
	return false
}

// examine handles "x <addr>" and "x/<count> <addr>".
func examine(client *server.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: x <addr> or x/<count> <addr>")
		return
	}

	count := 1
	if strings.HasPrefix(parts[0], "x/") {
		n, err := strconv.ParseInt(strings.TrimPrefix(parts[0], "x/"), 10, 32)
		if err == nil && n > 0 {
			count = int(n)
		}
	}

	addr, err := parseAddr(parts[1])
	if err != nil {
		fmt.Printf("Invalid address: %s\n", parts[1])
		return
	}

	data, err := client.ReadMemoryBlock(context.Background(), addr, count)
	if err != nil {
		fmt.Printf("Error reading memory: %v\n", err)
		return
	}
	printHexDump(addr, data)
}

func parseAddr(s string) (uint16, error) {
	// Clean up address (e.g., remove 0x or $ prefix if present)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "$")
	v, err := strconv.ParseUint(s, 16, 16)
	return uint16(v), err
}

func printRegs(client *server.Client) {
	state, err := client.GetCPUState(context.Background())
	if err != nil {
		fmt.Printf("Error getting CPU state: %v\n", err)
		return
	}
	printState(state)
}

func printState(state server.CPUState) {
	fmt.Printf("A: %02X  X: %02X  Y: %02X  PC: %04X  Status: %08b  Cycles: %d\n",
		state.A, state.X, state.Y, state.PC, state.P, state.Cycles)
	if state.Halted {
		fmt.Println("CPU halted (BRK).")
	}
	if state.Fault != "" {
		fmt.Printf("CPU fault: %s\n", state.Fault)
	}
}

func printHexDump(startAddr uint16, data []byte) {
	for i := 0; i < len(data); i += 16 {
		fmt.Printf("%04X:", startAddr+uint16(i))
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		for j := i; j < end; j++ {
			fmt.Printf(" %02X", data[j])
		}
		fmt.Println()
	}
}
