package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/meadori/vibe6502/cpu"
	"github.com/meadori/vibe6502/machine"
	"github.com/meadori/vibe6502/server"
)

func main() {
	romPath := flag.String("rom", "", "Path to a raw 6502 program loaded at $8000")
	trace := flag.Bool("trace", false, "Print a trace line for every instruction")
	grpcPort := flag.Int("grpc", 0, "Serve the debugger on this port and wait for commands")
	wsAddr := flag.String("ws", "", "Stream trace lines over WebSocket on this address, e.g. :8080")
	flag.Parse()

	if *romPath == "" {
		log.Fatalf("Please provide a program using -rom <file.bin>")
	}
	program, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("Failed to read program: %v", err)
	}

	var sinks []func(string)
	if *trace {
		sinks = append(sinks, func(line string) { fmt.Println(line) })
	}
	if *wsAddr != "" {
		hub := server.NewTraceHub()
		defer hub.Close()
		sinks = append(sinks, hub.Publish)

		mux := http.NewServeMux()
		mux.Handle("/trace", hub)
		log.Printf("Started HTTP(WebSocket) server at %s/trace", *wsAddr)
		go func() {
			if err := http.ListenAndServe(*wsAddr, mux); err != nil {
				log.Printf("WebSocket server error: %v", err)
			}
		}()
	}

	var opts []machine.Option
	if len(sinks) > 0 {
		opts = append(opts, machine.WithTrace(func(line string) {
			for _, sink := range sinks {
				sink(line)
			}
		}))
	}
	m := machine.New(opts...)

	if err := m.LoadProgram(program); err != nil {
		log.Fatalf("Failed to load program: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *grpcPort != 0 {
		s := server.NewGRPCServer()
		s.SetEmulator(m)
		if err := s.Start(*grpcPort); err != nil {
			log.Fatalf("Failed to start debugger: %v", err)
		}
		defer s.Stop()

		log.Println("Machine paused, connect with vdb to start it.")
		if err := m.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Run loop stopped: %v", err)
		}
		return
	}

	err = m.RunUntilHalted(ctx)
	printRegs(m.GetCPUState())
	if err != nil {
		log.Fatalf("Execution aborted: %v", err)
	}
}

func printRegs(s cpu.State) {
	fmt.Printf("A: %02X  X: %02X  Y: %02X  PC: %04X  Status: %08b  Cycles: %d\n",
		s.A, s.X, s.Y, s.PC, s.P, s.Cycles)
}
