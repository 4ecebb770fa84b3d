package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/meadori/vibe6502/cpu"
	"github.com/meadori/vibe6502/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Emulator defines the methods the debugger needs from the host machine.
type Emulator interface {
	Read(addr uint16) byte
	Write(addr uint16, data byte)
	GetMemoryBlock(addr uint16, size uint16) []byte
	GetCPUState() cpu.State
	LoadProgram(program []byte) error
	Reset()
	SetPaused(bool)
	Paused() bool
	Step() error
	Fault() error
}

// GRPCServer exposes an Emulator to remote debuggers.
type GRPCServer struct {
	mu     sync.Mutex
	server *grpc.Server
	emu    Emulator
}

// NewGRPCServer initializes the gRPC debug server
func NewGRPCServer() *GRPCServer {
	return &GRPCServer{}
}

// SetEmulator assigns the machine served to clients
func (s *GRPCServer) SetEmulator(e Emulator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emu = e
}

func (s *GRPCServer) emulator() (Emulator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emu == nil {
		return nil, status.Error(codes.FailedPrecondition, "emulator not connected")
	}
	return s.emu, nil
}

// GetCPUState returns the CPU register values
func (s *GRPCServer) GetCPUState(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	return encodeState(emu.GetCPUState(), emu.Paused(), emu.Fault())
}

// ReadMemory returns the byte at a memory address
func (s *GRPCServer) ReadMemory(ctx context.Context, in *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	addr, err := checkAddress(in.GetValue())
	if err != nil {
		return nil, err
	}
	return wrapperspb.UInt32(uint32(emu.Read(addr))), nil
}

// ReadMemoryBlock returns a block of raw memory
func (s *GRPCServer) ReadMemoryBlock(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	addr, err := checkAddress(uint32(in.GetFields()["address"].GetNumberValue()))
	if err != nil {
		return nil, err
	}
	size := in.GetFields()["size"].GetNumberValue()
	if size < 1 || size > 0xFFFF {
		return nil, status.Errorf(codes.InvalidArgument, "block size %v out of range", size)
	}
	return wrapperspb.Bytes(emu.GetMemoryBlock(addr, uint16(size))), nil
}

// WriteMemory stores one byte, e.g. to poke a device register
func (s *GRPCServer) WriteMemory(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	addr, err := checkAddress(uint32(in.GetFields()["address"].GetNumberValue()))
	if err != nil {
		return nil, err
	}
	data := in.GetFields()["data"].GetNumberValue()
	if data < 0 || data > 0xFF {
		return nil, status.Errorf(codes.InvalidArgument, "data %v is not a byte", data)
	}
	emu.Write(addr, byte(data))
	return &emptypb.Empty{}, nil
}

// LoadProgram installs a program at $8000 and resets the CPU
func (s *GRPCServer) LoadProgram(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	if err := emu.LoadProgram(in.GetValue()); err != nil {
		if errors.Is(err, memory.ErrProgramTooLarge) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Errorf(codes.Internal, "failed to load program: %v", err)
	}
	return &emptypb.Empty{}, nil
}

// ResetSystem pulls the CPU reset line
func (s *GRPCServer) ResetSystem(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	emu.Reset()
	return &emptypb.Empty{}, nil
}

// Pause suspends the emulator loop
func (s *GRPCServer) Pause(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	emu.SetPaused(true)
	return &emptypb.Empty{}, nil
}

// Resume restarts the emulator loop
func (s *GRPCServer) Resume(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	emu.SetPaused(false)
	return &emptypb.Empty{}, nil
}

// Step advances the CPU by one instruction and returns the new state
func (s *GRPCServer) Step(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
	emu, err := s.emulator()
	if err != nil {
		return nil, err
	}
	if err := emu.Step(); err != nil {
		switch {
		case errors.Is(err, cpu.ErrHalted):
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		case errors.Is(err, cpu.ErrUnknownOpcode):
			return nil, status.Error(codes.Aborted, err.Error())
		default:
			return nil, status.Error(codes.Internal, err.Error())
		}
	}
	return encodeState(emu.GetCPUState(), emu.Paused(), emu.Fault())
}

// Start begins listening for gRPC connections on the given port
func (s *GRPCServer) Start(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	log.Printf("gRPC server listening on %s", lis.Addr())

	// Run the server in a background goroutine
	go func() {
		if err := s.Serve(lis); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()

	return nil
}

// Serve accepts connections on lis until Stop is called.
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.mu.Lock()
	s.server = grpc.NewServer()
	RegisterDebuggerServer(s.server, s)
	srv := s.server
	s.mu.Unlock()

	return srv.Serve(lis)
}

// Stop gracefully shuts down the gRPC server
func (s *GRPCServer) Stop() {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		srv.GracefulStop()
	}
}

func checkAddress(v uint32) (uint16, error) {
	if v > 0xFFFF {
		return 0, status.Errorf(codes.InvalidArgument, "address $%X out of range", v)
	}
	return uint16(v), nil
}

func encodeState(st cpu.State, paused bool, fault error) (*structpb.Struct, error) {
	fields := map[string]any{
		"pc":     int(st.PC),
		"a":      int(st.A),
		"x":      int(st.X),
		"y":      int(st.Y),
		"status": int(st.P),
		"opcode": int(st.Opcode),
		"cycles": st.Cycles,
		"halted": st.Halted,
		"paused": paused,
	}
	if fault != nil {
		fields["fault"] = fault.Error()
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode cpu state: %v", err)
	}
	return out, nil
}
