package server

import (
	"context"

	"github.com/meadori/vibe6502/cpu"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CPUState is the register snapshot returned by the debugger service.
type CPUState struct {
	cpu.State
	Paused bool
	Fault  string
}

// Client is a typed client for the debugger service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out)
}

// GetCPUState fetches the registers.
func (c *Client) GetCPUState(ctx context.Context) (CPUState, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "GetCPUState", &emptypb.Empty{}, out); err != nil {
		return CPUState{}, err
	}
	return decodeState(out), nil
}

// ReadMemory reads one byte.
func (c *Client) ReadMemory(ctx context.Context, addr uint16) (byte, error) {
	out := new(wrapperspb.UInt32Value)
	if err := c.invoke(ctx, "ReadMemory", wrapperspb.UInt32(uint32(addr)), out); err != nil {
		return 0, err
	}
	return byte(out.GetValue()), nil
}

// ReadMemoryBlock reads size bytes starting at addr.
func (c *Client) ReadMemoryBlock(ctx context.Context, addr uint16, size int) ([]byte, error) {
	in, err := structpb.NewStruct(map[string]any{"address": int(addr), "size": size})
	if err != nil {
		return nil, err
	}
	out := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, "ReadMemoryBlock", in, out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// WriteMemory writes one byte.
func (c *Client) WriteMemory(ctx context.Context, addr uint16, data byte) error {
	in, err := structpb.NewStruct(map[string]any{"address": int(addr), "data": int(data)})
	if err != nil {
		return err
	}
	return c.invoke(ctx, "WriteMemory", in, new(emptypb.Empty))
}

// LoadProgram installs program at $8000 and resets the CPU.
func (c *Client) LoadProgram(ctx context.Context, program []byte) error {
	return c.invoke(ctx, "LoadProgram", wrapperspb.Bytes(program), new(emptypb.Empty))
}

// Reset pulls the CPU reset line.
func (c *Client) Reset(ctx context.Context) error {
	return c.invoke(ctx, "ResetSystem", &emptypb.Empty{}, new(emptypb.Empty))
}

// Pause stops the run loop.
func (c *Client) Pause(ctx context.Context) error {
	return c.invoke(ctx, "Pause", &emptypb.Empty{}, new(emptypb.Empty))
}

// Resume restarts the run loop.
func (c *Client) Resume(ctx context.Context) error {
	return c.invoke(ctx, "Resume", &emptypb.Empty{}, new(emptypb.Empty))
}

// Step executes one instruction and returns the registers afterwards.
func (c *Client) Step(ctx context.Context) (CPUState, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "Step", &emptypb.Empty{}, out); err != nil {
		return CPUState{}, err
	}
	return decodeState(out), nil
}

func decodeState(s *structpb.Struct) CPUState {
	f := s.GetFields()
	num := func(k string) float64 { return f[k].GetNumberValue() }
	return CPUState{
		State: cpu.State{
			PC:     uint16(num("pc")),
			A:      byte(num("a")),
			X:      byte(num("x")),
			Y:      byte(num("y")),
			P:      byte(num("status")),
			Opcode: byte(num("opcode")),
			Cycles: int(num("cycles")),
			Halted: f["halted"].GetBoolValue(),
		},
		Paused: f["paused"].GetBoolValue(),
		Fault:  f["fault"].GetStringValue(),
	}
}
