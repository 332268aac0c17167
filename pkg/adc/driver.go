package adc

import (
	"fmt"
	"strings"
)

// Error is a sentinel error raised by ADC drivers.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrChannel = Error("adc channel out of range")
	ErrClosed  = Error("adc driver closed")
	ErrPart    = Error("unknown adc part")
)

// Driver reads raw conversions from an ADC (real or simulated).
type Driver interface {
	// Read performs one single-ended conversion on channel ch.
	Read(ch int) (uint16, error)
	Close() error
}

// Ensure drivers implement Driver.
var (
	_ Driver = (*MCP3xxx)(nil)
	_ Driver = (*GPIO)(nil)
	_ Driver = (*Sim)(nil)
	_ Driver = (*Fixed)(nil)
)

// Part selects the MCP3xxx family member.
type Part int

const (
	MCP300x Part = iota // MCP3004/MCP3008, 10-bit
	MCP320x             // MCP3204/MCP3208, 12-bit
)

// ParsePart parses a configuration part name.
func ParsePart(name string) (Part, error) {
	switch strings.ToLower(name) {
	case "mcp300x", "mcp3004", "mcp3008":
		return MCP300x, nil
	case "mcp320x", "mcp3204", "mcp3208":
		return MCP320x, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrPart, name)
}

// Bits returns the conversion width.
func (p Part) Bits() uint {
	if p == MCP320x {
		return 12
	}
	return 10
}

// MaxValue returns the number of distinct codes the part produces.
func (p Part) MaxValue() uint32 {
	return 1 << p.Bits()
}

// Channels returns the number of single-ended inputs addressable on the part.
func (p Part) Channels() int {
	return 8
}

func (p Part) String() string {
	if p == MCP320x {
		return "mcp320x"
	}
	return "mcp300x"
}

func checkChannel(p Part, ch int) error {
	if ch < 0 || ch >= p.Channels() {
		return fmt.Errorf("%w: %d", ErrChannel, ch)
	}
	return nil
}
