package adc

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/spi/mcp3w0c"
)

// Pins assigns the GPIO lines of a bit-bashed SPI bus.
type Pins struct {
	Chip string // e.g. "gpiochip0"
	MOSI int    // ADC DIN
	MISO int    // ADC DOUT
	SCLK int
	CS   int
}

// GPIO reads an MCP3xxx through a bit-bashed SPI bus on character device
// GPIO lines. All lines other than MISO are driven as outputs.
type GPIO struct {
	dev  *mcp3w0c.MCP3w0c
	part Part

	mu     sync.Mutex
	closed bool
}

// OpenGPIO requests the bus lines and returns a driver for the part.
func OpenGPIO(pins Pins, part Part, tclk time.Duration) (*GPIO, error) {
	c, err := gpiod.NewChip(pins.Chip, gpiod.WithConsumer("daqlog"))
	if err != nil {
		return nil, fmt.Errorf("failed to open gpio chip %s: %w", pins.Chip, err)
	}
	// The lines stay requested after the chip is closed.
	defer c.Close()

	var dev *mcp3w0c.MCP3w0c
	switch part {
	case MCP320x:
		dev, err = mcp3w0c.NewMCP3208(c, pins.SCLK, pins.CS, pins.MOSI, pins.MISO, mcp3w0c.WithTclk(tclk))
	default:
		dev, err = mcp3w0c.NewMCP3008(c, pins.SCLK, pins.CS, pins.MOSI, pins.MISO, mcp3w0c.WithTclk(tclk))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to request %s lines: %w", part, err)
	}

	return &GPIO{
		dev:  dev,
		part: part,
	}, nil
}

// Read performs a single-ended conversion on channel ch.
func (g *GPIO) Read(ch int) (uint16, error) {
	if err := checkChannel(g.part, ch); err != nil {
		return 0, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return 0, ErrClosed
	}

	v, err := g.dev.Read(ch)
	if err != nil {
		return 0, fmt.Errorf("bit-bashed read on channel %d: %w", ch, err)
	}
	return v, nil
}

// Close releases the GPIO lines.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	g.dev.Close()
	return nil
}
