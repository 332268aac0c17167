package adc

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// DefaultSpeed is the SPI clock the MCP3xxx parts tolerate at 2.7V.
const DefaultSpeed = physic.MegaHertz

// MCP3xxx reads an MCP3004/3008/3204/3208 over a hardware SPI connection.
type MCP3xxx struct {
	conn spi.Conn
	part Part
	port spi.PortCloser // nil when the connection is owned by the caller

	mu     sync.Mutex
	tx, rx [3]byte
	closed bool
}

// NewMCP3xxx wraps an already connected SPI connection (mode 0, 8 bits).
func NewMCP3xxx(conn spi.Conn, part Part) *MCP3xxx {
	return &MCP3xxx{
		conn: conn,
		part: part,
	}
}

// OpenSPI initializes the host drivers, opens the named SPI port (empty for
// the first available) and connects to an MCP3xxx on it.
func OpenSPI(port string, speed physic.Frequency, part Part) (*MCP3xxx, error) {
	if speed == 0 {
		speed = DefaultSpeed
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}

	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("failed to open spi port %q: %w", port, err)
	}

	if err := p.LimitSpeed(speed); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to limit spi speed: %w", err)
	}

	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", part, err)
	}

	d := NewMCP3xxx(c, part)
	d.port = p
	return d, nil
}

// Read performs a single-ended conversion on channel ch.
func (d *MCP3xxx) Read(ch int) (uint16, error) {
	if err := checkChannel(d.part, ch); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrClosed
	}

	d.tx = command(d.part, ch)
	if err := d.conn.Tx(d.tx[:], d.rx[:]); err != nil {
		return 0, fmt.Errorf("spi transfer on channel %d: %w", ch, err)
	}

	return decode(d.part, d.rx), nil
}

// Part returns the converter model.
func (d *MCP3xxx) Part() Part {
	return d.part
}

// Close releases the SPI port if it was opened by OpenSPI.
func (d *MCP3xxx) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if d.port != nil {
		return d.port.Close()
	}
	return nil
}

// command builds the three byte request frame.
// MCP300x: start bit in byte 0, SGL|D2..D0 in the high nibble of byte 1.
// MCP320x: start|SGL|D2 in byte 0, D1..D0 in the top bits of byte 1.
func command(p Part, ch int) [3]byte {
	if p == MCP320x {
		return [3]byte{0x06 | byte(ch>>2)&0x01, byte(ch&0x03) << 6, 0}
	}
	return [3]byte{0x01, byte(0x08|ch) << 4, 0}
}

// decode extracts the conversion result, discarding the undefined leading bits.
func decode(p Part, rx [3]byte) uint16 {
	if p == MCP320x {
		return uint16(rx[1]&0x0F)<<8 | uint16(rx[2])
	}
	return uint16(rx[1]&0x03)<<8 | uint16(rx[2])
}
