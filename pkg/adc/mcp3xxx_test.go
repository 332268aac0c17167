package adc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

// chipConn emulates an MCP3xxx on the other end of an SPI connection.
type chipConn struct {
	part   Part
	values [8]uint16
	frames [][]byte
	err    error
}

func (c *chipConn) String() string               { return "chip" }
func (c *chipConn) Duplex() conn.Duplex          { return conn.Full }
func (c *chipConn) TxPackets([]spi.Packet) error { return errors.New("not supported") }

func (c *chipConn) Tx(w, r []byte) error {
	c.frames = append(c.frames, append([]byte(nil), w...))
	if c.err != nil {
		return c.err
	}

	var ch int
	if c.part == MCP320x {
		ch = int(w[0]&0x01)<<2 | int(w[1]>>6)
	} else {
		ch = int(w[1]>>4) & 0x07
	}
	v := c.values[ch]

	// Leading bits are undefined on the wire; fill them with ones.
	r[0] = 0xFF
	if c.part == MCP320x {
		r[1] = 0xF0 | byte(v>>8)&0x0F
	} else {
		r[1] = 0xFC | byte(v>>8)&0x03
	}
	r[2] = byte(v)
	return nil
}

func TestParsePart(t *testing.T) {
	tests := []struct {
		name    string
		want    Part
		wantErr bool
	}{
		{"mcp300x", MCP300x, false},
		{"MCP3008", MCP300x, false},
		{"mcp3004", MCP300x, false},
		{"mcp320x", MCP320x, false},
		{"mcp3208", MCP320x, false},
		{"ads1115", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePart(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPart)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPart_MaxValue(t *testing.T) {
	assert.Equal(t, uint32(1024), MCP300x.MaxValue())
	assert.Equal(t, uint32(4096), MCP320x.MaxValue())
	assert.Equal(t, "mcp300x", MCP300x.String())
	assert.Equal(t, "mcp320x", MCP320x.String())
}

func TestCommand(t *testing.T) {
	assert.Equal(t, [3]byte{0x01, 0x80, 0x00}, command(MCP300x, 0))
	assert.Equal(t, [3]byte{0x01, 0x90, 0x00}, command(MCP300x, 1))
	assert.Equal(t, [3]byte{0x01, 0xF0, 0x00}, command(MCP300x, 7))
	assert.Equal(t, [3]byte{0x06, 0x00, 0x00}, command(MCP320x, 0))
	assert.Equal(t, [3]byte{0x06, 0x40, 0x00}, command(MCP320x, 1))
	assert.Equal(t, [3]byte{0x07, 0xC0, 0x00}, command(MCP320x, 7))
}

func TestMCP3xxx_Read(t *testing.T) {
	for _, part := range []Part{MCP300x, MCP320x} {
		t.Run(part.String(), func(t *testing.T) {
			chip := &chipConn{part: part}
			top := uint16(part.MaxValue() - 1)
			chip.values = [8]uint16{0, 100, 200, top, 512, 1, 1000, 2}

			d := NewMCP3xxx(chip, part)
			for ch, want := range chip.values {
				got, err := d.Read(ch)
				require.NoError(t, err)
				assert.Equal(t, want, got, "channel %d", ch)
			}
			assert.Len(t, chip.frames, 8)
			for _, f := range chip.frames {
				assert.Len(t, f, 3)
			}
		})
	}
}

func TestMCP3xxx_ReadErrors(t *testing.T) {
	chip := &chipConn{part: MCP300x}
	d := NewMCP3xxx(chip, MCP300x)

	_, err := d.Read(8)
	assert.ErrorIs(t, err, ErrChannel)
	_, err = d.Read(-1)
	assert.ErrorIs(t, err, ErrChannel)
	assert.Empty(t, chip.frames, "out of range channels never reach the bus")

	busErr := errors.New("bus glitch")
	chip.err = busErr
	_, err = d.Read(0)
	assert.ErrorIs(t, err, busErr)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	_, err = d.Read(0)
	assert.ErrorIs(t, err, ErrClosed)
}
