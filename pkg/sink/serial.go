//go:build !tinygo

package sink

import (
	"fmt"
	"io"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// DefaultBaudRate is the console UART speed.
const DefaultBaudRate = 115200

// Port represents a serial port.
type Port struct {
	Name        string
	Description string // USB product and VID:PID, empty for native UARTs
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, p := range ports {
		result = append(result, Port{
			Name:        p.Name,
			Description: describe(p),
		})
	}

	return result, nil
}

func describe(p *enumerator.PortDetails) string {
	if !p.IsUSB {
		return ""
	}
	id := p.VID + ":" + p.PID
	if p.Product == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", p.Product, id)
}

// OpenSerial opens a UART and returns it as a console sink together with the
// port handle, which the caller must close. No flow control is configured.
func OpenSerial(port string, baudRate int) (*Console, io.Closer, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}

	return NewConsole(p), p, nil
}
