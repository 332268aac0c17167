package adc

import (
	"fmt"

	"github.com/itohio/daqlog/pkg/config"
	"periph.io/x/conn/v3/physic"
)

// Open constructs the driver selected by cfg. The caller owns the result and
// must Close it.
func Open(cfg config.ADCConfig, sim config.SimulationConfig) (Driver, error) {
	part, err := ParsePart(cfg.Part)
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.DriverSPI:
		d, err := OpenSPI(cfg.SPI.Port, physic.Frequency(cfg.SPI.SpeedHz)*physic.Hertz, part)
		if err != nil {
			return nil, err
		}
		return d, nil

	case config.DriverGPIO:
		pins := Pins{
			Chip: cfg.Pins.Chip,
			MOSI: cfg.Pins.MOSI,
			MISO: cfg.Pins.MISO,
			SCLK: cfg.Pins.SCLK,
			CS:   cfg.Pins.CS,
		}
		d, err := OpenGPIO(pins, part, cfg.Pins.Tclk)
		if err != nil {
			return nil, err
		}
		return d, nil

	case config.DriverSim:
		return NewSim(&SimConfig{
			Part:      part,
			Amplitude: float32(sim.Amplitude),
			Offset:    float32(sim.Offset),
			Period:    sim.Period,
			Noise:     float32(sim.Noise),
		}), nil

	case config.DriverFixed:
		values := make(map[int]uint16, len(sim.Values))
		for ch, v := range sim.Values {
			values[ch] = v
		}
		return NewFixed(values), nil
	}

	return nil, fmt.Errorf("unknown adc driver %q", cfg.Driver)
}
