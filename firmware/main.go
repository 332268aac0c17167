//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"context"
	"machine"
	"time"

	"github.com/itohio/daqlog/pkg/acquire"
	"github.com/itohio/daqlog/pkg/record"
	"github.com/itohio/daqlog/pkg/sample"
	"github.com/itohio/daqlog/pkg/schedule"
	"github.com/itohio/daqlog/pkg/sink"
	"github.com/rs/zerolog"
)

var uart = machine.UART0

// adcPins reads the on-chip converter. machine.ADC.Get scales every result to
// 16 bits regardless of the configured resolution.
type adcPins []machine.ADC

// Error is a firmware sentinel error.
type Error string

func (e Error) Error() string {
	return string(e)
}

const ErrChannel = Error("adc channel out of range")

func (p adcPins) Read(ch int) (uint16, error) {
	if ch < 0 || ch >= len(p) {
		return 0, ErrChannel
	}
	return p[ch].Get() >> (16 - ADC_RESOLUTION), nil
}

func main() {
	machine.InitADC()

	PIN_X.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_Y.Configure(machine.PinConfig{Mode: machine.PinInput})

	adcs := adcPins{{Pin: PIN_X}, {Pin: PIN_Y}}
	for i := range adcs {
		adcs[i].Configure(machine.ADCConfig{
			Reference:  ADC_REFERENCE_MV,
			Resolution: ADC_RESOLUTION,
		})
	}

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	loop, err := acquire.New(acquire.Options{
		Sampler:   sample.New(adcs, ANALOG_REFERENCE_V, ADC_MAX_VALUE),
		Sinks:     []sink.Sink{sink.NewConsole(uart)},
		Format:    record.Default(),
		Scheduler: schedule.New(nil, schedule.Period(LOG_FREQUENCY_HZ)),
		X:         CHANNEL_X,
		Y:         CHANNEL_Y,
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		halt(err)
	}

	// Returns only if the loop cannot continue: no limit is set and the
	// context is never cancelled.
	halt(loop.Run(context.Background()))
}

// halt reports err on the console forever.
func halt(err error) {
	if err == nil {
		err = Error("acquisition stopped")
	}
	for {
		println(err.Error())
		time.Sleep(time.Second)
	}
}
