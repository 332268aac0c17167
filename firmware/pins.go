//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	LOG_FREQUENCY_HZ = 2 // Records per second
	CHANNEL_X        = 0 // Index into the ADC pin list
	CHANNEL_Y        = 1

	// ADC configuration
	ADC_REFERENCE_MV   = 3300 // Pin reference voltage in millivolts (3.3V)
	ADC_RESOLUTION     = 10   // ADC resolution in bits (10-bit = 0-1023)
	ADC_MAX_VALUE      = 1 << ADC_RESOLUTION
	ANALOG_REFERENCE_V = 15 // Full scale in engineering units after the input divider

	// ADC pins
	PIN_X = machine.A0
	PIN_Y = machine.A1

	// Serial configuration
	// Line format: " 1.465,  2.930\n" = 15 bytes per record
	// 2 records/sec * 15 bytes = 30 bytes/sec, far below 115200 baud
	UART_BAUD_RATE = 115200
)
