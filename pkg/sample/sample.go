package sample

import (
	"fmt"
)

// Channel identifies one analog input of the converter.
type Channel int

const (
	Channel0 Channel = iota
	Channel1
)

// Sample is a pair of raw conversions taken in one iteration.
type Sample struct {
	X uint16
	Y uint16
}

// Reading is a Sample converted to engineering units.
type Reading struct {
	X float64
	Y float64
}

// Reader performs raw conversions. adc.Driver implementations satisfy it.
type Reader interface {
	Read(ch int) (uint16, error)
}

// Sampler reads channels through an ADC and scales raw counts linearly.
type Sampler struct {
	reader   Reader
	maxValue uint32
	scale    float64
}

// New creates a Sampler. The scale factor reference/maxValue is fixed for the
// lifetime of the Sampler.
func New(reader Reader, reference float64, maxValue uint32) *Sampler {
	if maxValue == 0 {
		maxValue = 1
	}
	return &Sampler{
		reader:   reader,
		maxValue: maxValue,
		scale:    reference / float64(maxValue),
	}
}

// Scale returns the units-per-count factor.
func (s *Sampler) Scale() float64 {
	return s.scale
}

// MaxValue returns the number of distinct codes of the converter.
func (s *Sampler) MaxValue() uint32 {
	return s.maxValue
}

// Read returns the raw conversion of channel ch.
func (s *Sampler) Read(ch Channel) (uint16, error) {
	raw, err := s.reader.Read(int(ch))
	if err != nil {
		return 0, fmt.Errorf("failed to read channel %d: %w", ch, err)
	}
	return raw, nil
}

// Convert scales a raw count to engineering units.
func (s *Sampler) Convert(raw uint16) float64 {
	return float64(raw) * s.scale
}

// InRange reports whether raw is a code the converter can produce.
func (s *Sampler) InRange(raw uint16) bool {
	return uint32(raw) < s.maxValue
}

// Sample reads channel x, then channel y.
func (s *Sampler) Sample(x, y Channel) (Sample, error) {
	xRaw, err := s.Read(x)
	if err != nil {
		return Sample{}, err
	}
	yRaw, err := s.Read(y)
	if err != nil {
		return Sample{}, err
	}
	return Sample{X: xRaw, Y: yRaw}, nil
}

// Reading converts both values of smp.
func (s *Sampler) Reading(smp Sample) Reading {
	return Reading{
		X: s.Convert(smp.X),
		Y: s.Convert(smp.Y),
	}
}
