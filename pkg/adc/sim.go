package adc

import (
	"sync"
	"time"

	"github.com/chewxy/math32"
)

// SimConfig contains simulated waveform parameters. Levels are fractions of
// full scale.
type SimConfig struct {
	Part      Part
	Amplitude float32
	Offset    float32
	Period    time.Duration
	Noise     float32
}

// Sim simulates an MCP3xxx whose channels carry phase-shifted sine waves.
type Sim struct {
	cfg SimConfig
	now func() time.Time

	mu     sync.Mutex
	start  time.Time
	closed bool
}

// NewSim creates a simulated ADC. A nil config selects defaults.
func NewSim(cfg *SimConfig) *Sim {
	if cfg == nil {
		cfg = &SimConfig{
			Part:      MCP300x,
			Amplitude: 0.25,
			Offset:    0.5,
			Period:    10 * time.Second,
			Noise:     0.002,
		}
	}
	if cfg.Period <= 0 {
		cfg.Period = 10 * time.Second
	}

	return &Sim{
		cfg:   *cfg,
		now:   time.Now,
		start: time.Now(),
	}
}

// Read returns the waveform value of channel ch at the current time.
func (s *Sim) Read(ch int) (uint16, error) {
	if err := checkChannel(s.cfg.Part, ch); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	return s.valueAt(ch, s.now().Sub(s.start)), nil
}

// Close stops the simulated device.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// valueAt computes the raw code for channel ch after elapsed time.
func (s *Sim) valueAt(ch int, elapsed time.Duration) uint16 {
	t := float32(elapsed.Seconds())
	phase := float32(ch) * math32.Pi / 2
	w := 2 * math32.Pi / float32(s.cfg.Period.Seconds())

	level := s.cfg.Offset + s.cfg.Amplitude*math32.Sin(w*t+phase)

	// Deterministic pseudo-noise, two incommensurate tones.
	level += (math32.Sin(t*997) + math32.Cos(t*1301)) * s.cfg.Noise * 0.5

	full := float32(s.cfg.Part.MaxValue())
	code := math32.Floor(level * full)
	if code < 0 {
		code = 0
	} else if code > full-1 {
		code = full - 1
	}
	return uint16(code)
}
