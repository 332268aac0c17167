package adc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSim_NilConfig(t *testing.T) {
	s := NewSim(nil)
	assert.NotNil(t, s)
	assert.Equal(t, MCP300x, s.cfg.Part)
	assert.Equal(t, float32(0.25), s.cfg.Amplitude)
	assert.Equal(t, float32(0.5), s.cfg.Offset)
	assert.Equal(t, 10*time.Second, s.cfg.Period)
}

func TestSim_ValueAt(t *testing.T) {
	s := NewSim(&SimConfig{
		Part:      MCP300x,
		Amplitude: 0.25,
		Offset:    0.5,
		Period:    4 * time.Second,
	})

	tests := []struct {
		name    string
		ch      int
		elapsed time.Duration
		want    uint16
	}{
		{"ch0 start", 0, 0, 512},
		{"ch0 quarter period peak", 0, time.Second, 768},
		{"ch0 three quarter trough", 0, 3 * time.Second, 256},
		{"ch1 leads by quarter period", 1, 0, 768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.valueAt(tt.ch, tt.elapsed)
			assert.InDelta(t, float64(tt.want), float64(got), 1)
		})
	}
}

func TestSim_Clamps(t *testing.T) {
	s := NewSim(&SimConfig{Part: MCP320x, Amplitude: 2, Offset: 0.5, Period: time.Second})

	for i := 0; i < 100; i++ {
		v := s.valueAt(0, time.Duration(i)*10*time.Millisecond)
		assert.Less(t, uint32(v), MCP320x.MaxValue())
	}
}

func TestSim_Read(t *testing.T) {
	s := NewSim(nil)
	now := s.start.Add(2500 * time.Millisecond)
	s.now = func() time.Time { return now }

	v, err := s.Read(0)
	require.NoError(t, err)
	assert.Less(t, uint32(v), MCP300x.MaxValue())

	_, err = s.Read(9)
	assert.ErrorIs(t, err, ErrChannel)

	require.NoError(t, s.Close())
	_, err = s.Read(0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFixed(t *testing.T) {
	f := NewFixed(map[int]uint16{0: 100, 1: 200})

	v, err := f.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(100), v)

	v, err = f.Read(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(200), v)

	_, err = f.Read(2)
	assert.ErrorIs(t, err, ErrChannel)

	glitch := errors.New("glitch")
	f.Simulate(1, 0, glitch)
	_, err = f.Read(1)
	assert.ErrorIs(t, err, glitch)

	f.Simulate(1, 300, nil)
	v, err = f.Read(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(300), v)

	assert.Equal(t, 6, f.Reads())
	assert.NoError(t, f.Close())
}
