package sample

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubReader returns fixed values per channel.
type stubReader struct {
	values map[int]uint16
	err    map[int]error
	order  []int
}

func (r *stubReader) Read(ch int) (uint16, error) {
	r.order = append(r.order, ch)
	if err := r.err[ch]; err != nil {
		return 0, err
	}
	return r.values[ch], nil
}

func TestConvert(t *testing.T) {
	s := New(&stubReader{}, 15, 1024)

	tests := []struct {
		name string
		raw  uint16
		want float64
	}{
		{"zero", 0, 0},
		{"full scale minus one", 1023, 1023 * 15.0 / 1024},
		{"ch0 scenario", 100, 1.46484375},
		{"ch1 scenario", 200, 2.9296875},
		{"half", 512, 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Convert(tt.raw), 1e-12)
		})
	}
}

func TestConvert_Monotonic(t *testing.T) {
	s := New(&stubReader{}, 3.3, 4096)

	prev := s.Convert(0)
	for raw := uint16(1); raw < 4096; raw++ {
		v := s.Convert(raw)
		assert.Greater(t, v, prev, "raw %d", raw)
		prev = v
	}
}

func TestScale(t *testing.T) {
	s := New(&stubReader{}, 15, 1024)
	assert.Equal(t, 15.0/1024, s.Scale())
	assert.Equal(t, uint32(1024), s.MaxValue())
	assert.True(t, s.InRange(1023))
	assert.False(t, s.InRange(1024))
}

func TestNew_ZeroMaxValue(t *testing.T) {
	s := New(&stubReader{}, 5, 0)
	assert.Equal(t, uint32(1), s.MaxValue())
	assert.Equal(t, 5.0, s.Scale())
}

func TestSample(t *testing.T) {
	r := &stubReader{values: map[int]uint16{0: 100, 1: 200}}
	s := New(r, 15, 1024)

	smp, err := s.Sample(Channel0, Channel1)
	require.NoError(t, err)
	assert.Equal(t, Sample{X: 100, Y: 200}, smp)
	assert.Equal(t, []int{0, 1}, r.order, "channels are read sequentially, x first")

	reading := s.Reading(smp)
	assert.InDelta(t, 1.46484375, reading.X, 1e-12)
	assert.InDelta(t, 2.9296875, reading.Y, 1e-12)
}

func TestSample_ReadError(t *testing.T) {
	glitch := errors.New("bus glitch")

	r := &stubReader{
		values: map[int]uint16{0: 100, 1: 200},
		err:    map[int]error{0: glitch},
	}
	s := New(r, 15, 1024)

	_, err := s.Sample(Channel0, Channel1)
	assert.ErrorIs(t, err, glitch)
	assert.Equal(t, []int{0}, r.order, "second channel is not read after a failure")

	r.err = map[int]error{1: glitch}
	r.order = nil
	_, err = s.Sample(Channel0, Channel1)
	assert.ErrorIs(t, err, glitch)
	assert.Equal(t, []int{0, 1}, r.order)
}
