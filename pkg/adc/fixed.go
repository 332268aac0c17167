package adc

import "sync"

// Fixed returns constant per-channel codes. It is used for dry runs and as a
// test double.
type Fixed struct {
	mu     sync.Mutex
	values map[int]uint16
	errs   map[int]error
	reads  int
}

// NewFixed creates a driver returning values[ch] for each channel.
func NewFixed(values map[int]uint16) *Fixed {
	f := &Fixed{
		values: make(map[int]uint16, len(values)),
		errs:   make(map[int]error),
	}
	for ch, v := range values {
		f.values[ch] = v
	}
	return f
}

// Simulate sets the value and error returned for channel ch.
func (f *Fixed) Simulate(ch int, value uint16, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[ch] = value
	if err != nil {
		f.errs[ch] = err
	} else {
		delete(f.errs, ch)
	}
}

// Read returns the configured value for channel ch.
func (f *Fixed) Read(ch int) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if err := f.errs[ch]; err != nil {
		return 0, err
	}
	v, ok := f.values[ch]
	if !ok {
		return 0, ErrChannel
	}
	return v, nil
}

// Reads returns the number of Read calls so far.
func (f *Fixed) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Close does nothing.
func (f *Fixed) Close() error {
	return nil
}
