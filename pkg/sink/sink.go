package sink

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// Sink accepts single characters and strings. It is the io.ByteWriter and
// io.StringWriter method set, so *bufio.Writer and *strings.Builder are sinks.
type Sink interface {
	WriteByte(c byte) error
	WriteString(s string) (int, error)
}

// Flusher is a sink backed by storage that must be forced to the medium.
type Flusher interface {
	Flush() error
}

// Console adapts an unbuffered byte stream (stdout, a UART) to a Sink.
type Console struct {
	w   io.Writer
	buf [1]byte
}

// NewConsole wraps w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// WriteByte transmits a single character.
func (c *Console) WriteByte(b byte) error {
	c.buf[0] = b
	_, err := c.w.Write(c.buf[:])
	return err
}

// WriteString transmits s.
func (c *Console) WriteString(s string) (int, error) {
	return io.WriteString(c.w, s)
}

// Fanout broadcasts every write to a fixed, ordered list of sinks.
//
// Writes are best-effort: a failing sink never prevents the remaining sinks
// from receiving the same data. All failures are combined into the returned
// error. Fanout performs no buffering.
type Fanout struct {
	sinks []Sink
}

var _ Sink = (*Fanout)(nil)

// NewFanout composes sinks in the given order. The order never changes.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: append([]Sink(nil), sinks...)}
}

// Len returns the number of underlying sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// WriteByte writes c to every sink in order.
func (f *Fanout) WriteByte(c byte) error {
	var errs error
	for i, s := range f.sinks {
		if err := s.WriteByte(c); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errs
}

// WriteString writes s to every sink in order. The count is len(s) when at
// least one sink accepted the whole string.
func (f *Fanout) WriteString(s string) (int, error) {
	var (
		errs error
		best int
	)
	for i, sk := range f.sinks {
		n, err := sk.WriteString(s)
		if n > best {
			best = n
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return best, errs
}

// FlushAll flushes each flusher in order, best-effort.
func FlushAll(flushers ...Flusher) error {
	var errs error
	for _, f := range flushers {
		errs = multierr.Append(errs, f.Flush())
	}
	return errs
}
