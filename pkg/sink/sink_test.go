package sink

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// journal records the order in which sinks were called.
type journal struct {
	calls []string
}

// recorder is a Sink that captures its byte stream and may fail.
type recorder struct {
	name string
	j    *journal
	buf  bytes.Buffer
	err  error
}

func (r *recorder) WriteByte(c byte) error {
	r.j.calls = append(r.j.calls, fmt.Sprintf("%s:%q", r.name, c))
	if r.err != nil {
		return r.err
	}
	return r.buf.WriteByte(c)
}

func (r *recorder) WriteString(s string) (int, error) {
	r.j.calls = append(r.j.calls, fmt.Sprintf("%s:%q", r.name, s))
	if r.err != nil {
		return 0, r.err
	}
	return r.buf.WriteString(s)
}

type flushCounter struct {
	n   int
	err error
}

func (f *flushCounter) Flush() error {
	f.n++
	return f.err
}

func TestConsole(t *testing.T) {
	var out strings.Builder
	c := NewConsole(&out)

	require.NoError(t, c.WriteByte('x'))
	n, err := c.WriteString(" 1.500")
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	require.NoError(t, c.WriteByte('\n'))

	assert.Equal(t, "x 1.500\n", out.String())
}

func TestFanout_Completeness(t *testing.T) {
	j := &journal{}
	a := &recorder{name: "a", j: j}
	b := &recorder{name: "b", j: j}
	f := NewFanout(a, b)
	assert.Equal(t, 2, f.Len())

	n, err := f.WriteString(" 1.465")
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	require.NoError(t, f.WriteByte(','))
	_, err = f.WriteString("  2.930")
	require.NoError(t, err)
	require.NoError(t, f.WriteByte('\n'))

	assert.Equal(t, " 1.465,  2.930\n", a.buf.String())
	assert.Equal(t, a.buf.String(), b.buf.String())

	// Every operation reaches a before b and finishes before the next starts.
	assert.Equal(t, []string{
		`a:" 1.465"`, `b:" 1.465"`,
		`a:','`, `b:','`,
		`a:"  2.930"`, `b:"  2.930"`,
		`a:'\n'`, `b:'\n'`,
	}, j.calls)
}

func TestFanout_SingleSink(t *testing.T) {
	var out strings.Builder
	f := NewFanout(&out)

	require.NoError(t, f.WriteByte('a'))
	_, err := f.WriteString("bc")
	require.NoError(t, err)
	assert.Equal(t, "abc", out.String())
}

func TestFanout_BestEffort(t *testing.T) {
	j := &journal{}
	full := errors.New("storage full")
	a := &recorder{name: "a", j: j, err: full}
	b := &recorder{name: "b", j: j}
	f := NewFanout(a, b)

	n, err := f.WriteString("abc")
	assert.ErrorIs(t, err, full)
	assert.Equal(t, 3, n)
	assert.Contains(t, err.Error(), "sink 0")

	err = f.WriteByte('\n')
	assert.ErrorIs(t, err, full)

	assert.Equal(t, "abc\n", b.buf.String(), "a failing sink never blocks the others")
	assert.Empty(t, a.buf.String())
}

func TestFanout_AllFail(t *testing.T) {
	j := &journal{}
	e1 := errors.New("removed")
	e2 := errors.New("unplugged")
	f := NewFanout(&recorder{name: "a", j: j, err: e1}, &recorder{name: "b", j: j, err: e2})

	n, err := f.WriteString("abc")
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestFanout_OwnsSinkList(t *testing.T) {
	var a, b strings.Builder
	sinks := []Sink{&a}
	f := NewFanout(sinks...)
	sinks[0] = &b

	require.NoError(t, f.WriteByte('x'))
	assert.Equal(t, "x", a.String())
	assert.Empty(t, b.String())
}

func TestFlushAll(t *testing.T) {
	failed := errors.New("flush failed")
	f1 := &flushCounter{err: failed}
	f2 := &flushCounter{}

	err := FlushAll(f1, f2)
	assert.ErrorIs(t, err, failed)
	assert.Equal(t, 1, f1.n)
	assert.Equal(t, 1, f2.n, "later flushers run after a failure")

	assert.NoError(t, FlushAll(f2))
	assert.NoError(t, FlushAll())
}
