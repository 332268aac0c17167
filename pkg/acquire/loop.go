// Package acquire runs the fixed-rate sample, format, write and flush cycle.
package acquire

import (
	"context"

	"github.com/itohio/daqlog/pkg/record"
	"github.com/itohio/daqlog/pkg/sample"
	"github.com/itohio/daqlog/pkg/schedule"
	"github.com/itohio/daqlog/pkg/sink"
	"github.com/rs/zerolog"
)

// Error is a sentinel error of the acquisition loop.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrNoSinks     = Error("no sinks configured")
	ErrNoSampler   = Error("no sampler configured")
	ErrNoScheduler = Error("no scheduler configured")
)

// Options configures a Loop.
type Options struct {
	Sampler   *sample.Sampler
	Sinks     []sink.Sink
	Flushers  []sink.Flusher // Forced to the medium after every record, in order
	Format    record.Format
	Scheduler *schedule.Scheduler
	X, Y      sample.Channel
	Limit     int // Iterations before Run returns, 0 for unbounded
	Logger    zerolog.Logger
}

// Stats counts what happened since the loop was created.
type Stats struct {
	Iterations  int
	Records     int
	ReadErrors  int
	WriteErrors int
	FlushErrors int
	Overruns    int
}

// Loop is the acquisition state machine. It is not safe for concurrent use.
type Loop struct {
	sampler  *sample.Sampler
	out      *sink.Fanout
	flushers []sink.Flusher
	format   record.Format
	sched    *schedule.Scheduler
	x, y     sample.Channel
	limit    int
	logger   zerolog.Logger

	stats Stats
}

// New validates opts and composes the sinks into a fan-out.
func New(opts Options) (*Loop, error) {
	if opts.Sampler == nil {
		return nil, ErrNoSampler
	}
	if len(opts.Sinks) == 0 {
		return nil, ErrNoSinks
	}
	if opts.Scheduler == nil {
		return nil, ErrNoScheduler
	}

	return &Loop{
		sampler:  opts.Sampler,
		out:      sink.NewFanout(opts.Sinks...),
		flushers: append([]sink.Flusher(nil), opts.Flushers...),
		format:   opts.Format,
		sched:    opts.Scheduler,
		x:        opts.X,
		y:        opts.Y,
		limit:    opts.Limit,
		logger:   opts.Logger,
	}, nil
}

// Step runs one iteration: read both channels, write one record to every
// sink and flush the persistent ones. A failed read skips the record. Write
// and flush errors are reported after every sink had its turn.
func (l *Loop) Step() error {
	l.stats.Iterations++

	smp, err := l.sampler.Sample(l.x, l.y)
	if err != nil {
		l.stats.ReadErrors++
		l.logger.Warn().Err(err).Int("iteration", l.stats.Iterations).Msg("skipping record")
		return err
	}

	for _, raw := range [...]uint16{smp.X, smp.Y} {
		if !l.sampler.InRange(raw) {
			l.logger.Warn().Uint16("raw", raw).Uint32("max", l.sampler.MaxValue()).Msg("conversion out of range")
		}
	}

	r := l.sampler.Reading(smp)
	werr := l.format.Write(l.out, r.X, r.Y)
	if werr != nil {
		l.stats.WriteErrors++
		l.logger.Error().Err(werr).Msg("failed to write record")
	}
	l.stats.Records++

	ferr := sink.FlushAll(l.flushers...)
	if ferr != nil {
		l.stats.FlushErrors++
		l.logger.Error().Err(ferr).Msg("failed to flush")
	}

	if werr != nil {
		return werr
	}
	return ferr
}

// Run alternates Step and the scheduler wait until the limit is reached or
// ctx is cancelled. Step errors are not fatal. No wait follows the last
// iteration of a limited run.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().
		Dur("period", l.sched.Period()).
		Int("sinks", l.out.Len()).
		Int("limit", l.limit).
		Msg("acquisition started")

	for n := 1; l.limit == 0 || n <= l.limit; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_ = l.Step()

		if n == l.limit {
			break
		}

		before := l.sched.Overruns()
		if err := l.sched.Wait(ctx); err != nil {
			return err
		}
		if l.sched.Overruns() != before {
			l.logger.Debug().Time("deadline", l.sched.Deadline()).Msg("overrun")
		}
	}

	l.logger.Info().Int("records", l.stats.Records).Msg("acquisition finished")
	return nil
}

// Stats returns a snapshot of the counters.
func (l *Loop) Stats() Stats {
	s := l.stats
	s.Overruns = l.sched.Overruns()
	return s
}
