//go:build !tinygo

package acquire

import (
	"fmt"
	"io"
	"os"

	"github.com/itohio/daqlog/pkg/adc"
	"github.com/itohio/daqlog/pkg/config"
	"github.com/itohio/daqlog/pkg/record"
	"github.com/itohio/daqlog/pkg/sample"
	"github.com/itohio/daqlog/pkg/schedule"
	"github.com/itohio/daqlog/pkg/sink"
	"github.com/itohio/daqlog/pkg/storage"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Env carries the process resources Setup binds to.
type Env struct {
	Stdout io.Writer      // Console when no serial port is configured, os.Stdout if nil
	Clock  schedule.Clock // System clock if nil
	Logger zerolog.Logger
}

// closers releases resources in reverse order of acquisition.
type closers []io.Closer

func (c closers) Close() error {
	var errs error
	for i := len(c) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, c[i].Close())
	}
	return errs
}

// Setup builds a Loop from cfg: the ADC driver, the sampler, the enabled sinks
// and the scheduler, in that order. The returned Closer releases the driver,
// console port, log file and volume. On error everything acquired so far is
// already released.
func Setup(cfg *config.Config, env Env) (loop *Loop, closer io.Closer, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := env.Logger
	var res closers
	defer func() {
		if err != nil {
			err = multierr.Append(err, res.Close())
		}
	}()

	drv, err := adc.Open(cfg.ADC, cfg.Simulation)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open adc: %w", err)
	}
	res = append(res, drv)
	logger.Info().Str("driver", cfg.ADC.Driver).Str("part", cfg.ADC.Part).Msg("adc ready")

	if part, perr := adc.ParsePart(cfg.ADC.Part); perr == nil && part.MaxValue() != cfg.ADC.MaxValue {
		logger.Warn().
			Uint32("configured", cfg.ADC.MaxValue).
			Uint32("part", part.MaxValue()).
			Msg("max_value differs from the part resolution")
	}

	sampler := sample.New(drv, cfg.ADC.Reference, cfg.ADC.MaxValue)

	var (
		sinks    []sink.Sink
		flushers []sink.Flusher
	)

	if cfg.Sinks.Console {
		con, c, err := openConsole(cfg.Console, env.Stdout)
		if err != nil {
			return nil, nil, err
		}
		if c != nil {
			res = append(res, c)
			logger.Info().Str("port", cfg.Console.Port).Int("baud", cfg.Console.BaudRate).Msg("console on serial port")
		}
		sinks = append(sinks, con)
	}

	format := record.Format{
		Width:     cfg.Format.Width,
		Pad:       cfg.PadChar(),
		Precision: *cfg.Format.Precision,
		Delimiter: cfg.Format.Delimiter,
	}

	if cfg.Sinks.Storage {
		vol := storage.NewVolume(cfg.Storage.Volume)
		if err := vol.Mount(); err != nil {
			return nil, nil, err
		}
		res = append(res, vol)

		if cfg.Storage.Overwrite {
			exists, err := vol.Exists(cfg.Storage.File)
			if err != nil {
				return nil, nil, err
			}
			if exists {
				if err := vol.Remove(cfg.Storage.File); err != nil {
					return nil, nil, err
				}
			}
		}

		f, err := vol.Open(cfg.Storage.File)
		if err != nil {
			return nil, nil, err
		}
		res = append(res, f)

		if f.Created() && cfg.Format.Header {
			if err := format.Header(f, channelName(cfg.Sampling.ChannelX), channelName(cfg.Sampling.ChannelY)); err != nil {
				return nil, nil, fmt.Errorf("failed to write header: %w", err)
			}
		}
		if err := sink.FlushAll(f, vol); err != nil {
			return nil, nil, err
		}

		logger.Info().Str("volume", vol.Root()).Str("file", f.Name()).Bool("created", f.Created()).Msg("storage ready")
		sinks = append(sinks, f)
		flushers = append(flushers, f, vol)
	}

	// Created last so that the first deadline is one period after INIT.
	sched := schedule.New(env.Clock, cfg.Period())

	loop, err = New(Options{
		Sampler:   sampler,
		Sinks:     sinks,
		Flushers:  flushers,
		Format:    format,
		Scheduler: sched,
		X:         sample.Channel(cfg.Sampling.ChannelX),
		Y:         sample.Channel(cfg.Sampling.ChannelY),
		Limit:     cfg.Sampling.Count,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, err
	}

	return loop, res, nil
}

func openConsole(cfg config.ConsoleConfig, stdout io.Writer) (*sink.Console, io.Closer, error) {
	if cfg.Port != "" {
		return sink.OpenSerial(cfg.Port, cfg.BaudRate)
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return sink.NewConsole(stdout), nil, nil
}

func channelName(ch int) string {
	return fmt.Sprintf("ch%d", ch)
}
