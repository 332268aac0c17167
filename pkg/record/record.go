// Package record renders readings as aligned, delimited text lines.
package record

import (
	"strconv"
	"strings"

	"github.com/itohio/daqlog/pkg/sink"
	"go.uber.org/multierr"
)

// Format is the fixed layout applied to every record of a log.
type Format struct {
	Width     int    // Minimum characters per field
	Pad       byte   // Fill character, placed left of the number
	Precision int    // Digits after the decimal point
	Delimiter string // Between the two fields
}

// Default returns width 6, space padding, 3 decimals and ", " between fields.
func Default() Format {
	return Format{
		Width:     6,
		Pad:       ' ',
		Precision: 3,
		Delimiter: ", ",
	}
}

// Field renders v right-aligned to Width. Wider values are not truncated.
// A digit pad goes between the sign and the number.
func (f Format) Field(v float64) string {
	s := strconv.FormatFloat(v, 'f', f.Precision, 64)
	if len(s) >= f.Width {
		return s
	}
	fill := strings.Repeat(string(f.Pad), f.Width-len(s))
	if f.Pad >= '0' && f.Pad <= '9' && s[0] == '-' {
		return "-" + fill + s[1:]
	}
	return fill + s
}

// Line returns the complete record for x and y including the line break.
func (f Format) Line(x, y float64) string {
	return f.Field(x) + f.Delimiter + f.Field(y) + "\n"
}

// Write emits one record to s. Every part is attempted even if an earlier one
// failed, so a fan-out keeps its members in step.
func (f Format) Write(s sink.Sink, x, y float64) error {
	var errs error
	_, err := s.WriteString(f.Field(x))
	errs = multierr.Append(errs, err)
	_, err = s.WriteString(f.Delimiter)
	errs = multierr.Append(errs, err)
	_, err = s.WriteString(f.Field(y))
	errs = multierr.Append(errs, err)
	errs = multierr.Append(errs, s.WriteByte('\n'))
	return errs
}

// Header emits a column header aligned with the records.
func (f Format) Header(s sink.Sink, x, y string) error {
	var errs error
	_, err := s.WriteString(f.align(x))
	errs = multierr.Append(errs, err)
	_, err = s.WriteString(f.Delimiter)
	errs = multierr.Append(errs, err)
	_, err = s.WriteString(f.align(y))
	errs = multierr.Append(errs, err)
	errs = multierr.Append(errs, s.WriteByte('\n'))
	return errs
}

func (f Format) align(name string) string {
	if len(name) >= f.Width {
		return name
	}
	return strings.Repeat(" ", f.Width-len(name)) + name
}
