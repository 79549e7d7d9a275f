// Package parser turns SRIM collision logs into ordered collision records.
//
// Only lines that look like data (scientific notation in the energy column)
// and carry none of the format's exclude words are parsed; everything else
// is skipped. A data line that cannot be parsed fails the whole run.
package parser

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/okian/srim/internal/domain/model"
	"github.com/okian/srim/pkg/metrics"
)

// Scanner limits and cancellation granularity.
const (
	initialLineBuffer = 64 * 1024
	maxLineLength     = 1024 * 1024
	ctxCheckInterval  = 4096
)

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithFormat sets the log dialect.
func WithFormat(f Format) Option {
	return func(p *Parser) {
		p.format = f
	}
}

// Parser reads collision logs of a single format.
type Parser struct {
	format       Format
	excludeWords [][]byte
}

// New creates a Parser for DefaultFormat unless overridden by options.
func New(opts ...Option) (*Parser, error) {
	p := &Parser{format: DefaultFormat()}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.format.Validate(); err != nil {
		return nil, err
	}
	p.excludeWords = make([][]byte, len(p.format.ExcludeWords))
	for i, w := range p.format.ExcludeWords {
		p.excludeWords[i] = []byte(w)
	}
	return p, nil
}

// Format returns the dialect the parser was built with.
func (p *Parser) Format() Format {
	return p.format
}

// ParseFile reads the collision log at path. Open and read failures wrap ErrFileAccess.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	defer func() { _ = f.Close() }()

	return p.Parse(ctx, f)
}

// Parse reads all records from r and returns them stable-sorted by depth.
func (p *Parser) Parse(ctx context.Context, r io.Reader) ([]model.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialLineBuffer), maxLineLength)

	var (
		records    []model.Record
		lineNo     int
		candidates int
	)
	for sc.Scan() {
		lineNo++
		if lineNo%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("parse cancelled: %w", err)
			}
		}

		line := sc.Bytes()
		if !p.IsCandidate(line) {
			continue
		}
		candidates++

		rec, err := p.ParseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &MalformedRecordError{
				Line: lineNo + 1,
				Err:  fmt.Errorf("line longer than %d bytes: %w", maxLineLength, err),
			}
		}
		return nil, fmt.Errorf("%w: line %d: %w", ErrFileAccess, lineNo+1, err)
	}

	metrics.RecordLinesScanned(lineNo)
	metrics.RecordCandidateLines(candidates)
	metrics.RecordRecordsParsed(len(records))

	slices.SortStableFunc(records, func(a, b model.Record) int {
		return cmp.Compare(a.Depth, b.Depth)
	})
	return records, nil
}

// IsCandidate reports whether line is a data line: it matches the numeric
// signature and contains none of the exclude words.
func (p *Parser) IsCandidate(line []byte) bool {
	if !dataLinePattern.Match(line) {
		return false
	}
	for _, w := range p.excludeWords {
		if bytes.Contains(line, w) {
			return false
		}
	}
	return true
}

// ParseLine converts a single data line into a record. lineNo is only used
// for error reporting.
func (p *Parser) ParseLine(line []byte, lineNo int) (model.Record, error) {
	if p.format.NormalizeAlt {
		line = bytes.ReplaceAll(line, []byte{p.format.AltDelimiter}, []byte{p.format.Delimiter})
	}
	fields := bytes.Split(line, []byte{p.format.Delimiter})
	if len(fields) < p.format.MinFields {
		return model.Record{}, &MalformedRecordError{
			Line: lineNo,
			Err:  fmt.Errorf("expected at least %d fields, got %d", p.format.MinFields, len(fields)),
		}
	}

	fp := fieldParser{fields: fields, line: lineNo}
	rec := model.Record{
		Ion:                string(bytes.TrimSpace(fields[fieldIon])),
		Energy:             fp.float("energy", fieldEnergy) / p.format.EnergyDivisor,
		Depth:              fp.float("depth", fieldDepth),
		Y:                  fp.float("y", fieldY),
		Z:                  fp.float("z", fieldZ),
		StoppingEnergy:     fp.float("stopping_energy", fieldStoppingEnergy),
		Atom:               string(bytes.TrimSpace(fields[fieldAtom])),
		RecoilEnergy:       fp.float("recoil_energy", fieldRecoilEnergy),
		TargetDisplacement: fp.float("target_displacement", fieldTargetDisplacement),
	}
	if fp.err != nil {
		return model.Record{}, fp.err
	}
	return rec, nil
}

// fieldParser keeps the first conversion error so a record can be built in one expression.
type fieldParser struct {
	fields [][]byte
	line   int
	err    error
}

func (fp *fieldParser) float(name string, idx int) float64 {
	if fp.err != nil {
		return 0
	}
	raw := string(bytes.TrimSpace(fp.fields[idx]))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fp.err = &MalformedRecordError{Line: fp.line, Field: name, Value: raw, Err: err}
		return 0
	}
	return v
}
