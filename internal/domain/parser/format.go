package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Default collision log format constants.
const (
	DefaultDelimiter     byte    = 0xB3 // box-drawing vertical bar in code page 437
	DefaultAltDelimiter  byte    = 0x3F // '?' written by exports that lose the code page
	DefaultEnergyDivisor float64 = 1000
	DefaultMinFields             = 10
)

// Field positions after splitting a data line. Field 0 is ignored.
const (
	fieldIon = iota + 1
	fieldEnergy
	fieldDepth
	fieldY
	fieldZ
	fieldStoppingEnergy
	fieldAtom
	fieldRecoilEnergy
	fieldTargetDisplacement
)

// dataLinePattern matches the scientific notation written in energy columns, e.g. "1500.E+00".
var dataLinePattern = regexp.MustCompile(`.+\d+\.E\+0`)

// Format describes the collision log dialect the parser accepts.
type Format struct {
	// Delimiter separates fields in a data line.
	Delimiter byte
	// AltDelimiter is rewritten to Delimiter before splitting when NormalizeAlt is set.
	AltDelimiter byte
	NormalizeAlt bool
	// ExcludeWords mark header and footer lines that must never be parsed.
	ExcludeWords []string
	// EnergyDivisor converts raw energies to MeV.
	EnergyDivisor float64
	// MinFields is the minimum number of split parts, including the unused field 0.
	MinFields int
}

// DefaultFormat returns the format written by SRIM collision exports.
func DefaultFormat() Format {
	return Format{
		Delimiter:     DefaultDelimiter,
		AltDelimiter:  DefaultAltDelimiter,
		NormalizeAlt:  true,
		ExcludeWords:  []string{"Target", "Replacements"},
		EnergyDivisor: DefaultEnergyDivisor,
		MinFields:     DefaultMinFields,
	}
}

// Validate reports whether the format can be used to parse records.
func (f Format) Validate() error {
	switch {
	case f.EnergyDivisor == 0:
		return fmt.Errorf("%w: energy divisor must not be zero", ErrInvalidFormat)
	case f.MinFields <= fieldTargetDisplacement:
		return fmt.Errorf("%w: min fields must be greater than %d, got %d", ErrInvalidFormat, fieldTargetDisplacement, f.MinFields)
	case f.NormalizeAlt && f.AltDelimiter == f.Delimiter:
		return fmt.Errorf("%w: alternate delimiter equals delimiter", ErrInvalidFormat)
	}
	for _, w := range f.ExcludeWords {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("%w: empty exclude word", ErrInvalidFormat)
		}
	}
	return nil
}
