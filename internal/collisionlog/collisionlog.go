// Package collisionlog writes synthetic SRIM collision logs for tests and
// manual runs of the service.
package collisionlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/okian/srim/internal/domain/model"
)

// Delimiter bytes written to data lines.
const (
	Delimiter    byte = 0xB3
	AltDelimiter byte = 0x3F
)

// Generation constants.
const (
	keVPerMeV       = 1000
	minEnergyKeV    = 1
	stoppingEnergy  = 45.0
	recoilEnergyKeV = 25.0
)

// ErrInvalidSpec is returned when a Spec cannot be rendered.
var ErrInvalidSpec = errors.New("invalid collision log spec")

// LayerSpec describes one contiguous block of events against a single atom.
type LayerSpec struct {
	Atom       string
	Events     int
	DepthStart float64 // depth of the first event, in Angstrom
	DepthEnd   float64 // depth of the last event
	EnergyKeV  float64 // mean ion energy
	SpreadKeV  float64 // standard deviation of the ion energy
}

// Spec controls a generated log.
type Spec struct {
	Layers []LayerSpec
	Seed   uint64
	// AltEvery writes every n-th data line with the alternate delimiter; 0 disables it.
	AltEvery int
	// Shuffle writes data lines in random order so readers must sort by depth.
	Shuffle bool
	// Headers adds the banner, column titles and replacement footer.
	Headers bool
}

// Summary reports what Generate wrote.
type Summary struct {
	Lines     int
	DataLines int
	Records   []model.Record // records in generation order, energies in MeV
}

// Generate renders spec as a collision log into w.
func Generate(w io.Writer, spec Spec) (Summary, error) {
	if err := validate(spec); err != nil {
		return Summary{}, err
	}
	rng := rand.New(rand.NewPCG(spec.Seed, spec.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // deterministic fixtures
	records := buildRecords(rng, spec.Layers)

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	if spec.Shuffle {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	bw := bufio.NewWriter(w)
	sum := Summary{Records: records}
	write := func(s string) error {
		sum.Lines++
		_, err := bw.WriteString(s + "\r\n")
		return err
	}

	if spec.Headers {
		for _, h := range header(spec) {
			if err := write(h); err != nil {
				return Summary{}, fmt.Errorf("write header: %w", err)
			}
		}
	}
	for n, idx := range order {
		delim := Delimiter
		if spec.AltEvery > 0 && (n+1)%spec.AltEvery == 0 {
			delim = AltDelimiter
		}
		if err := write(FormatLine(records[idx], delim)); err != nil {
			return Summary{}, fmt.Errorf("write record %s: %w", records[idx].Ion, err)
		}
		sum.DataLines++
	}
	if spec.Headers {
		if err := write(fmt.Sprintf(" Total Replacements = %d.E+00", sum.DataLines)); err != nil {
			return Summary{}, fmt.Errorf("write footer: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return Summary{}, fmt.Errorf("flush: %w", err)
	}
	return sum, nil
}

// FormatLine renders one record as a data line. The energy is written in keV
// with an integral mantissa, e.g. "1500.E+00", which is the data line signature.
func FormatLine(r model.Record, delim byte) string {
	d := string([]byte{delim})
	fields := []string{
		"",
		" " + r.Ion,
		fmt.Sprintf(" %.0f.E+00", r.Energy*keVPerMeV),
		fmt.Sprintf(" %.4E", r.Depth),
		fmt.Sprintf(" %.4E", r.Y),
		fmt.Sprintf(" %.4E", r.Z),
		fmt.Sprintf(" %.2E", r.StoppingEnergy),
		fmt.Sprintf(" %-3s", r.Atom),
		fmt.Sprintf(" %.2E", r.RecoilEnergy),
		fmt.Sprintf(" %.0f.E+00", r.TargetDisplacement),
		"",
	}
	return strings.Join(fields, d)
}

func validate(spec Spec) error {
	if spec.AltEvery < 0 {
		return fmt.Errorf("%w: alt every must not be negative", ErrInvalidSpec)
	}
	for i, l := range spec.Layers {
		switch {
		case strings.TrimSpace(l.Atom) == "":
			return fmt.Errorf("%w: layer %d has no atom", ErrInvalidSpec, i)
		case l.Events < 1:
			return fmt.Errorf("%w: layer %d needs at least one event", ErrInvalidSpec, i)
		case l.DepthEnd < l.DepthStart:
			return fmt.Errorf("%w: layer %d ends before it starts", ErrInvalidSpec, i)
		case l.EnergyKeV < minEnergyKeV:
			return fmt.Errorf("%w: layer %d energy below %d keV", ErrInvalidSpec, i, minEnergyKeV)
		}
	}
	return nil
}

// buildRecords numbers ions in depth order and keeps every value exactly as it
// will read back from the rendered columns.
func buildRecords(rng *rand.Rand, specs []LayerSpec) []model.Record {
	var records []model.Record
	for _, l := range specs {
		step := 0.0
		if l.Events > 1 {
			step = (l.DepthEnd - l.DepthStart) / float64(l.Events-1)
		}
		for i := 0; i < l.Events; i++ {
			keV := math.Max(minEnergyKeV, math.Round(l.EnergyKeV+l.SpreadKeV*rng.NormFloat64()))
			records = append(records, model.Record{
				Ion:                fmt.Sprintf("%07d", len(records)+1),
				Energy:             keV / keVPerMeV,
				Depth:              roundTrip(l.DepthStart + step*float64(i)),
				StoppingEnergy:     stoppingEnergy,
				Atom:               strings.TrimSpace(l.Atom),
				RecoilEnergy:       recoilEnergyKeV,
				TargetDisplacement: 1,
			})
		}
	}
	return records
}

// roundTrip returns v as it reads back from the %.4E column format.
func roundTrip(v float64) float64 {
	out, err := strconv.ParseFloat(fmt.Sprintf("%.4E", v), 64)
	if err != nil {
		return v
	}
	return out
}

func header(spec Spec) []string {
	lines := []string{
		" =========================================================",
		" ========= SRIM Collision Details (synthetic) =============",
		" =========================================================",
	}
	for i, l := range spec.Layers {
		lines = append(lines, fmt.Sprintf(" Target Layer %d  %s  Depth %d.E+00 A", i+1, l.Atom, int(l.DepthEnd)))
	}
	lines = append(lines,
		" Ion   Energy  Depth     Lateral   Lateral   Se      Atom  Recoil    Target",
		" Name  (keV)   (A)       Y (A)     Z (A)     (eV/A)  Hit   Energy(eV) Disp.",
	)
	return lines
}
