package scenario

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

var ErrMalformed = errors.New("scenario: malformed body file")

var csvColumns = []string{"ident", "x", "y", "z", "vx", "vy", "vz", "mass"}

// LoadCSV reads bodies from a header-led CSV file with the columns
// ident,x,y,z,Vx,Vy,Vz,mass and an optional radius column. Column names are
// case-insensitive. Files whose seventh column is a second "Vx" are read
// positionally, as older writers produced them.
func LoadCSV(r io.Reader) ([]dynamo.Descriptor, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []dynamo.Descriptor
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := cr.FieldPos(0)

		d, err := parseRow(rec, cols, len(out))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no bodies", ErrMalformed)
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[name]; dup && name == "vx" && i == 6 {
			name = "vz"
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, c := range csvColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, c)
		}
	}
	return cols, nil
}

func parseRow(rec []string, cols map[string]int, index int) (dynamo.Descriptor, error) {
	num := func(col string) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[cols[col]]), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: column %s: %v", ErrMalformed, col, err)
		}
		return v, nil
	}

	var vals [7]float64
	for i, c := range csvColumns[1:] {
		v, err := num(c)
		if err != nil {
			return dynamo.Descriptor{}, err
		}
		vals[i] = v
	}
	mass := vals[6]
	if !(mass > 0) || math.IsInf(mass, 0) {
		return dynamo.Descriptor{}, fmt.Errorf("%w: %g", dynamo.ErrInvalidMass, mass)
	}

	radius := dynamo.DefaultRadius(mass)
	if i, ok := cols["radius"]; ok && strings.TrimSpace(rec[i]) != "" {
		v, err := num("radius")
		if err != nil {
			return dynamo.Descriptor{}, err
		}
		if v > 0 {
			radius = v
		}
	}

	return dynamo.Descriptor{
		Label:    strings.TrimSpace(rec[cols["ident"]]),
		Mass:     mass,
		Position: dynamo.Vec3{vals[0], vals[1], vals[2]},
		Velocity: dynamo.Vec3{vals[3], vals[4], vals[5]},
		Radius:   radius,
		Color:    hue(float64(index) * 47),
	}, nil
}

// WriteCSV writes bodies in the format LoadCSV reads.
func WriteCSV(w io.Writer, bodies []dynamo.Body) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ident", "x", "y", "z", "Vx", "Vy", "Vz", "mass", "radius"}); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, b := range bodies {
		label := b.Label
		if label == "" {
			label = b.ID.String()
		}
		row := []string{
			label,
			f(b.Position[0]), f(b.Position[1]), f(b.Position[2]),
			f(b.Velocity[0]), f(b.Velocity[1]), f(b.Velocity[2]),
			f(b.Mass), f(b.Radius),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
