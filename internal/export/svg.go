// Package export renders stored runs for use outside the terminal.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

const padding = 0.05

type orbit struct {
	id     dynamo.BodyID
	label  string
	points [][2]float64
}

// OrbitsSVG draws the x/y projection of every body's trajectory in records,
// one path per body, with a dot at its last position. Both axes share one
// scale so orbits keep their shape.
func OrbitsSVG(w io.Writer, records []dynamo.PositionRecord, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("export: invalid size %dx%d", width, height)
	}
	orbits := group(records)
	if len(orbits) == 0 {
		return fmt.Errorf("export: no positions to draw")
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, o := range orbits {
		for _, p := range o.points {
			minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
			minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
		}
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	scale := (1 - 2*padding) * float64(min(width, height)) / span
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	project := func(p [2]float64) (float64, float64) {
		return float64(width)/2 + (p[0]-cx)*scale, float64(height)/2 - (p[1]-cy)*scale
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, o := range orbits {
		color := colorful.Hcl(math.Mod(float64(o.id)*47, 360), 0.6, 0.75).Clamped().Hex()
		fmt.Fprintf(bw, `<g stroke="%s" fill="%s"><title>%s</title>`+"\n", color, color, o.title())

		if len(o.points) > 1 {
			bw.WriteString(`<path fill="none" stroke-width="1" d="M`)
			for i, p := range o.points {
				x, y := project(p)
				if i == 0 {
					fmt.Fprintf(bw, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(bw, " L%.1f,%.1f", x, y)
				}
			}
			bw.WriteString("\"/>\n")
		}

		x, y := project(o.points[len(o.points)-1])
		fmt.Fprintf(bw, `<circle cx="%.1f" cy="%.1f" r="3" stroke="none"/>`+"\n</g>\n", x, y)
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// group splits records by body, keeping first-seen body order and the
// record order within each body.
func group(records []dynamo.PositionRecord) []*orbit {
	var orbits []*orbit
	byID := make(map[dynamo.BodyID]*orbit)
	for _, r := range records {
		o, ok := byID[r.ID]
		if !ok {
			o = &orbit{id: r.ID, label: r.Label}
			byID[r.ID] = o
			orbits = append(orbits, o)
		}
		o.points = append(o.points, [2]float64{r.Position[0], r.Position[1]})
	}
	return orbits
}

func (o *orbit) title() string {
	if o.label == "" {
		return o.id.String()
	}
	return o.label
}
