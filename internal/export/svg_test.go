package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

func circle(id dynamo.BodyID, label string, r float64, n int) []dynamo.PositionRecord {
	out := make([]dynamo.PositionRecord, n)
	for i := range n {
		out[i] = dynamo.PositionRecord{Step: i, ID: id, Label: label, Position: dynamo.Vec3{r, float64(i), 0}}
	}
	return out
}

func TestOrbitsSVG(t *testing.T) {
	records := append(circle(0, "sun", 0, 1), circle(1, "", 2, 4)...)

	var buf bytes.Buffer
	if err := OrbitsSVG(&buf, records, 200, 100); err != nil {
		t.Fatal(err)
	}
	svg := buf.String()

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("expected a complete svg document")
	}
	if got := strings.Count(svg, "<path"); got != 1 {
		t.Errorf("expected 1 path (single-point bodies get none), got %d", got)
	}
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected a marker per body, got %d", got)
	}
	if !strings.Contains(svg, "<title>sun</title>") || !strings.Contains(svg, "<title>body#1</title>") {
		t.Error("expected labels, falling back to the body id")
	}
}

func TestOrbitsSVGErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := OrbitsSVG(&buf, nil, 100, 100); err == nil {
		t.Error("expected error for empty records")
	}
	if err := OrbitsSVG(&buf, circle(0, "a", 1, 2), 0, 100); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestGroupKeepsOrder(t *testing.T) {
	records := []dynamo.PositionRecord{
		{ID: 2, Position: dynamo.Vec3{1, 0, 0}},
		{ID: 0, Position: dynamo.Vec3{2, 0, 0}},
		{ID: 2, Position: dynamo.Vec3{3, 0, 0}},
	}
	orbits := group(records)
	if len(orbits) != 2 || orbits[0].id != 2 || orbits[1].id != 0 {
		t.Fatalf("unexpected grouping: %+v", orbits)
	}
	if orbits[0].points[1][0] != 3 {
		t.Errorf("expected record order within a body, got %v", orbits[0].points)
	}
}
