package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/scenario"
)

func newBinary(t *testing.T, duration float64) *Experiment {
	t.Helper()
	e, err := New(scenario.Binary(), dynamo.DefaultConfig(), duration, 10)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestNewRejectsBadDuration(t *testing.T) {
	for _, d := range []float64{0, -1} {
		if _, err := New(scenario.Binary(), dynamo.DefaultConfig(), d, 10); !errors.Is(err, dynamo.ErrInvalidConfig) {
			t.Errorf("duration %g: expected ErrInvalidConfig, got %v", d, err)
		}
	}
}

func TestRunCoversDuration(t *testing.T) {
	e := newBinary(t, 1.0)
	res := e.Run(context.Background(), "leapfrog", 0.01)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Steps != 100 {
		t.Errorf("expected 100 steps, got %d", res.Steps)
	}
	if _, ok := res.Metrics["energy_drift"]; !ok {
		t.Errorf("missing energy drift: %v", res.Metrics)
	}
	if res.Metrics["stability"] != 1 {
		t.Errorf("binary should stay bound, stability %g", res.Metrics["stability"])
	}
}

func TestRunReportsBadIntegrator(t *testing.T) {
	e := newBinary(t, 1.0)
	res := e.Run(context.Background(), "midpoint", 0.01)
	if !errors.Is(res.Err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", res.Err)
	}
}

func TestGridOrderAndBest(t *testing.T) {
	e := newBinary(t, 2.0)
	integrators := []string{"symplectic", "rk4", "bogus"}
	dts := []float64{0.02, 0.01}

	results, err := e.Grid(context.Background(), integrators, dts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Integrator != integrators[i/2] || r.Dt != dts[i%2] {
			t.Errorf("result %d is %s/%g", i, r.Integrator, r.Dt)
		}
	}
	if results[4].Err == nil {
		t.Error("bogus integrator should fail")
	}

	best, ok := Best(results, "energy_drift")
	if !ok {
		t.Fatal("expected a best result")
	}
	if best.Integrator != "rk4" || best.Dt != 0.01 {
		t.Errorf("expected rk4 at dt 0.01 to conserve energy best, got %s at %g", best.Integrator, best.Dt)
	}
}

func TestGridRejectsEmpty(t *testing.T) {
	e := newBinary(t, 1.0)
	if _, err := e.Grid(context.Background(), nil, []float64{0.01}); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBestSkipsFailures(t *testing.T) {
	results := []Result{
		{Integrator: "a", Err: errors.New("boom"), Metrics: map[string]float64{"m": 0}},
		{Integrator: "b", Metrics: map[string]float64{"m": 2}},
		{Integrator: "c", Metrics: map[string]float64{"m": 1}},
	}
	best, ok := Best(results, "m")
	if !ok || best.Integrator != "c" {
		t.Errorf("expected c, got %+v", best)
	}
	if _, ok := Best(results[:1], "m"); ok {
		t.Error("expected no best among failures")
	}
}
