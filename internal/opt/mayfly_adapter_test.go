package opt

import (
	"math"
	"testing"
)

// Sphere function: f(x) = sum(x_i^2), minimum at origin
func sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func bounds(dim int, lo, hi float64) ([]float64, []float64) {
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := 0; i < dim; i++ {
		lower[i] = lo
		upper[i] = hi
	}
	return lower, upper
}

func TestMayflyAdapterOnSphere(t *testing.T) {
	optimizer := NewMayfly(20, 42) // popSize, seed

	dim := 3
	lower, upper := bounds(dim, -10, 10)
	x0 := []float64{5, -5, 5}

	res, err := optimizer.Run(Objective{Func: sphere}, x0, Settings{
		MaxIterations: 100,
		Lower:         lower,
		Upper:         upper,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.X) != dim {
		t.Fatalf("Expected %d parameters, got %d", dim, len(res.X))
	}

	// Should converge close to zero
	if res.F > 0.1 {
		t.Errorf("Expected cost near 0, got %f", res.F)
	}

	// Check that best params are near origin
	for i, v := range res.X {
		if math.Abs(v) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}

	if res.Evaluations <= 1 {
		t.Errorf("Expected evaluations to be counted, got %d", res.Evaluations)
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	lower, upper := bounds(2, -5, 5)
	s := Settings{MaxIterations: 50, Lower: lower, Upper: upper}
	x0 := []float64{1, 1}

	// Run twice with same seed (popSize must be >=20 for mayfly v0.1.0)
	res1, err := NewMayfly(20, 123).Run(Objective{Func: sphere}, x0, s)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res2, err := NewMayfly(20, 123).Run(Objective{Func: sphere}, x0, s)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res1.F != res2.F {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", res1.F, res2.F)
	}
}

func TestMayflyAdapterRejectsMissingBounds(t *testing.T) {
	_, err := NewMayfly(20, 1).Run(Objective{Func: sphere}, []float64{1}, Settings{MaxIterations: 10})
	if err == nil {
		t.Fatal("Expected error without bounds")
	}
}

func TestMayflyAdapterRecorder(t *testing.T) {
	lower, upper := bounds(2, -5, 5)
	calls := 0
	_, err := NewMayfly(20, 7).Run(Objective{Func: sphere}, []float64{2, 2}, Settings{
		MaxIterations: 5,
		Lower:         lower,
		Upper:         upper,
		Recorder: func(iteration, evaluations int, x []float64, f float64) {
			calls++
		},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected one recorder call, got %d", calls)
	}
}
