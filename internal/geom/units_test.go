package geom

import (
	"math"
	"testing"
)

func TestUnitRoundTripsWithinTolerance(t *testing.T) {
	for _, mm := range []float64{0, 0.1, 25.4, 1234.5, 3000} {
		if got := FromInches(ToInches(mm)); math.Abs(got-mm) > 1e-6 {
			t.Fatalf("inch round trip for %v drifted to %v", mm, got)
		}
		if got := FromPoints(ToPoints(mm)); math.Abs(got-mm) > 1e-6 {
			t.Fatalf("point round trip for %v drifted to %v", mm, got)
		}
	}
}

func TestUnitConstants(t *testing.T) {
	if ToInches(25.4) < 0.999 || ToInches(25.4) > 1.001 {
		t.Fatalf("25.4 mm should be one inch, got %v", ToInches(25.4))
	}
	if got := ToPoints(10); math.Abs(got-28.3465) > 1e-9 {
		t.Fatalf("10 mm in points = %v, want 28.3465", got)
	}
}
