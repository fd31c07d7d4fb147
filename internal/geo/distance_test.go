package geo

import (
	"math"
	"testing"
)

func TestDistanceSymmetricAndZero(t *testing.T) {
	points := [][2]float64{
		{50.4501, 30.5234},
		{49.9935, 36.2304},
		{46.4825, 30.7233},
		{-33.8688, 151.2093},
		{0, 0},
		{89.9, -179.9},
	}

	for _, a := range points {
		if d := Distance(a[0], a[1], a[0], a[1]); d != 0 {
			t.Errorf("Distance(A,A) for %v = %v, want 0", a, d)
		}
		for _, b := range points {
			ab := Distance(a[0], a[1], b[0], b[1])
			ba := Distance(b[0], b[1], a[0], a[1])
			if math.Abs(ab-ba) > 1e-6 {
				t.Errorf("asymmetric distance %v<->%v: %v vs %v", a, b, ab, ba)
			}
		}
	}
}

func TestDistanceKyivPair(t *testing.T) {
	d := Distance(50.4501, 30.5234, 50.4600, 30.5300)
	if d < 1000 || d > 1300 {
		t.Fatalf("distance = %.1f m, want roughly 1.1-1.2 km", d)
	}
	if d > DefaultThresholdMeters {
		t.Fatalf("distance %.1f m should be within the default threshold", d)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// Kyiv to Kharkiv is about 410 km.
	d := Distance(50.4501, 30.5234, 49.9935, 36.2304)
	if math.Abs(d-410_000) > 10_000 {
		t.Fatalf("Kyiv-Kharkiv = %.0f m", d)
	}
}
