package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	cases := []struct {
		name      string
		a, b      Point
		want      float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         Point{Lat: 14.5995, Lng: 120.9842},
			b:         Point{Lat: 14.5995, Lng: 120.9842},
			want:      0,
			tolerance: 0.001,
		},
		{
			name:      "one degree of latitude",
			a:         Point{Lat: 0, Lng: 0},
			b:         Point{Lat: 1, Lng: 0},
			want:      111194.93,
			tolerance: 1,
		},
		{
			name:      "one degree of longitude at equator",
			a:         Point{Lat: 0, Lng: 0},
			b:         Point{Lat: 0, Lng: 1},
			want:      111194.93,
			tolerance: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceMeters(tc.a, tc.b)
			if math.Abs(got-tc.want) > tc.tolerance {
				t.Fatalf("DistanceMeters = %.3f, want %.3f ±%.3f", got, tc.want, tc.tolerance)
			}
		})
	}
}

func TestDistanceMetersSymmetricAndMonotonic(t *testing.T) {
	venue := Point{Lat: 14.5995, Lng: 120.9842}
	near := Point{Lat: 14.5999, Lng: 120.9842}
	far := Point{Lat: 14.6050, Lng: 120.9842}

	if d1, d2 := DistanceMeters(venue, near), DistanceMeters(near, venue); math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", d1, d2)
	}
	if DistanceMeters(venue, near) >= DistanceMeters(venue, far) {
		t.Fatal("farther point must yield strictly larger distance")
	}
}

func TestCheck(t *testing.T) {
	venue := Point{Lat: 14.5995, Lng: 120.9842}
	// 0.0005° of latitude is roughly 55m, 0.0010° roughly 111m.
	inside := &Point{Lat: 14.6000, Lng: 120.9842}
	outside := &Point{Lat: 14.6005, Lng: 120.9842}

	res := Check(venue, inside, 100)
	if !res.Within {
		t.Fatalf("point %.0fm away should pass a 100m radius", res.DistanceM)
	}
	res = Check(venue, outside, 100)
	if res.Within {
		t.Fatalf("point %.0fm away must fail a 100m radius", res.DistanceM)
	}
}

func TestCheckFailsClosed(t *testing.T) {
	venue := Point{Lat: 14.5995, Lng: 120.9842}

	cases := []struct {
		name      string
		center    Point
		submitted *Point
		radius    float64
	}{
		{"nil coordinates", venue, nil, 100},
		{"latitude out of range", venue, &Point{Lat: 91, Lng: 0}, 100},
		{"longitude out of range", venue, &Point{Lat: 0, Lng: -181}, 100},
		{"nan latitude", venue, &Point{Lat: math.NaN(), Lng: 120}, 100},
		{"zero radius", venue, &Point{Lat: 14.5995, Lng: 120.9842}, 0},
		{"invalid center", Point{Lat: 200, Lng: 0}, &Point{Lat: 14.5995, Lng: 120.9842}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if res := Check(tc.center, tc.submitted, tc.radius); res.Within {
				t.Fatal("check must fail closed")
			}
		})
	}
}

func TestCheckBoundaryInclusive(t *testing.T) {
	venue := Point{Lat: 0, Lng: 0}
	at := &Point{Lat: 0.0008, Lng: 0} // ~89m
	radius := DistanceMeters(venue, *at)
	if res := Check(venue, at, radius); !res.Within {
		t.Fatalf("distance equal to radius should pass, got %.4f", res.DistanceM)
	}
}
