package geo

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

type stubRouter struct {
	leg   Leg
	err   error
	delay time.Duration
}

func (s stubRouter) Route(ctx context.Context, _, _ Point) (Leg, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Leg{}, ctx.Err()
		}
	}
	return s.leg, s.err
}

func TestDistanceKnownPoints(t *testing.T) {
	tests := []struct {
		name      string
		a         Point
		b         Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         Point{Lat: 14.5547, Lng: 121.0244},
			b:         Point{Lat: 14.5547, Lng: 121.0244},
			wantKm:    0,
			tolerance: 0.0001,
		},
		{
			name:      "Makati to BGC (~2.5km)",
			a:         Point{Lat: 14.5547, Lng: 121.0244},
			b:         Point{Lat: 14.5509, Lng: 121.0481},
			wantKm:    2.6,
			tolerance: 0.3,
		},
		{
			name:      "Manila to Cebu (~570km)",
			a:         Point{Lat: 14.5995, Lng: 120.9842},
			b:         Point{Lat: 10.3157, Lng: 123.8854},
			wantKm:    570,
			tolerance: 15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Fatalf("Distance() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Point{Lat: 14.60, Lng: 121.00}
	b := Point{Lat: 14.70, Lng: 121.10}
	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestAverageSpeedBands(t *testing.T) {
	cases := []struct {
		km   float64
		want float64
	}{
		{km: 0.5, want: 20},
		{km: 9.99, want: 20},
		{km: 10, want: 25},
		{km: 20, want: 25},
		{km: 20.1, want: 30},
	}
	for _, tc := range cases {
		if got := AverageSpeedKmh(tc.km); got != tc.want {
			t.Fatalf("speed for %.2fkm want %.0f got %.0f", tc.km, tc.want, got)
		}
	}
}

func TestDeliveryFee(t *testing.T) {
	calc := NewCalculator(nil, 0, DefaultFeePolicy())

	cases := []struct {
		km   float64
		want string
		ok   bool
	}{
		{km: 0, want: "50", ok: true},
		{km: 3, want: "50", ok: true},
		{km: 5, want: "70", ok: true},
		{km: 7.46, want: "95", ok: true},
		{km: 15, want: "170", ok: true},
		{km: 15.01, ok: false},
		{km: 40, ok: false},
	}
	for _, tc := range cases {
		fee, ok := calc.DeliveryFee(tc.km)
		if ok != tc.ok {
			t.Fatalf("fee for %.2fkm ok want %v got %v", tc.km, tc.ok, ok)
		}
		if ok && fee.String() != tc.want {
			t.Fatalf("fee for %.2fkm want %s got %s", tc.km, tc.want, fee.String())
		}
	}
}

func TestDeliveryFeeNonDecreasing(t *testing.T) {
	calc := NewCalculator(nil, 0, DefaultFeePolicy())
	prev, _ := calc.DeliveryFee(0)
	for km := 0.1; km <= 15; km += 0.1 {
		fee, ok := calc.DeliveryFee(km)
		if !ok {
			t.Fatalf("fee for %.1fkm should be in range", km)
		}
		if fee.LessThan(prev) {
			t.Fatalf("fee decreased at %.1fkm: %s < %s", km, fee, prev)
		}
		prev = fee
	}
}

func TestEstimatedPrepAndDeliveryMinutes(t *testing.T) {
	calc := NewCalculator(nil, 0, DefaultFeePolicy())
	// 5km @ 20km/h = 15min, + 30 prep + 5 buffer
	if got := calc.EstimatedPrepAndDeliveryMinutes(5, 30); got != 50 {
		t.Fatalf("want 50 got %d", got)
	}
	// 15km @ 25km/h = 36min, + 20 prep + 5 buffer
	if got := calc.EstimatedPrepAndDeliveryMinutes(15, 20); got != 61 {
		t.Fatalf("want 61 got %d", got)
	}
}

func TestRouteUsesRouter(t *testing.T) {
	calc := NewCalculator(stubRouter{leg: Leg{DistanceKm: 4.234, DurationMin: 11.2}}, time.Second, DefaultFeePolicy())
	got := calc.Route(context.Background(), Point{Lat: 14.55, Lng: 121.02}, Point{Lat: 14.58, Lng: 121.05})
	if !got.Success || got.Fallback {
		t.Fatalf("expected routed result, got %+v", got)
	}
	if got.DistanceKm != 4.23 || got.DurationMin != 12 {
		t.Fatalf("unexpected routed values: %+v", got)
	}
}

func TestRouteFallsBackOnError(t *testing.T) {
	calc := NewCalculator(stubRouter{err: errors.New("upstream 503")}, time.Second, DefaultFeePolicy())
	origin := Point{Lat: 14.55, Lng: 121.02}
	dest := Point{Lat: 14.58, Lng: 121.05}
	got := calc.Route(context.Background(), origin, dest)
	if got.Success || !got.Fallback {
		t.Fatalf("expected fallback result, got %+v", got)
	}
	want := math.Round(Distance(origin, dest)*100) / 100
	if got.DistanceKm != want {
		t.Fatalf("fallback distance want %f got %f", want, got.DistanceKm)
	}
	if got.DurationMin <= 0 {
		t.Fatalf("fallback duration should be positive, got %d", got.DurationMin)
	}
}

func TestRouteFallsBackOnTimeout(t *testing.T) {
	calc := NewCalculator(stubRouter{delay: time.Second, leg: Leg{DistanceKm: 1, DurationMin: 1}}, 20*time.Millisecond, DefaultFeePolicy())
	start := time.Now()
	got := calc.Route(context.Background(), Point{Lat: 14.55, Lng: 121.02}, Point{Lat: 14.58, Lng: 121.05})
	if !got.Fallback {
		t.Fatalf("expected fallback after timeout, got %+v", got)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("route should not block past timeout, took %s", elapsed)
	}
}
