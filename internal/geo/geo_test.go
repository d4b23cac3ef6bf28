package geo

import (
	"math"
	"testing"

	"bigbite-orderbot/internal/domain"
)

func TestDistanceSamePointIsZero(t *testing.T) {
	p := domain.Coordinates{Latitude: 28.6139, Longitude: 77.2090}
	if d := Distance(p, p); d != 0 {
		t.Fatalf("expected 0, got %v", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := domain.Coordinates{Latitude: 28.6139, Longitude: 77.2090}
	b := domain.Coordinates{Latitude: 19.0760, Longitude: 72.8777}
	if ab, ba := Distance(a, b), Distance(b, a); math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("expected symmetric distance, got %v and %v", ab, ba)
	}
}

func TestDistanceKnownPair(t *testing.T) {
	// One degree of latitude on a 6371 km sphere.
	a := domain.Coordinates{Latitude: 0, Longitude: 0}
	b := domain.Coordinates{Latitude: 1, Longitude: 0}
	want := EarthRadiusKm * math.Pi / 180
	if d := Distance(a, b); math.Abs(d-want) > 1e-6 {
		t.Fatalf("expected %v, got %v", want, d)
	}
}
