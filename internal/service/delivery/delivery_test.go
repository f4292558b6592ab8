package delivery

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

type stubGeocoder struct {
	lat, lon float64
	err      error
}

func (g *stubGeocoder) Geocode(_ context.Context, _ string) (float64, float64, error) {
	return g.lat, g.lon, g.err
}

func testConfig() Config {
	return Config{
		OriginLat: 43.606206,
		OriginLng: 3.870316,
		BaseFee:   decimal.RequireFromString("2.00"),
		PerKmFee:  decimal.RequireFromString("1.00"),
		MaxKm:     8.0,
	}
}

func TestDistanceKm(t *testing.T) {
	// Paris -> Marseille, roughly 660 km great-circle.
	got := DistanceKm(48.8566, 2.3522, 43.2965, 5.3698)
	if math.Abs(got-660) > 10 {
		t.Errorf("DistanceKm(Paris, Marseille) = %.1f, want ~660", got)
	}

	if got := DistanceKm(43.6, 3.87, 43.6, 3.87); got != 0 {
		t.Errorf("DistanceKm(same point) = %f, want 0", got)
	}
}

func TestCalcFeeFromCoordinates(t *testing.T) {
	c := NewCalculator(testConfig(), &stubGeocoder{err: errors.New("must not be called")})

	// ~3.1 km north of the origin (1 deg latitude ~ 111.19 km).
	lat := 43.606206 + 3.1/111.19
	lon := 3.870316
	q, err := c.Calc(context.Background(), "ignored", &lat, &lon, nil)
	if err != nil {
		t.Fatalf("Calc() error = %v", err)
	}
	if math.Abs(q.DistanceKm-3.1) > 0.05 {
		t.Errorf("DistanceKm = %.2f, want ~3.1", q.DistanceKm)
	}
	if !q.Fee.Equal(decimal.RequireFromString("5.10")) {
		t.Errorf("Fee = %s, want 5.10", q.Fee)
	}
}

func TestCalcGeocodesAddress(t *testing.T) {
	g := &stubGeocoder{lat: 43.62, lon: 3.88}
	c := NewCalculator(testConfig(), g)

	q, err := c.Calc(context.Background(), "1 rue de la Loge, Montpellier", nil, nil, nil)
	if err != nil {
		t.Fatalf("Calc() error = %v", err)
	}
	if q.DistanceKm <= 0 || q.DistanceKm > 8 {
		t.Errorf("DistanceKm = %.2f, want in-zone positive distance", q.DistanceKm)
	}
}

func TestCalcOutOfZone(t *testing.T) {
	c := NewCalculator(testConfig(), &stubGeocoder{})

	// Paris is far outside an 8 km radius around Montpellier.
	lat, lon := 48.8566, 2.3522
	_, err := c.Calc(context.Background(), "", &lat, &lon, nil)

	var oz *OutOfZoneError
	if !errors.As(err, &oz) {
		t.Fatalf("Calc() error = %v, want OutOfZoneError", err)
	}
	if oz.MaxKm != 8.0 || oz.DistanceKm <= 8.0 {
		t.Errorf("OutOfZoneError = %+v", oz)
	}
}

func TestCalcGeocodingFailure(t *testing.T) {
	c := NewCalculator(testConfig(), &stubGeocoder{err: errors.New("not found")})

	_, err := c.Calc(context.Background(), "nowhere street", nil, nil, nil)
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Calc() error = %v, want ErrInvalidAddress", err)
	}
}

func TestCalcFeeOverride(t *testing.T) {
	c := NewCalculator(testConfig(), &stubGeocoder{})
	lat, lon := 43.62, 3.88

	override := decimal.RequireFromString("3.50")
	q, err := c.Calc(context.Background(), "", &lat, &lon, &override)
	if err != nil {
		t.Fatalf("Calc() error = %v", err)
	}
	// Positive override is trusted as-is, no recomputation.
	if !q.Fee.Equal(override) {
		t.Errorf("Fee = %s, want 3.50", q.Fee)
	}

	// Zero and negative overrides fall back to the computed fee.
	zero := decimal.Zero
	q, err = c.Calc(context.Background(), "", &lat, &lon, &zero)
	if err != nil {
		t.Fatalf("Calc() error = %v", err)
	}
	if q.Fee.Equal(zero) {
		t.Errorf("zero override must not be trusted, got fee %s", q.Fee)
	}

	// The geofence still applies with an override present.
	plat, plon := 48.8566, 2.3522
	if _, err := c.Calc(context.Background(), "", &plat, &plon, &override); err == nil {
		t.Error("Calc() with out-of-zone coordinates and override: want error, got nil")
	}
}
