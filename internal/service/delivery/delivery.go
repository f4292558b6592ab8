// Package delivery computes delivery distance and fees, and enforces the
// delivery zone around the restaurant.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidAddress reports an address that could not be resolved to
// coordinates.
var ErrInvalidAddress = errors.New("invalid or unresolvable address")

// OutOfZoneError reports a delivery point outside the configured radius.
type OutOfZoneError struct {
	DistanceKm float64
	MaxKm      float64
}

func (e *OutOfZoneError) Error() string {
	return fmt.Sprintf("address out of delivery zone (%.1f km > %.1f km)", e.DistanceKm, e.MaxKm)
}

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lon float64, err error)
}

// Config is the immutable delivery configuration, built once at startup.
type Config struct {
	OriginLat float64
	OriginLng float64
	BaseFee   decimal.Decimal
	PerKmFee  decimal.Decimal
	MaxKm     float64
}

// Quote is the outcome of a fee calculation.
type Quote struct {
	DistanceKm float64
	Fee        decimal.Decimal
}

// Calculator derives delivery fees from distance to the restaurant origin.
type Calculator struct {
	cfg      Config
	geocoder Geocoder
}

func NewCalculator(cfg Config, geocoder Geocoder) *Calculator {
	return &Calculator{cfg: cfg, geocoder: geocoder}
}

// Calc resolves the delivery point (explicit coordinates win over the
// address), rejects out-of-zone requests and computes the fee. A positive
// feeOverride is trusted as-is, but the geofence is still enforced.
func (c *Calculator) Calc(
	ctx context.Context,
	address string,
	lat, lon *float64,
	feeOverride *decimal.Decimal,
) (Quote, error) {
	var distanceKm float64
	if lat != nil && lon != nil {
		distanceKm = DistanceKm(c.cfg.OriginLat, c.cfg.OriginLng, *lat, *lon)
	} else {
		glat, glon, err := c.geocoder.Geocode(ctx, address)
		if err != nil {
			return Quote{}, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
		}
		distanceKm = DistanceKm(c.cfg.OriginLat, c.cfg.OriginLng, glat, glon)
	}

	if distanceKm > c.cfg.MaxKm {
		return Quote{}, &OutOfZoneError{DistanceKm: distanceKm, MaxKm: c.cfg.MaxKm}
	}

	if feeOverride != nil && feeOverride.IsPositive() {
		return Quote{DistanceKm: distanceKm, Fee: *feeOverride}, nil
	}

	fee := c.cfg.BaseFee.Add(c.cfg.PerKmFee.Mul(decimal.NewFromFloat(distanceKm))).Round(2)
	return Quote{DistanceKm: distanceKm, Fee: fee}, nil
}

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle (haversine) distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
