package services

import (
	"math"

	"gotogether/internal/models"
	"gotogether/internal/utils"
)

// FareEstimate is an indicative cost-sharing figure, not a billed amount.
type FareEstimate struct {
	DistanceKM     float64 `json:"distance_km"`
	BaseFare       float64 `json:"base_fare"`
	DistanceFare   float64 `json:"distance_fare"`
	Total          float64 `json:"total"`
	PerHead        float64 `json:"per_head"`
	DiscountPct    int     `json:"discount_pct"`
	DiscountedFare float64 `json:"discounted_fare"`
}

type FareService interface {
	EstimateForRide(ride *models.Ride, headCount, discountPct int) *FareEstimate
}

type fareService struct {
	baseFare  float64
	perKMRate float64
}

func NewFareService() FareService {
	return &fareService{
		baseFare:  utils.FareBase,
		perKMRate: utils.FarePerKM,
	}
}

func (s *fareService) EstimateForRide(ride *models.Ride, headCount, discountPct int) *FareEstimate {
	points := make([]models.GeoPoint, 0, len(ride.Stops)+2)
	points = append(points, ride.Origin)
	points = append(points, ride.Stops...)
	points = append(points, ride.Destination)

	var meters float64
	for i := 1; i < len(points); i++ {
		meters += utils.DistanceMeters(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
	}
	km := meters / 1000

	distanceFare := round2(km * s.perKMRate)
	total := round2(s.baseFare + distanceFare)

	if headCount < 1 {
		headCount = 1
	}
	perHead := round2(total / float64(headCount))

	if discountPct < 0 {
		discountPct = 0
	}
	discounted := round2(perHead * (1 - float64(discountPct)/100))

	return &FareEstimate{
		DistanceKM:     round2(km),
		BaseFare:       s.baseFare,
		DistanceFare:   distanceFare,
		Total:          total,
		PerHead:        perHead,
		DiscountPct:    discountPct,
		DiscountedFare: discounted,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
