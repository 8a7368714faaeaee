package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) GetDirections(ctx context.Context, request *DirectionsRequest) (*DirectionsResponse, error) {
	mode := maps.TravelModeDriving
	if request.Mode != "" {
		mode = maps.Mode(request.Mode)
	}

	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", request.Origin.Latitude, request.Origin.Longitude),
		Destination: fmt.Sprintf("%f,%f", request.Destination.Latitude, request.Destination.Longitude),
		Mode:        mode,
	}

	if len(request.Waypoints) > 0 {
		waypoints := make([]string, len(request.Waypoints))
		for i, wp := range request.Waypoints {
			waypoints[i] = fmt.Sprintf("%f,%f", wp.Latitude, wp.Longitude)
		}
		req.Waypoints = waypoints
	}

	resp, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}

	routes := make([]Route, len(resp))
	for i, route := range resp {
		legs := make([]Leg, len(route.Legs))
		totalMeters := 0
		totalDuration := 0
		for j, leg := range route.Legs {
			legs[j] = Leg{
				Distance: Distance{
					Text:  leg.Distance.HumanReadable,
					Value: float64(leg.Distance.Meters),
				},
				Duration: Duration{
					Text:  leg.Duration.String(),
					Value: int(leg.Duration.Seconds()),
				},
			}
			totalMeters += leg.Distance.Meters
			totalDuration += int(leg.Duration.Seconds())
		}

		routes[i] = Route{
			Summary: route.Summary,
			Distance: Distance{
				Value: float64(totalMeters),
			},
			Duration: Duration{
				Value: totalDuration,
			},
			Legs:     legs,
			Polyline: route.OverviewPolyline.Points,
		}
	}

	return &DirectionsResponse{Routes: routes}, nil
}
