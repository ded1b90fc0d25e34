package routing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/padala-next/internal/geo"

	"googlemaps.github.io/maps"
)

// GoogleDirections Google Directions 路径规划客户端
type GoogleDirections struct {
	client *maps.Client
}

// NewGoogleDirections 创建 Google Directions 客户端
func NewGoogleDirections(apiKey string, opts ...maps.ClientOption) (*GoogleDirections, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: google api_key is required", ErrConfigInvalid)
	}
	options := append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	return &GoogleDirections{client: client}, nil
}

// Route 查询驾车路线
func (g *GoogleDirections) Route(ctx context.Context, origin, destination geo.Point) (geo.Leg, error) {
	req := &maps.DirectionsRequest{
		Origin:      formatLatLng(origin),
		Destination: formatLatLng(destination),
		Mode:        maps.TravelModeDriving,
		Region:      "ph",
	}
	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return geo.Leg{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return geo.Leg{}, geo.ErrRouteNotFound
	}
	leg := routes[0].Legs[0]
	return geo.Leg{
		DistanceKm:  float64(leg.Distance.Meters) / 1000,
		DurationMin: leg.Duration.Minutes(),
	}, nil
}

func formatLatLng(p geo.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}
