package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client   *maps.Client
	language string
}

func NewGoogleMapsProvider(apiKey, language string, opts ...maps.ClientOption) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client:   client,
		language: language,
	}, nil
}

func (g *GoogleMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error) {
	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: lat, Lng: lng},
		Language: g.language,
	}

	resp, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding failed: %w", err)
	}

	results := make([]GeocodeResult, len(resp))
	for i, result := range resp {
		results[i] = GeocodeResult{
			PlaceID: result.PlaceID,
			Address: result.FormattedAddress,
			Coordinates: Location{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
			Types: result.Types,
		}
	}

	return &GeocodeResponse{Results: results}, nil
}
