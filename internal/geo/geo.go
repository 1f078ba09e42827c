package geo

import (
	"math"
	"sort"

	"github.com/example/wash-dispatch/internal/models"
)

// DistanceKm returns the great-circle distance between two points in
// kilometers (Haversine).
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// Candidate is a provider paired with its distance from the customer.
type Candidate struct {
	Provider models.ProviderPresence
	Distance float64
}

// RankByDistance orders providers nearest first. Distance is rank-only;
// candidates beyond any caller-side maximum are not excluded here.
func RankByDistance(origin models.Coord, providers []models.ProviderPresence) []Candidate {
	out := make([]Candidate, 0, len(providers))
	for _, p := range providers {
		out = append(out, Candidate{
			Provider: p,
			Distance: DistanceKm(origin.Lat, origin.Lon, p.Loc.Lat, p.Loc.Lon),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
