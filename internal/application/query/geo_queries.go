package query

import "github.com/google/uuid"

const (
	DefaultRadiusKm    = 5.0
	MaxRadiusKm        = 50.0
	DefaultNearbyLimit = 50
	MaxNearbyLimit     = 200

	DefaultViewportLimit = 200
	MaxViewportLimit     = 500
)

type NearbyQuery struct {
	UserId   uuid.UUID
	Lat      float64
	Lng      float64
	RadiusKm float64
	Limit    int
}

// Normalize clamps radius to (0, MaxRadiusKm] and limit to [1, MaxNearbyLimit].
func (q NearbyQuery) Normalize() NearbyQuery {
	if q.RadiusKm <= 0 {
		q.RadiusKm = DefaultRadiusKm
	}
	if q.RadiusKm > MaxRadiusKm {
		q.RadiusKm = MaxRadiusKm
	}
	if q.Limit <= 0 {
		q.Limit = DefaultNearbyLimit
	}
	if q.Limit > MaxNearbyLimit {
		q.Limit = MaxNearbyLimit
	}
	return q
}

type ViewportQuery struct {
	UserId uuid.UUID
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
	Limit  int
}

func (q ViewportQuery) Normalize() ViewportQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultViewportLimit
	}
	if q.Limit > MaxViewportLimit {
		q.Limit = MaxViewportLimit
	}
	return q
}

type PageQuery struct {
	UserId uuid.UUID
	Page   int
	Size   int
}
