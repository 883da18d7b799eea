package domain

// Shelter is an evacuation shelter from the map data set.
type Shelter struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address"`
	Kind     string `json:"kind"`
	Capacity int    `json:"capacity" validate:"gte=0"`
	Location Point  `json:"location"`
}

// ShelterDistance is a shelter ranked by distance from a query point.
type ShelterDistance struct {
	Shelter
	DistanceMetres float64 `json:"distance_m"`
}
