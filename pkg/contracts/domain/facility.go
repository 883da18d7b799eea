package domain

// Facility categories found in the emergency data sheet.
const (
	FacilityHospital    = "hospital"
	FacilityPharmacy    = "pharmacy"
	FacilityFireStation = "fire_station"
	FacilityPolice      = "police"
)

// Facility is an emergency facility (hospital, pharmacy, ...).
type Facility struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location Point  `json:"location"`
}

// FacilityDistance is a facility ranked by distance from a query point.
type FacilityDistance struct {
	Facility
	DistanceMetres float64 `json:"distance_m"`
}
