package planner

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Candidate is a place returned by the similarity search for a single request.
// ID doubles as the row/column index into the travel-time matrix.
type Candidate struct {
	ID          int      `json:"id" validate:"gte=0"`
	Title       string   `json:"title" validate:"notblank"`
	Description string   `json:"description" validate:"notblank"`
	Score       *float64 `json:"score"`
	Latitude    float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64  `json:"longitude" validate:"gte=-180,lte=180"`
}

// Location returns the candidate coordinates.
func (c Candidate) Location() Point {
	return Point{Lat: c.Latitude, Lon: c.Longitude}
}

// Relevance returns the similarity score, treating an absent score as 0.
func (c Candidate) Relevance() float64 {
	if c.Score == nil {
		return 0
	}
	return *c.Score
}

// Itinerary is an ordered, non-repeating walk through candidates.
type Itinerary struct {
	Stops    []Candidate `json:"stops"`
	Score    float64     `json:"score"`
	Duration float64     `json:"duration_minutes"`
}

// IDs returns the stop identifiers in visiting order.
func (it Itinerary) IDs() []int {
	ids := make([]int, len(it.Stops))
	for i, s := range it.Stops {
		ids[i] = s.ID
	}
	return ids
}

// Result is the outcome of a planning call. Found is false when no arrangement
// fits the budget; that is a normal outcome, not an error.
type Result struct {
	Itinerary Itinerary
	Found     bool
	Rejected  []*InvalidCandidateError
}
