package types

// PlaceInput is a place to embed and store. ID is the place's row and column
// in the travel-time matrix.
type PlaceInput struct {
	ID          int     `json:"id" validate:"gte=0"`
	Title       string  `json:"title" validate:"required,notblank"`
	Description string  `json:"description" validate:"required,notblank"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type IngestPlacesRequest struct {
	Places []PlaceInput `json:"places" validate:"required,min=1,max=500,dive"`
}

type IngestPlacesResponse struct {
	Ingested int   `json:"ingested"`
	IDs      []int `json:"ids"`
}
