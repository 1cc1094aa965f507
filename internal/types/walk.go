package types

import (
	"time"

	"github.com/google/uuid"
)

// NoMatchMessage is returned as the only explanation when no itinerary fits.
const NoMatchMessage = "There are no places that matches your description. Please try to search something else."

// WalkRequest is the body of POST /api/v1/walks. TimeForWalk is expressed in
// the configured budget unit (hours by default).
type WalkRequest struct {
	Prompt      string   `json:"prompt" validate:"required,notblank,max=200"`
	TimeForWalk int      `json:"time_for_walk" validate:"required,gte=1,lte=24"`
	Latitude    *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type PlaceResponse struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Score       *float64 `json:"score"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
}

// WalkResponse carries the chosen stops in visiting order and one
// explanation per stop. WalkingTime is nil when nothing fits the budget.
type WalkResponse struct {
	WalkingTime   *int            `json:"walking_time"`
	BudgetMinutes float64         `json:"budget_minutes"`
	WalkingPath   []PlaceResponse `json:"walking_path"`
	Explanation   []string        `json:"explanation"`
}

// WalkInteraction is one served walk request as stored in walk_interactions.
type WalkInteraction struct {
	ID            uuid.UUID `json:"id"`
	Prompt        string    `json:"prompt"`
	BudgetMinutes float64   `json:"budget_minutes"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	PlaceIDs      []int32   `json:"place_ids"`
	Explanations  []string  `json:"explanations"`
	WalkingTime   *int      `json:"walking_time"`
	Score         float64   `json:"score"`
	Found         bool      `json:"found"`
	LatencyMs     int       `json:"latency_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecentWalksResponse lists the latest served walks, newest first.
type RecentWalksResponse struct {
	Walks []WalkInteraction `json:"walks"`
	Total int               `json:"total"`
}
