// README: Ride rating left by one party of a completed ride for the other.
package rating

import (
	"time"

	"sahayog/internal/types"
)

const (
	MinScore = 1
	MaxScore = 5
)

type Rating struct {
	ID        types.ID  `json:"id"`
	RideID    types.ID  `json:"ride_id"`
	RatedBy   types.ID  `json:"rated_by"`
	RatedTo   types.ID  `json:"rated_to"`
	Score     int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
