// README: Shared identifiers and coordinates used across modules.
package types

import (
	"encoding/hex"
	"math"

	"github.com/google/uuid"
)

type ID string

type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid reports whether p is a finite coordinate inside the latitude and longitude ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// NewID returns a 32-char hex identifier.
func NewID() ID {
	u := uuid.New()
	return ID(hex.EncodeToString(u[:]))
}

// IsValidID reports whether v looks like an ID produced by NewID or an identity provider uid.
func IsValidID(v string) bool {
	if v == "" || len(v) > 128 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '-' {
			continue
		}
		return false
	}
	return true
}
