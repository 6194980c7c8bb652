package stockflow

import (
	"strings"

	"github.com/quayside/stockflow/pkg/domain/entities"
)

// stagingMarkers and dispositionMarkers classify legacy location rows whose
// Class attribute was never set. Matching is case-insensitive over both code
// and name.
var (
	stagingMarkers     = []string{"stage", "staging", "prep"}
	dispositionMarkers = []string{"damage", "reject", "missing", "defect"}
)

// LocationClassifier resolves the class of a warehouse location. Locations
// carry an explicit Class attribute; rows predating the attribute fall back
// to substring classification, and an override list pins known
// non-allocatable location ids regardless of either.
type LocationClassifier struct {
	overrides map[string]struct{}
}

// NewLocationClassifier creates a classifier with the given override ids
func NewLocationClassifier(overrideIDs []string) *LocationClassifier {
	overrides := make(map[string]struct{}, len(overrideIDs))
	for _, id := range overrideIDs {
		overrides[id] = struct{}{}
	}
	return &LocationClassifier{overrides: overrides}
}

// Classify resolves the location's class
func (c *LocationClassifier) Classify(loc *entities.Location) entities.LocationClass {
	if loc.Class != entities.ClassUnknown {
		return loc.Class
	}
	probe := strings.ToLower(loc.Code + " " + loc.Name)
	for _, marker := range dispositionMarkers {
		if strings.Contains(probe, marker) {
			return entities.ClassDisposition
		}
	}
	for _, marker := range stagingMarkers {
		if strings.Contains(probe, marker) {
			return entities.ClassStaging
		}
	}
	return entities.ClassStorage
}

// Allocatable reports whether stock at this location may contribute to the
// available pool
func (c *LocationClassifier) Allocatable(loc *entities.Location) bool {
	if _, overridden := c.overrides[loc.ID]; overridden {
		return false
	}
	return c.Classify(loc) == entities.ClassStorage
}

// IsStaging reports whether the location is a staging/preparation area
func (c *LocationClassifier) IsStaging(loc *entities.Location) bool {
	return c.Classify(loc) == entities.ClassStaging
}
