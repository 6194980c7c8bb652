package stockflow

import (
	"testing"

	"github.com/quayside/stockflow/pkg/domain/entities"
)

func TestLocationClassifier_Classify(t *testing.T) {
	c := NewLocationClassifier(nil)

	tests := []struct {
		name string
		loc  entities.Location
		want entities.LocationClass
	}{
		{"explicit storage", entities.Location{Class: entities.ClassStorage, Code: "STAGING-01"}, entities.ClassStorage},
		{"explicit staging", entities.Location{Class: entities.ClassStaging, Code: "A-01-01"}, entities.ClassStaging},
		{"fallback staging by code", entities.Location{Code: "STAGE-IN"}, entities.ClassStaging},
		{"fallback staging by name", entities.Location{Code: "X-99", Name: "Goods prep area"}, entities.ClassStaging},
		{"fallback disposition damage", entities.Location{Code: "DAMAGE-01"}, entities.ClassDisposition},
		{"fallback disposition reject", entities.Location{Code: "Z-1", Name: "Reject cage"}, entities.ClassDisposition},
		{"fallback storage", entities.Location{Code: "A-01-01", Name: "Rack A"}, entities.ClassStorage},
		{"disposition beats staging markers", entities.Location{Code: "STAGE-DAMAGE"}, entities.ClassDisposition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(&tt.loc); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLocationClassifier_Allocatable(t *testing.T) {
	c := NewLocationClassifier([]string{"LOC-QUARANTINE"})

	storage := &entities.Location{ID: "LOC-A", Class: entities.ClassStorage}
	if !c.Allocatable(storage) {
		t.Error("storage location not allocatable")
	}
	staging := &entities.Location{ID: "LOC-S", Class: entities.ClassStaging}
	if c.Allocatable(staging) {
		t.Error("staging location allocatable")
	}
	overridden := &entities.Location{ID: "LOC-QUARANTINE", Class: entities.ClassStorage}
	if c.Allocatable(overridden) {
		t.Error("overridden location allocatable despite storage class")
	}
}
