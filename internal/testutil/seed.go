package testutil

import (
	"testing"
	"time"

	collectiondomain "github.com/ayurtrace/ayurtrace/internal/collection/domain"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// Fixture is a minimal registry: one species, cooperative, collector,
// facility and lab.
type Fixture struct {
	Species     *registrydomain.Species
	Cooperative *registrydomain.Cooperative
	Collector   *registrydomain.Collector
	Facility    *registrydomain.ProcessingFacility
	Lab         *registrydomain.QualityLab
}

func (e *Env) SeedRegistry(t *testing.T) Fixture {
	t.Helper()
	now := e.Clock.Now()
	species := &registrydomain.Species{
		ID:                 e.GenID.Generate().Int64(),
		BotanicalName:      "Withania somnifera " + e.GenID.Generate().String(),
		CommonName:         "Ashwagandha",
		Slug:               "withania-somnifera-" + e.GenID.Generate().String(),
		ConservationStatus: registrydomain.ConservationLeastConcern,
		HarvestSeasons:     datatypes.JSONSlice[registrydomain.SeasonWindow]{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	coop := &registrydomain.Cooperative{
		ID:            e.GenID.Generate().Int64(),
		Name:          "Neemuch Growers",
		Slug:          "neemuch-growers-" + e.GenID.Generate().String(),
		LicenseNumber: "COOP-" + e.GenID.Generate().String(),
		Region:        "Madhya Pradesh",
		ApprovedZones: datatypes.JSONSlice[registrydomain.GeoBox]{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	collector := &registrydomain.Collector{
		ID:            e.GenID.Generate().Int64(),
		Name:          "Ramesh Patidar",
		LicenseNumber: "COL-" + e.GenID.Generate().String(),
		CooperativeID: &coop.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	facility := &registrydomain.ProcessingFacility{
		ID:            e.GenID.Generate().Int64(),
		Name:          "Indore Drying Unit",
		LicenseNumber: "FAC-" + e.GenID.Generate().String(),
		Location:      "Indore",
		Capabilities:  datatypes.JSONSlice[string]{"DRYING", "GRINDING"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	lab := &registrydomain.QualityLab{
		ID:                  e.GenID.Generate().Int64(),
		Name:                "Nagpur Analytical Lab",
		AccreditationNumber: "NABL-" + e.GenID.Generate().String(),
		Location:            "Nagpur",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, row := range []any{species, coop, collector, facility, lab} {
		require.NoError(t, e.DB.Create(row).Error)
	}
	return Fixture{Species: species, Cooperative: coop, Collector: collector, Facility: facility, Lab: lab}
}

// SeedEvent records an unbatched harvest of the fixture's species.
func (e *Env) SeedEvent(t *testing.T, f Fixture, collectedAt time.Time) *collectiondomain.CollectionEvent {
	t.Helper()
	event := &collectiondomain.CollectionEvent{
		ID:                      e.GenID.Generate().Int64(),
		CollectorID:             f.Collector.ID,
		CooperativeID:           f.Cooperative.ID,
		SpeciesID:               f.Species.ID,
		Latitude:                24.47,
		Longitude:               74.87,
		CollectedAt:             collectedAt,
		HarvestMethod:           "HAND_PICKED",
		QuantityKg:              12.5,
		QualityMetrics:          datatypes.JSONMap{"moisture": 9.5},
		EnvironmentalConditions: datatypes.JSONMap{},
		RecordedBy:              e.GenID.Generate().Int64(),
		CreatedAt:               e.Clock.Now(),
		UpdatedAt:               e.Clock.Now(),
	}
	require.NoError(t, e.DB.Create(event).Error)
	return event
}
