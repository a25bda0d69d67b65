package domain

import (
	"testing"
	"time"

	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/stretchr/testify/assert"
)

func ashwagandha() registrydomain.Species {
	return registrydomain.Species{
		CommonName:         "Ashwagandha",
		ConservationStatus: registrydomain.ConservationLeastConcern,
		HarvestSeasons:     []registrydomain.SeasonWindow{{StartMonth: 11, EndMonth: 2}},
		AnnualQuotaKg:      100,
	}
}

func coop() registrydomain.Cooperative {
	return registrydomain.Cooperative{
		Name: "Neemuch Growers",
		ApprovedZones: []registrydomain.GeoBox{
			{MinLatitude: 24, MaxLatitude: 25, MinLongitude: 74, MaxLongitude: 75.5},
		},
	}
}

func TestEvaluateComplianceCompliant(t *testing.T) {
	got := EvaluateCompliance(ComplianceInput{
		Species:     ashwagandha(),
		Cooperative: coop(),
		Latitude:    24.47,
		Longitude:   74.87,
		CollectedAt: time.Date(2026, time.January, 10, 6, 0, 0, 0, time.UTC),
		QuantityKg:  40,
		HarvestedKg: 50,
	})

	assert.True(t, got.Compliant)
	assert.True(t, got.WithinApprovedZone)
	assert.True(t, got.SeasonalWindowMet)
	assert.True(t, got.QuotaRespected)
	assert.Equal(t, "LEAST_CONCERN", got.ConservationStatus)
	assert.Empty(t, got.Notes)
}

func TestEvaluateComplianceViolations(t *testing.T) {
	got := EvaluateCompliance(ComplianceInput{
		Species:     ashwagandha(),
		Cooperative: coop(),
		Latitude:    12.97,
		Longitude:   77.59,
		CollectedAt: time.Date(2026, time.July, 10, 6, 0, 0, 0, time.UTC),
		QuantityKg:  60,
		HarvestedKg: 50,
	})

	assert.False(t, got.Compliant)
	assert.False(t, got.WithinApprovedZone)
	assert.False(t, got.SeasonalWindowMet)
	assert.False(t, got.QuotaRespected)
	assert.Len(t, got.Notes, 3)
}

func TestEvaluateComplianceCriticallyEndangered(t *testing.T) {
	species := ashwagandha()
	species.ConservationStatus = registrydomain.ConservationCriticallyEndangered
	species.HarvestSeasons = nil
	species.AnnualQuotaKg = 0

	got := EvaluateCompliance(ComplianceInput{
		Species:     species,
		Cooperative: registrydomain.Cooperative{},
		CollectedAt: time.Date(2026, time.July, 10, 6, 0, 0, 0, time.UTC),
		QuantityKg:  5000,
	})

	assert.True(t, got.WithinApprovedZone)
	assert.True(t, got.SeasonalWindowMet)
	assert.True(t, got.QuotaRespected)
	assert.False(t, got.Compliant)
}

func TestYearBounds(t *testing.T) {
	from, to := YearBounds(time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), to)
}
