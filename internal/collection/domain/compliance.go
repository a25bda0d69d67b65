package domain

import (
	"fmt"
	"time"

	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
)

// ComplianceInput is everything the sustainability check looks at.
type ComplianceInput struct {
	Species     registrydomain.Species
	Cooperative registrydomain.Cooperative
	Latitude    float64
	Longitude   float64
	CollectedAt time.Time
	QuantityKg  float64
	// HarvestedKg is what the collector already harvested of this species
	// in the calendar year of CollectedAt.
	HarvestedKg float64
}

// EvaluateCompliance derives the compliance record for a harvest. Critically
// endangered species never comply.
func EvaluateCompliance(in ComplianceInput) SustainabilityCompliance {
	out := SustainabilityCompliance{
		WithinApprovedZone: in.Cooperative.InApprovedZone(in.Latitude, in.Longitude),
		SeasonalWindowMet:  in.Species.InSeason(in.CollectedAt),
		QuotaRespected:     true,
		ConservationStatus: string(in.Species.ConservationStatus),
	}
	notes := []string{}

	if !out.WithinApprovedZone {
		notes = append(notes, fmt.Sprintf("location %.5f,%.5f is outside the approved zones of %s", in.Latitude, in.Longitude, in.Cooperative.Name))
	}
	if !out.SeasonalWindowMet {
		notes = append(notes, fmt.Sprintf("%s is outside the harvest season for %s", in.CollectedAt.Month(), in.Species.CommonName))
	}
	if quota := in.Species.AnnualQuotaKg; quota > 0 {
		total := in.HarvestedKg + in.QuantityKg
		if total > quota {
			out.QuotaRespected = false
			notes = append(notes, fmt.Sprintf("annual quota exceeded: %.2f of %.2f kg", total, quota))
		}
	}

	endangered := false
	switch in.Species.ConservationStatus {
	case registrydomain.ConservationEndangered:
		notes = append(notes, "species is endangered, harvest volumes are monitored")
	case registrydomain.ConservationCriticallyEndangered:
		endangered = true
		notes = append(notes, "species is critically endangered")
	}

	out.Compliant = out.WithinApprovedZone && out.SeasonalWindowMet && out.QuotaRespected && !endangered
	out.Notes = notes
	return out
}

// YearBounds returns the UTC calendar year containing t.
func YearBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
