package domain

import (
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	BundleResourceType = "Bundle"
	BundleType         = "collection"
	bundleIDPrefix     = "batch-provenance-"
)

// Bundle is the published serialization of a Provenance. Field order and
// names are part of the public format.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id"`
	Type         string        `json:"type"`
	Timestamp    time.Time     `json:"timestamp"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleEntry struct {
	Resource any `json:"resource"`
}

type BatchResource struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
	Status       string `json:"status"`
	Species      string `json:"species"`
	QrCode       string `json:"qrCode"`
	RecallFlag   bool   `json:"recallFlag"`
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type EventEntry struct {
	ID                      string         `json:"id"`
	Timestamp               time.Time      `json:"timestamp"`
	Location                GeoPoint       `json:"location"`
	Collector               string         `json:"collector"`
	Cooperative             string         `json:"cooperative"`
	HarvestMethod           string         `json:"harvestMethod"`
	QualityMetrics          map[string]any `json:"qualityMetrics"`
	EnvironmentalConditions map[string]any `json:"environmentalConditions"`
}

type EventsResource struct {
	ResourceType string       `json:"resourceType"`
	Events       []EventEntry `json:"events"`
}

type StepEntry struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	Facility   *string        `json:"facility"`
	Operator   *string        `json:"operator"`
	Conditions map[string]any `json:"conditions"`
	Notes      *string        `json:"notes"`
}

type StepsResource struct {
	ResourceType string      `json:"resourceType"`
	Steps        []StepEntry `json:"steps"`
}

type TestEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Result      string    `json:"result"`
	Value       *float64  `json:"value"`
	Units       string    `json:"units"`
	Timestamp   time.Time `json:"timestamp"`
	Laboratory  string    `json:"laboratory"`
	Certificate *string   `json:"certificate"`
}

type TestsResource struct {
	ResourceType string      `json:"resourceType"`
	Tests        []TestEntry `json:"tests"`
}

type ProductEntry struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	PackagingDate  time.Time  `json:"packagingDate"`
	ExpiryDate     *time.Time `json:"expiryDate"`
	RetailLocation *string    `json:"retailLocation"`
	Status         string     `json:"status"`
}

type ProductsResource struct {
	ResourceType string         `json:"resourceType"`
	Products     []ProductEntry `json:"products"`
}

func BundleID(batchID int64) string {
	return bundleIDPrefix + snowflake.ID(batchID).String()
}

// ToBundle renders p. The entries are always Batch, CollectionEvents,
// ProcessingSteps, QualityTests and Products; empty sections are empty
// arrays.
func (p Provenance) ToBundle() Bundle {
	return Bundle{
		ResourceType: BundleResourceType,
		ID:           BundleID(p.Batch.ID),
		Type:         BundleType,
		Timestamp:    p.AssembledAt,
		Entry: []BundleEntry{
			{Resource: p.batchResource()},
			{Resource: p.eventsResource()},
			{Resource: p.stepsResource()},
			{Resource: p.testsResource()},
			{Resource: p.productsResource()},
		},
	}
}

// SpeciesName is the botanical name, or the id when the species is gone.
func (p Provenance) SpeciesName() string {
	if p.Species != nil {
		return p.Species.BotanicalName
	}
	return snowflake.ID(p.Batch.SpeciesID).String()
}

func (p Provenance) batchResource() BatchResource {
	return BatchResource{
		ResourceType: "Batch",
		ID:           snowflake.ID(p.Batch.ID).String(),
		Status:       string(p.Batch.Status),
		Species:      p.SpeciesName(),
		QrCode:       p.Batch.QrCode,
		RecallFlag:   p.Batch.RecallFlag,
	}
}

func (p Provenance) eventsResource() EventsResource {
	events := make([]EventEntry, 0, len(p.Events))
	for _, e := range p.Events {
		events = append(events, EventEntry{
			ID:                      snowflake.ID(e.ID).String(),
			Timestamp:               e.CollectedAt,
			Location:                GeoPoint{Latitude: e.Latitude, Longitude: e.Longitude},
			Collector:               p.CollectorName(e.CollectorID),
			Cooperative:             p.CooperativeName(e.CooperativeID),
			HarvestMethod:           e.HarvestMethod,
			QualityMetrics:          orEmpty(e.QualityMetrics),
			EnvironmentalConditions: orEmpty(e.EnvironmentalConditions),
		})
	}
	return EventsResource{ResourceType: "CollectionEvents", Events: events}
}

func (p Provenance) stepsResource() StepsResource {
	steps := make([]StepEntry, 0, len(p.Steps))
	for _, s := range p.Steps {
		entry := StepEntry{
			ID:         snowflake.ID(s.ID).String(),
			Type:       s.StepType,
			Timestamp:  s.Timestamp,
			Conditions: orEmpty(s.Conditions),
			Notes:      s.Notes,
		}
		if s.FacilityID != nil {
			name := p.FacilityName(*s.FacilityID)
			entry.Facility = &name
		}
		if s.OperatorID != nil {
			operator := snowflake.ID(*s.OperatorID).String()
			entry.Operator = &operator
		}
		steps = append(steps, entry)
	}
	return StepsResource{ResourceType: "ProcessingSteps", Steps: steps}
}

func (p Provenance) testsResource() TestsResource {
	tests := make([]TestEntry, 0, len(p.Tests))
	for _, t := range p.Tests {
		tests = append(tests, TestEntry{
			ID:          snowflake.ID(t.ID).String(),
			Type:        string(t.TestType),
			Result:      string(t.ValidationStatus),
			Value:       t.Value,
			Units:       t.Unit,
			Timestamp:   t.TestedAt,
			Laboratory:  p.LabName(t.LabID),
			Certificate: t.CertificateRef,
		})
	}
	return TestsResource{ResourceType: "QualityTests", Tests: tests}
}

func (p Provenance) productsResource() ProductsResource {
	products := make([]ProductEntry, 0, len(p.Products))
	for _, pr := range p.Products {
		products = append(products, ProductEntry{
			ID:             snowflake.ID(pr.ID).String(),
			Name:           pr.Name,
			PackagingDate:  pr.PackagingDate,
			ExpiryDate:     pr.ExpiryDate,
			RetailLocation: pr.RetailLocation,
			Status:         string(pr.Status),
		})
	}
	return ProductsResource{ResourceType: "Products", Products: products}
}

func (p Provenance) CollectorName(id int64) string {
	if c, ok := p.Collectors[id]; ok && c != nil {
		return c.Name
	}
	return strconv.FormatInt(id, 10)
}

func (p Provenance) CooperativeName(id int64) string {
	if c, ok := p.Cooperatives[id]; ok && c != nil {
		return c.Name
	}
	return strconv.FormatInt(id, 10)
}

func (p Provenance) FacilityName(id int64) string {
	if f, ok := p.Facilities[id]; ok && f != nil {
		return f.Name
	}
	return strconv.FormatInt(id, 10)
}

func (p Provenance) LabName(id int64) string {
	if l, ok := p.Labs[id]; ok && l != nil {
		return l.Name
	}
	return strconv.FormatInt(id, 10)
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
