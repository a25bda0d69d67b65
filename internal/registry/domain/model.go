package domain

import (
	"time"

	"gorm.io/datatypes"
)

type ConservationStatus string

const (
	ConservationLeastConcern         ConservationStatus = "LEAST_CONCERN"
	ConservationNearThreatened       ConservationStatus = "NEAR_THREATENED"
	ConservationVulnerable           ConservationStatus = "VULNERABLE"
	ConservationEndangered           ConservationStatus = "ENDANGERED"
	ConservationCriticallyEndangered ConservationStatus = "CRITICALLY_ENDANGERED"
)

// SeasonWindow is an inclusive month range. A window whose start is after
// its end wraps over the year boundary (November to February).
type SeasonWindow struct {
	StartMonth int `json:"start_month" validate:"gte=1,lte=12"`
	EndMonth   int `json:"end_month" validate:"gte=1,lte=12"`
}

func (w SeasonWindow) Contains(m time.Month) bool {
	month := int(m)
	if w.StartMonth <= w.EndMonth {
		return month >= w.StartMonth && month <= w.EndMonth
	}
	return month >= w.StartMonth || month <= w.EndMonth
}

// GeoBox is a latitude/longitude bounding box.
type GeoBox struct {
	MinLatitude  float64 `json:"min_latitude" validate:"gte=-90,lte=90"`
	MaxLatitude  float64 `json:"max_latitude" validate:"gte=-90,lte=90,gtefield=MinLatitude"`
	MinLongitude float64 `json:"min_longitude" validate:"gte=-180,lte=180"`
	MaxLongitude float64 `json:"max_longitude" validate:"gte=-180,lte=180,gtefield=MinLongitude"`
}

func (b GeoBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLatitude && lat <= b.MaxLatitude &&
		lng >= b.MinLongitude && lng <= b.MaxLongitude
}

type Species struct {
	ID                 int64                             `json:"id,string" gorm:"primaryKey"`
	BotanicalName      string                            `json:"botanical_name" gorm:"type:text;not null;uniqueIndex"`
	CommonName         string                            `json:"common_name" gorm:"type:text;not null"`
	Slug               string                            `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	ConservationStatus ConservationStatus                `json:"conservation_status" gorm:"type:text;not null"`
	HarvestSeasons     datatypes.JSONSlice[SeasonWindow] `json:"harvest_seasons" gorm:"not null"`
	AnnualQuotaKg      float64                           `json:"annual_quota_kg" gorm:"not null;default:0"`
	CreatedAt          time.Time                         `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time                         `json:"updated_at" gorm:"not null"`
}

func (Species) TableName() string { return "species" }

// InSeason reports whether t falls in any harvest window. Species without
// windows may be harvested year-round.
func (s Species) InSeason(t time.Time) bool {
	if len(s.HarvestSeasons) == 0 {
		return true
	}
	for _, w := range s.HarvestSeasons {
		if w.Contains(t.Month()) {
			return true
		}
	}
	return false
}

type Cooperative struct {
	ID            int64                      `json:"id,string" gorm:"primaryKey"`
	Name          string                     `json:"name" gorm:"type:text;not null"`
	Slug          string                     `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	LicenseNumber string                     `json:"license_number" gorm:"type:text;not null;uniqueIndex"`
	Region        string                     `json:"region" gorm:"type:text;not null"`
	ApprovedZones datatypes.JSONSlice[GeoBox] `json:"approved_zones" gorm:"not null"`
	CreatedAt     time.Time                  `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time                  `json:"updated_at" gorm:"not null"`
}

func (Cooperative) TableName() string { return "cooperatives" }

// InApprovedZone reports whether the point lies in any approved zone.
// Cooperatives without zones are unrestricted.
func (c Cooperative) InApprovedZone(lat, lng float64) bool {
	if len(c.ApprovedZones) == 0 {
		return true
	}
	for _, zone := range c.ApprovedZones {
		if zone.Contains(lat, lng) {
			return true
		}
	}
	return false
}

type Collector struct {
	ID            int64     `json:"id,string" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"type:text;not null"`
	Phone         *string   `json:"phone,omitempty" gorm:"type:text"`
	LicenseNumber string    `json:"license_number" gorm:"type:text;not null;uniqueIndex"`
	CooperativeID *int64    `json:"cooperative_id,string,omitempty" gorm:"index"`
	AccountID     *int64    `json:"account_id,string,omitempty" gorm:"index"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null"`
}

func (Collector) TableName() string { return "collectors" }

type ProcessingFacility struct {
	ID            int64                       `json:"id,string" gorm:"primaryKey"`
	Name          string                      `json:"name" gorm:"type:text;not null"`
	LicenseNumber string                      `json:"license_number" gorm:"type:text;not null;uniqueIndex"`
	Location      string                      `json:"location" gorm:"type:text;not null"`
	Capabilities  datatypes.JSONSlice[string] `json:"capabilities" gorm:"not null"`
	CreatedAt     time.Time                   `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time                   `json:"updated_at" gorm:"not null"`
}

func (ProcessingFacility) TableName() string { return "processing_facilities" }

type QualityLab struct {
	ID                  int64     `json:"id,string" gorm:"primaryKey"`
	Name                string    `json:"name" gorm:"type:text;not null"`
	AccreditationNumber string    `json:"accreditation_number" gorm:"type:text;not null;uniqueIndex"`
	Location            string    `json:"location" gorm:"type:text;not null"`
	CreatedAt           time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"not null"`
}

func (QualityLab) TableName() string { return "quality_labs" }
