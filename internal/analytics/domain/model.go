package domain

import (
	"strconv"
	"strings"
	"time"
)

type Timeframe string

const (
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
	Timeframe90d Timeframe = "90d"
)

// ParseTimeframe defaults an empty value to 30d.
func ParseTimeframe(value string) (Timeframe, bool) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(value))); tf {
	case "":
		return Timeframe30d, true
	case Timeframe7d, Timeframe30d, Timeframe90d:
		return tf, true
	}
	return "", false
}

func (t Timeframe) Lookback() time.Duration {
	switch t {
	case Timeframe7d:
		return 7 * 24 * time.Hour
	case Timeframe90d:
		return 90 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// RecallRate is the share of recalled batches in percent. It renders as a
// two decimal string, or as 0 when there were no batches.
type RecallRate struct {
	Percent float64
	Defined bool
}

func NewRecallRate(recalled, total int64) RecallRate {
	if total == 0 {
		return RecallRate{}
	}
	return RecallRate{Percent: float64(recalled) / float64(total) * 100, Defined: true}
}

func (r RecallRate) String() string {
	if !r.Defined {
		return "0"
	}
	return strconv.FormatFloat(r.Percent, 'f', 2, 64)
}

func (r RecallRate) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("0"), nil
	}
	return []byte(strconv.Quote(r.String())), nil
}

// Query bounds every rollup. Zero ids mean no filter.
type Query struct {
	From      time.Time
	To        time.Time
	SpeciesID int64
	LabID     int64
}

type StatusRow struct {
	Status     string `gorm:"column:status"`
	RecallFlag bool   `gorm:"column:recall_flag"`
	Count      int64  `gorm:"column:count"`
}

type SpeciesRow struct {
	SpeciesID     int64  `gorm:"column:species_id"`
	BotanicalName string `gorm:"column:botanical_name"`
	CommonName    string `gorm:"column:common_name"`
	Count         int64  `gorm:"column:count"`
}

type TimeRow struct {
	CreatedAt time.Time `gorm:"column:created_at"`
}

type TestResultRow struct {
	TestType string `gorm:"column:test_type"`
	Status   string `gorm:"column:validation_status"`
	Count    int64  `gorm:"column:count"`
}

type TestTimingRow struct {
	LabID     int64     `gorm:"column:lab_id"`
	LabName   string    `gorm:"column:lab_name"`
	TestedAt  time.Time `gorm:"column:tested_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

type SpeciesCount struct {
	SpeciesID     string `json:"species_id"`
	BotanicalName string `json:"botanical_name"`
	CommonName    string `json:"common_name"`
	Count         int64  `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type TestTypeResults struct {
	TestType string `json:"test_type"`
	Passed   int64  `json:"passed"`
	Failed   int64  `json:"failed"`
	Pending  int64  `json:"pending"`
}

type LabTurnaround struct {
	LabID        string  `json:"lab_id"`
	LabName      string  `json:"lab_name"`
	Tests        int64   `json:"tests"`
	AverageHours float64 `json:"average_turnaround_hours"`
}

type QualityReport struct {
	ByTestType []TestTypeResults `json:"by_test_type"`
	Labs       []LabTurnaround   `json:"labs"`
}

type Report struct {
	Timeframe       Timeframe        `json:"timeframe"`
	From            time.Time        `json:"from"`
	To              time.Time        `json:"to"`
	TotalBatches    int64            `json:"total_batches"`
	StatusHistogram map[string]int64 `json:"status_histogram"`
	RecalledBatches int64            `json:"recalled_batches"`
	RecallRate      RecallRate       `json:"recall_rate"`
	Species         []SpeciesCount   `json:"species_distribution"`
	DailyTrend      []DailyCount     `json:"daily_trend"`
	Quality         QualityReport    `json:"quality"`
}
