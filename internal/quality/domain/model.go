package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type TestType string

const (
	TestMoistureContent        TestType = "MOISTURE_CONTENT"
	TestPesticideResidue       TestType = "PESTICIDE_RESIDUE"
	TestHeavyMetals            TestType = "HEAVY_METALS"
	TestMicrobialContamination TestType = "MICROBIAL_CONTAMINATION"
	TestDNABarcoding           TestType = "DNA_BARCODING"
	TestAflatoxin              TestType = "AFLATOXIN"
	TestActiveCompounds        TestType = "ACTIVE_COMPOUNDS"
)

var TestTypes = []TestType{
	TestMoistureContent,
	TestPesticideResidue,
	TestHeavyMetals,
	TestMicrobialContamination,
	TestDNABarcoding,
	TestAflatoxin,
	TestActiveCompounds,
}

func ParseTestType(value string) (TestType, bool) {
	t := TestType(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range TestTypes {
		if known == t {
			return t, true
		}
	}
	return "", false
}

// Contamination reports the types where a declared failure is always critical.
func (t TestType) Contamination() bool {
	switch t {
	case TestPesticideResidue, TestHeavyMetals, TestMicrobialContamination:
		return true
	}
	return false
}

// Result is both the lab's declared result and the derived validation status.
type Result string

const (
	ResultPassed  Result = "PASSED"
	ResultFailed  Result = "FAILED"
	ResultPending Result = "PENDING"
)

func ParseResult(value string) (Result, bool) {
	switch r := Result(strings.ToUpper(strings.TrimSpace(value))); r {
	case ResultPassed, ResultFailed, ResultPending:
		return r, true
	}
	return "", false
}

type QualityTest struct {
	ID               int64                       `gorm:"primaryKey"`
	BatchID          int64                       `gorm:"not null;index"`
	LabID            int64                       `gorm:"not null;index"`
	TestType         TestType                    `gorm:"type:text;not null;index"`
	DeclaredResult   Result                      `gorm:"type:text;not null"`
	Value            *float64                    `gorm:"default:null"`
	Unit             string                      `gorm:"type:text;not null;default:''"`
	TestedAt         time.Time                   `gorm:"not null;index"`
	CertificateRef   *string                     `gorm:"type:text"`
	ValidationStatus Result                      `gorm:"type:text;not null"`
	ValidationNotes  datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	Critical         bool                        `gorm:"not null;default:false"`
	SubmittedBy      int64                       `gorm:"not null"`
	CreatedAt        time.Time                   `gorm:"not null"`
	UpdatedAt        time.Time                   `gorm:"not null"`
}

func (QualityTest) TableName() string { return "quality_tests" }
