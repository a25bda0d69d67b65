package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestValidateThresholds(t *testing.T) {
	tests := []struct {
		name         string
		testType     TestType
		declared     Result
		value        *float64
		unit         string
		wantStatus   Result
		wantCritical bool
	}{
		{"pesticide over max", TestPesticideResidue, ResultPassed, ptr(0.15), "ppm", ResultFailed, true},
		{"moisture within max", TestMoistureContent, ResultPassed, ptr(10), "%", ResultPassed, false},
		{"dna below min match", TestDNABarcoding, ResultPassed, ptr(90), "%", ResultFailed, false},
		{"moisture over max is not critical", TestMoistureContent, ResultPassed, ptr(13), "%", ResultFailed, false},
		{"aflatoxin over max", TestAflatoxin, ResultPassed, ptr(20), "ppb", ResultFailed, true},
		{"aflatoxin at limit", TestAflatoxin, ResultPassed, ptr(15), "ppb", ResultPassed, false},
		{"active compounds below min", TestActiveCompounds, ResultPassed, ptr(0.2), "%", ResultFailed, false},
		{"heavy metals declared failed", TestHeavyMetals, ResultFailed, ptr(0.1), "ppm", ResultFailed, true},
		{"microbial declared failed without value", TestMicrobialContamination, ResultFailed, nil, "", ResultFailed, true},
		{"aflatoxin declared failed stays non critical", TestAflatoxin, ResultFailed, ptr(3), "ppb", ResultFailed, false},
		{"declared passed never rescues", TestPesticideResidue, ResultPassed, ptr(0.5), "ppm", ResultFailed, true},
		{"pending without value passes", TestDNABarcoding, ResultPending, nil, "", ResultPassed, false},
		{"pending with failing value", TestMoistureContent, ResultPending, ptr(20), "%", ResultFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.testType, tt.declared, tt.value, tt.unit)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantCritical, got.Critical)
			if got.Status == ResultFailed {
				assert.NotEmpty(t, got.Notes)
			}
		})
	}
}

func TestValidateNotesDescribeBreach(t *testing.T) {
	got := Validate(TestPesticideResidue, ResultPassed, ptr(0.15), "ppm")
	assert.Equal(t, []string{"PESTICIDE_RESIDUE 0.15 ppm exceeds maximum 0.1 ppm"}, got.Notes)

	got = Validate(TestMoistureContent, ResultPassed, ptr(10), "mg")
	assert.Equal(t, ResultPassed, got.Status)
	assert.Equal(t, []string{"unit mg differs from expected %"}, got.Notes)
}

func TestValidateUsesConfiguredTable(t *testing.T) {
	table := DefaultThresholds()
	moisture := table[TestMoistureContent]
	moisture.Limit = 8
	table[TestMoistureContent] = moisture

	assert.Equal(t, ResultFailed, table.Validate(TestMoistureContent, ResultPassed, ptr(10), "%").Status)
	assert.Equal(t, ResultPassed, Validate(TestMoistureContent, ResultPassed, ptr(10), "%").Status)
}
