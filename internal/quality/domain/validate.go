package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type Bound string

const (
	BoundMax      Bound = "max"
	BoundMin      Bound = "min"
	BoundMinMatch Bound = "min_match"
)

type Threshold struct {
	TestType TestType `mapstructure:"test_type"`
	Bound    Bound    `mapstructure:"bound"`
	Limit    float64  `mapstructure:"limit"`
	Unit     string   `mapstructure:"unit"`
	Critical bool     `mapstructure:"critical"`
}

// Thresholds is the limit table keyed by test type.
type Thresholds map[TestType]Threshold

func DefaultThresholds() Thresholds {
	return Thresholds{
		TestMoistureContent:        {TestType: TestMoistureContent, Bound: BoundMax, Limit: 12, Unit: "%"},
		TestPesticideResidue:       {TestType: TestPesticideResidue, Bound: BoundMax, Limit: 0.1, Unit: "ppm", Critical: true},
		TestHeavyMetals:            {TestType: TestHeavyMetals, Bound: BoundMax, Limit: 0.3, Unit: "ppm", Critical: true},
		TestMicrobialContamination: {TestType: TestMicrobialContamination, Bound: BoundMax, Limit: 1000, Unit: "cfu/g", Critical: true},
		TestDNABarcoding:           {TestType: TestDNABarcoding, Bound: BoundMinMatch, Limit: 95, Unit: "%"},
		TestAflatoxin:              {TestType: TestAflatoxin, Bound: BoundMax, Limit: 15, Unit: "ppb", Critical: true},
		TestActiveCompounds:        {TestType: TestActiveCompounds, Bound: BoundMin, Limit: 0.5, Unit: "%"},
	}
}

type Validation struct {
	Status   Result
	Notes    []string
	Critical bool
}

// Validate checks a result against the default table.
func Validate(testType TestType, declared Result, value *float64, unit string) Validation {
	return DefaultThresholds().Validate(testType, declared, value, unit)
}

// Validate applies the numeric check first, then the declared result. A
// declared FAILED can fail a numeric pass but a numeric failure always stands.
// Critical comes from the table only on a max-bound breach. Anything that is
// not failed passes, including a PENDING declaration with no value.
func (t Thresholds) Validate(testType TestType, declared Result, value *float64, unit string) Validation {
	v := Validation{Status: ResultPassed, Notes: []string{}}

	threshold, ok := t[testType]
	if ok && value != nil {
		if u := strings.TrimSpace(unit); u != "" && threshold.Unit != "" && u != threshold.Unit {
			v.Notes = append(v.Notes, fmt.Sprintf("unit %s differs from expected %s", u, threshold.Unit))
		}
		switch threshold.Bound {
		case BoundMax:
			if *value > threshold.Limit {
				v.Status = ResultFailed
				v.Critical = threshold.Critical
				v.Notes = append(v.Notes, fmt.Sprintf("%s %s exceeds maximum %s",
					testType, withUnit(*value, threshold.Unit), withUnit(threshold.Limit, threshold.Unit)))
			}
		case BoundMin:
			if *value < threshold.Limit {
				v.Status = ResultFailed
				v.Notes = append(v.Notes, fmt.Sprintf("%s %s below minimum %s",
					testType, withUnit(*value, threshold.Unit), withUnit(threshold.Limit, threshold.Unit)))
			}
		case BoundMinMatch:
			if *value < threshold.Limit {
				v.Status = ResultFailed
				v.Notes = append(v.Notes, fmt.Sprintf("%s match %s below required %s",
					testType, withUnit(*value, threshold.Unit), withUnit(threshold.Limit, threshold.Unit)))
			}
		}
	}

	if declared == ResultFailed {
		if v.Status != ResultFailed {
			v.Notes = append(v.Notes, "declared failed by laboratory")
		}
		v.Status = ResultFailed
		if testType.Contamination() {
			v.Critical = true
		}
	}
	return v
}

func withUnit(value float64, unit string) string {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if unit == "" {
		return s
	}
	if unit == "%" {
		return s + unit
	}
	return s + " " + unit
}
