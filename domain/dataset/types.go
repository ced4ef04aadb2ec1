package dataset

import (
	"fmt"
	"strings"

	"pisaresilience/domain/core"
)

// Well-known PISA column names.
const (
	ColCountry       = "CNT"
	ColSchoolID      = "CNTSCHID"
	ColStudentID     = "CNTSTUID"
	ColCountryID     = "CNTRYID"
	ColESCS          = "ESCS"
	ColAcademicScore = "AcademicScore"
	ColResilient     = "resilient"

	// PlausibleValueMarker appears in every plausible-value column name.
	PlausibleValueMarker = "PV"
)

// IdentifierColumns are the record-linkage keys that lead every output table.
var IdentifierColumns = []string{ColCountry, ColSchoolID, ColStudentID}

// Country is a partition key.
type Country string

const (
	Korea        Country = "SK"
	UnitedStates Country = "US"
)

// Countries lists the supported countries in processing order.
var Countries = []Country{Korea, UnitedStates}

// Name returns the display name.
func (c Country) Name() string {
	switch c {
	case Korea:
		return "South Korea"
	case UnitedStates:
		return "United States"
	}
	return string(c)
}

// ParseCountry validates a country code.
func ParseCountry(s string) (Country, error) {
	c := Country(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Countries {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownCountry, s)
}

// Partition maps each country to its own table. Partitions are disjoint.
type Partition map[Country]*Table

// Clone deep-copies every table.
func (p Partition) Clone() Partition {
	out := make(Partition, len(p))
	for c, t := range p {
		out[c] = t.Clone()
	}
	return out
}

// TotalRows sums row counts across countries.
func (p Partition) TotalRows() int {
	n := 0
	for _, t := range p {
		n += t.NumRows()
	}
	return n
}

// Variant selects which population a labeled dataset covers.
type Variant string

const (
	// Full holds every row that survived missing-data filtering.
	Full Variant = "full"
	// Sliced holds only rows with ESCS below the country's threshold.
	Sliced Variant = "sliced"
)

// Variants lists both dataset variants in output order.
var Variants = []Variant{Full, Sliced}

// ParseVariant accepts "full" or "sliced".
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case Full, Sliced:
		return Variant(s), nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownVariant, s)
}

// ThresholdInfo holds one country's labeling cutoffs.
type ThresholdInfo struct {
	AcademicScore int     `json:"academic_score" yaml:"academic_score"`
	ESCSScore     float64 `json:"escs_score" yaml:"escs_score"`
}

// Sources are the three raw tables collected for one country.
type Sources struct {
	Student *Table
	School  *Table
	Teacher *Table
}

// Input is the raw per-country data a pipeline run consumes.
type Input map[Country]Sources

// Thresholds holds the cutoffs of every country for one run.
type Thresholds map[Country]ThresholdInfo
