package patient

import (
	"strings"
	"time"
)

// Trend is the qualitative direction of a vital reading relative to the
// reference range reported by the upstream API.
type Trend string

const (
	TrendNormal Trend = "normal"
	TrendAbove  Trend = "above"
	TrendBelow  Trend = "below"
)

// Vital is a single measured quantity with its qualitative label.
type Vital struct {
	Value  float64 `json:"value" yaml:"value"`
	Levels string  `json:"levels" yaml:"levels"`
	Trend  Trend   `json:"trend" yaml:"trend"`
}

// ClassifyTrend maps the free-text levels label onto a Trend.
func ClassifyTrend(levels string) Trend {
	switch {
	case strings.Contains(levels, "Higher"):
		return TrendAbove
	case strings.Contains(levels, "Lower"):
		return TrendBelow
	default:
		return TrendNormal
	}
}

type BloodPressure struct {
	Systolic  Vital `json:"systolic" yaml:"systolic"`
	Diastolic Vital `json:"diastolic" yaml:"diastolic"`
}

// DiagnosisRecord is one monthly snapshot of a patient's vitals.
type DiagnosisRecord struct {
	Month           string        `json:"month" yaml:"month"`
	Year            int           `json:"year" yaml:"year"`
	BloodPressure   BloodPressure `json:"blood_pressure" yaml:"blood_pressure"`
	RespiratoryRate Vital         `json:"respiratory_rate" yaml:"respiratory_rate"`
	Temperature     Vital         `json:"temperature" yaml:"temperature"`
	HeartRate       Vital         `json:"heart_rate" yaml:"heart_rate"`
}

// Diagnostic is one entry of the problem list.
type Diagnostic struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Status      string `json:"status" yaml:"status"`
}

// Patient is one roster entry. ID is assigned at ingestion; the upstream
// payload carries no identifier of its own.
type Patient struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Gender           string            `json:"gender" yaml:"gender"`
	Age              int               `json:"age" yaml:"age"`
	PhoneNumber      string            `json:"phone_number" yaml:"phone_number"`
	EmergencyContact string            `json:"emergency_contact" yaml:"emergency_contact"`
	InsuranceType    string            `json:"insurance_type" yaml:"insurance_type"`
	ProfilePicture   string            `json:"profile_picture" yaml:"profile_picture"`
	DateOfBirth      string            `json:"date_of_birth" yaml:"date_of_birth"`
	DiagnosisHistory []DiagnosisRecord `json:"diagnosis_history" yaml:"diagnosis_history"`
	DiagnosticList   []Diagnostic      `json:"diagnostic_list" yaml:"diagnostic_list"`
	LabResults       []string          `json:"lab_results" yaml:"lab_results"`
}

// Latest returns the most recent diagnosis record. The history is
// chronological, so this is its last entry.
func (p *Patient) Latest() (DiagnosisRecord, bool) {
	if len(p.DiagnosisHistory) == 0 {
		return DiagnosisRecord{}, false
	}
	return p.DiagnosisHistory[len(p.DiagnosisHistory)-1], true
}

// RecentHistory returns at most n trailing entries of the diagnosis history
// in their original order.
func (p *Patient) RecentHistory(n int) []DiagnosisRecord {
	if n <= 0 {
		return nil
	}
	start := len(p.DiagnosisHistory) - n
	if start < 0 {
		start = 0
	}
	out := make([]DiagnosisRecord, len(p.DiagnosisHistory)-start)
	copy(out, p.DiagnosisHistory[start:])
	return out
}

// BirthDate parses the upstream date of birth. Both the ISO date and the
// "01/02/2006" form used by the demo API are accepted.
func (p *Patient) BirthDate() (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "01/02/2006", time.RFC3339} {
		if t, err := time.Parse(layout, p.DateOfBirth); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Clone returns a deep copy so snapshots handed to readers never alias the
// directory's roster.
func (p *Patient) Clone() Patient {
	out := *p
	if p.DiagnosisHistory != nil {
		out.DiagnosisHistory = append([]DiagnosisRecord(nil), p.DiagnosisHistory...)
	}
	if p.DiagnosticList != nil {
		out.DiagnosticList = append([]Diagnostic(nil), p.DiagnosticList...)
	}
	if p.LabResults != nil {
		out.LabResults = append([]string(nil), p.LabResults...)
	}
	return out
}
