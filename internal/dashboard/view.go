package dashboard

import (
	"strconv"

	"github.com/mesikahq/patient-dashboard/internal/directory"
	"github.com/mesikahq/patient-dashboard/internal/patient"
)

const (
	notAvailable  = "N/A"
	defaultLevels = "Normal"
	labResultsMax = 5
)

// View selects which full-screen page is rendered.
type View string

const (
	ViewLoading   View = "loading"
	ViewFailed    View = "failed"
	ViewDashboard View = "dashboard"
)

type RosterItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture"`
	Caption        string `json:"caption"`
	Active         bool   `json:"active"`
}

type InfoRow struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type DetailCard struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ProfilePicture string    `json:"profile_picture"`
	Rows           []InfoRow `json:"rows"`
}

// Reading is a vital as shown on a card: the formatted value, its label and
// the trend indicator.
type Reading struct {
	Title  string        `json:"title"`
	Value  string        `json:"value"`
	Unit   string        `json:"unit,omitempty"`
	Levels string        `json:"levels"`
	Trend  patient.Trend `json:"trend"`
	Style  string        `json:"-"`
}

// Page is everything the dashboard template needs.
type Page struct {
	View          View                 `json:"view"`
	Roster        []RosterItem         `json:"roster,omitempty"`
	Detail        *DetailCard          `json:"detail,omitempty"`
	Chart         *Chart               `json:"chart,omitempty"`
	BloodPressure []Reading            `json:"blood_pressure,omitempty"`
	Vitals        []Reading            `json:"vitals,omitempty"`
	Diagnostics   []patient.Diagnostic `json:"diagnostics,omitempty"`
	LabResults    []string             `json:"lab_results,omitempty"`
}

// Build turns a directory snapshot into a page. A loaded directory without
// a selection renders as failed rather than as an empty dashboard.
func Build(snap directory.Snapshot) Page {
	switch {
	case snap.Status == directory.StatusLoading:
		return Page{View: ViewLoading}
	case snap.Status == directory.StatusFailed, snap.Selected == nil, len(snap.Patients) == 0:
		return Page{View: ViewFailed}
	}

	sel := snap.Selected
	chart := BuildChart(sel.DiagnosisHistory)
	latest, ok := sel.Latest()

	detail := BuildDetail(*sel)
	return Page{
		View:          ViewDashboard,
		Roster:        BuildRoster(snap.Patients, sel.ID),
		Detail:        &detail,
		Chart:         &chart,
		BloodPressure: bloodPressure(latest, ok),
		Vitals:        vitals(latest, ok),
		Diagnostics:   sel.DiagnosticList,
		LabResults:    LabResults(sel.LabResults),
	}
}

// BuildRoster lists every patient, marking the selected one active.
func BuildRoster(roster []patient.Patient, selectedID string) []RosterItem {
	items := make([]RosterItem, len(roster))
	for i, p := range roster {
		items[i] = RosterItem{
			ID:             p.ID,
			Name:           p.Name,
			ProfilePicture: p.ProfilePicture,
			Caption:        p.Gender + ", " + strconv.Itoa(p.Age) + " years",
			Active:         p.ID == selectedID,
		}
	}
	return items
}

func BuildDetail(p patient.Patient) DetailCard {
	genderIcon := "male"
	if p.Gender == "Female" {
		genderIcon = "female"
	}

	return DetailCard{
		ID:             p.ID,
		Name:           p.Name,
		ProfilePicture: p.ProfilePicture,
		Rows: []InfoRow{
			{Icon: "calendar", Label: "Date of Birth", Value: FormatBirthDate(p)},
			{Icon: genderIcon, Label: "Gender", Value: p.Gender},
			{Icon: "phone", Label: "Contact Info", Value: p.PhoneNumber},
			{Icon: "phone", Label: "Emergency Contact", Value: p.EmergencyContact},
			{Icon: "shield", Label: "Insurance Provider", Value: p.InsuranceType},
		},
	}
}

// FormatBirthDate renders the date of birth as "January 2, 2006", falling
// back to the raw value when it cannot be parsed.
func FormatBirthDate(p patient.Patient) string {
	if p.DateOfBirth == "" {
		return notAvailable
	}
	dob, ok := p.BirthDate()
	if !ok {
		return p.DateOfBirth
	}
	return dob.Format("January 2, 2006")
}

// LabResults returns the first entries shown on the lab results card.
func LabResults(all []string) []string {
	if len(all) > labResultsMax {
		return all[:labResultsMax]
	}
	return all
}

func bloodPressure(r patient.DiagnosisRecord, ok bool) []Reading {
	return []Reading{
		reading("Systolic", "", r.BloodPressure.Systolic, ok, "systolic"),
		reading("Diastolic", "", r.BloodPressure.Diastolic, ok, "diastolic"),
	}
}

func vitals(r patient.DiagnosisRecord, ok bool) []Reading {
	return []Reading{
		reading("Respiratory Rate", "bpm", r.RespiratoryRate, ok, "respiratory"),
		reading("Temperature", "°F", r.Temperature, ok, "temperature"),
		reading("Heart Rate", "bpm", r.HeartRate, ok, "heart"),
	}
}

func reading(title, unit string, v patient.Vital, ok bool, style string) Reading {
	if !ok {
		return Reading{Title: title, Value: notAvailable, Unit: unit, Levels: defaultLevels, Trend: patient.TrendNormal, Style: style}
	}

	levels := v.Levels
	if levels == "" {
		levels = defaultLevels
	}
	trend := v.Trend
	if trend == "" {
		trend = patient.TrendNormal
	}

	return Reading{
		Title:  title,
		Value:  strconv.FormatFloat(v.Value, 'f', -1, 64),
		Unit:   unit,
		Levels: levels,
		Trend:  trend,
		Style:  style,
	}
}
