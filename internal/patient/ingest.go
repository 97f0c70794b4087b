package patient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

var (
	ErrMalformedPayload = errors.New("malformed roster payload")
	ErrEmptyRoster      = errors.New("roster is empty")
)

// rosterNamespace scopes the name-based UUIDs handed out at ingestion.
var rosterNamespace = uuid.MustParse("6f1c2b0e-4a53-5d8e-9c1b-7a3e0d2f8b64")

// Decode parses an upstream roster body. Anything other than a non-empty
// JSON array of patient objects is rejected.
func Decode(body []byte) ([]Patient, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: top-level value is not an array", ErrMalformedPayload)
	}

	var roster []Patient
	if err := json.Unmarshal(trimmed, &roster); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	Ingest(roster)
	return roster, nil
}

// Ingest assigns identifiers and trend indicators in place. Identifiers are
// derived from position and name, so duplicate names stay distinct and the
// same payload always produces the same identifiers.
func Ingest(roster []Patient) {
	for i := range roster {
		p := &roster[i]
		p.ID = NewID(i, p.Name)
		for j := range p.DiagnosisHistory {
			classifyRecord(&p.DiagnosisHistory[j])
		}
	}
}

// NewID returns the identifier for the patient at the given roster position.
func NewID(position int, name string) string {
	return uuid.NewSHA1(rosterNamespace, []byte(strconv.Itoa(position)+":"+name)).String()
}

func classifyRecord(r *DiagnosisRecord) {
	for _, v := range []*Vital{
		&r.BloodPressure.Systolic,
		&r.BloodPressure.Diastolic,
		&r.RespiratoryRate,
		&r.Temperature,
		&r.HeartRate,
	} {
		v.Trend = ClassifyTrend(v.Levels)
	}
}
