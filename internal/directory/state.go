package directory

import (
	"errors"
	"sync"

	"github.com/mesikahq/patient-dashboard/internal/patient"
)

var (
	ErrNotLoaded       = errors.New("patient directory is not loaded")
	ErrPatientNotFound = errors.New("patient not found")
)

// Status is the lifecycle of the directory. It only ever moves forward,
// from Loading to exactly one of Loaded or Failed.
type Status string

const (
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

// State is the process-wide patient directory: the roster, the selected
// patient and the load status. It is created once by the composition root
// and handed to every consumer.
type State struct {
	mu       sync.RWMutex
	status   Status
	patients []patient.Patient
	selected int // index into patients, -1 when unset
	override *patient.Patient
	failure  string
}

// NewState returns a directory in the Loading state.
func NewState() *State {
	return &State{
		status:   StatusLoading,
		selected: -1,
	}
}

// Snapshot is a point-in-time copy of the directory.
type Snapshot struct {
	Status   Status            `json:"status"`
	Loading  bool              `json:"loading"`
	Failure  string            `json:"failure,omitempty"`
	Patients []patient.Patient `json:"patients"`
	Selected *patient.Patient  `json:"selected,omitempty"`
}

// Snapshot returns a deep copy of the current directory.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Status:   s.status,
		Loading:  s.status == StatusLoading,
		Failure:  s.failure,
		Patients: make([]patient.Patient, len(s.patients)),
	}
	for i := range s.patients {
		snap.Patients[i] = s.patients[i].Clone()
	}
	if sel := s.selectedLocked(); sel != nil {
		c := sel.Clone()
		snap.Selected = &c
	}
	return snap
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Loading reports whether the initial load is still in flight.
func (s *State) Loading() bool {
	return s.Status() == StatusLoading
}

// Selected returns a copy of the selected patient.
func (s *State) Selected() (patient.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel := s.selectedLocked()
	if sel == nil {
		return patient.Patient{}, false
	}
	return sel.Clone(), true
}

func (s *State) selectedLocked() *patient.Patient {
	if s.override != nil {
		return s.override
	}
	if s.selected < 0 || s.selected >= len(s.patients) {
		return nil
	}
	return &s.patients[s.selected]
}

// Select replaces the selection with the given record. The record is
// expected to come from the roster; when it matches a roster entry by id the
// selection points at that entry, otherwise the record itself is kept.
func (s *State) Select(p patient.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(p.ID); i >= 0 {
		s.selected = i
		s.override = nil
		return
	}
	c := p.Clone()
	s.override = &c
	s.selected = -1
}

// SelectByID selects the roster entry with the given id.
func (s *State) SelectByID(id string) (patient.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusLoaded {
		return patient.Patient{}, ErrNotLoaded
	}
	i := s.indexLocked(id)
	if i < 0 {
		return patient.Patient{}, ErrPatientNotFound
	}
	s.selected = i
	s.override = nil
	return s.patients[i].Clone(), nil
}

func (s *State) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.patients {
		if s.patients[i].ID == id {
			return i
		}
	}
	return -1
}

// complete records a successful load. It is a no-op once the directory has
// left the Loading state.
func (s *State) complete(roster []patient.Patient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusLoading {
		return false
	}
	if len(roster) == 0 {
		s.status = StatusFailed
		s.failure = patient.ErrEmptyRoster.Error()
		return true
	}
	s.patients = roster
	s.selected = 0
	s.status = StatusLoaded
	return true
}

// fail records a failed load. The roster stays empty and nothing is
// selected.
func (s *State) fail(reason error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusLoading {
		return false
	}
	s.patients = nil
	s.selected = -1
	s.override = nil
	s.status = StatusFailed
	if reason != nil {
		s.failure = reason.Error()
	}
	return true
}
